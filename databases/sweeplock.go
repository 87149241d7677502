package databases

// go generate: mockery --name SweepLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sweepLockName = "sweepLocks"

// SweepLockDatabase provides a distributed lock so scheduled sweeps run on one
// instance at a time.
type SweepLockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type sweepLockDatabase struct {
	db DatabaseHelper
}

// NewSweepLockDatabase initializes a new instance of sweep lock database with the provided db connection
func NewSweepLockDatabase(db DatabaseHelper) SweepLockDatabase {
	return &sweepLockDatabase{
		db: db,
	}
}

type sweepLock struct {
	Name      string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// TryAcquireLock upserts the lock document if it is free or stale. Returns
// false without error when another live owner holds it.
func (s *sweepLockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": name,
		"$or": bson.A{
			bson.M{"owner": owner},
			bson.M{"expiresAt": bson.M{"$lt": now}},
		},
	}
	update := bson.M{"$set": sweepLock{Name: name, Owner: owner, ExpiresAt: now.Add(ttl)}}

	res, err := s.db.Collection(sweepLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A duplicate key race means another instance inserted first.
		return false, nil
	}
	return res.MatchedCount > 0 || res.UpsertedCount > 0, nil
}

func (s *sweepLockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	return s.db.Collection(sweepLockName).DeleteOne(ctx, bson.M{"_id": name, "owner": owner})
}
