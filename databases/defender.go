package databases

// go generate: mockery --name DefenderDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clearslate/defender-api/models"
)

const defenderName = "defenders"

// DefenderDatabase contains the methods to use with the defender database
type DefenderDatabase interface {
	FindOne(ctx context.Context, id string) (*models.DefenderProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.DefenderProfile, error)
	FindAvailable(ctx context.Context) ([]models.DefenderProfile, error)
	Insert(ctx context.Context, profile *models.DefenderProfile) error
	Update(ctx context.Context, profile *models.DefenderProfile) error
}

type defenderDatabase struct {
	db DatabaseHelper
}

// NewDefenderDatabase initializes a new instance of defender database with the provided db connection
func NewDefenderDatabase(db DatabaseHelper) DefenderDatabase {
	return &defenderDatabase{
		db: db,
	}
}

func (d *defenderDatabase) FindOne(ctx context.Context, id string) (*models.DefenderProfile, error) {
	profile := &models.DefenderProfile{}
	err := d.db.Collection(defenderName).FindOne(ctx, bson.M{"_id": id}).Decode(profile)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return profile, nil
}

func (d *defenderDatabase) FindByUserID(ctx context.Context, userID string) (*models.DefenderProfile, error) {
	profile := &models.DefenderProfile{}
	err := d.db.Collection(defenderName).FindOne(ctx, bson.M{"userID": userID}).Decode(profile)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return profile, nil
}

func (d *defenderDatabase) FindAvailable(ctx context.Context) ([]models.DefenderProfile, error) {
	filter := bson.M{
		"onboardingStatus": models.OnboardingActive,
		"$expr":            bson.M{"$lt": bson.A{"$currentCaseload", "$maxCaseload"}},
	}
	cursor, err := d.db.Collection(defenderName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var profiles []models.DefenderProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (d *defenderDatabase) Insert(ctx context.Context, profile *models.DefenderProfile) error {
	return d.db.Collection(defenderName).InsertOne(ctx, profile)
}

func (d *defenderDatabase) Update(ctx context.Context, profile *models.DefenderProfile) error {
	res, err := d.db.Collection(defenderName).UpdateOne(ctx, bson.M{"_id": profile.ID}, bson.M{"$set": profile})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
