package databases

// go generate: mockery --name CredentialDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clearslate/defender-api/models"
)

const credentialName = "credentials"

// CredentialDatabase contains the methods to use with the credential database
type CredentialDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Credential, error)
	FindByDefender(ctx context.Context, defenderID string) ([]models.Credential, error)
	Insert(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
	Delete(ctx context.Context, id string) error
}

type credentialDatabase struct {
	db DatabaseHelper
}

// NewCredentialDatabase initializes a new instance of credential database with the provided db connection
func NewCredentialDatabase(db DatabaseHelper) CredentialDatabase {
	return &credentialDatabase{
		db: db,
	}
}

func (c *credentialDatabase) FindOne(ctx context.Context, id string) (*models.Credential, error) {
	credential := &models.Credential{}
	err := c.db.Collection(credentialName).FindOne(ctx, bson.M{"_id": id}).Decode(credential)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return credential, nil
}

func (c *credentialDatabase) FindByDefender(ctx context.Context, defenderID string) ([]models.Credential, error) {
	cursor, err := c.db.Collection(credentialName).Find(ctx, bson.M{"defenderID": defenderID})
	if err != nil {
		return nil, err
	}
	var credentials []models.Credential
	if err := cursor.All(ctx, &credentials); err != nil {
		return nil, err
	}
	return credentials, nil
}

func (c *credentialDatabase) Insert(ctx context.Context, credential *models.Credential) error {
	return c.db.Collection(credentialName).InsertOne(ctx, credential)
}

func (c *credentialDatabase) Update(ctx context.Context, credential *models.Credential) error {
	res, err := c.db.Collection(credentialName).UpdateOne(ctx, bson.M{"_id": credential.ID}, bson.M{"$set": credential})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (c *credentialDatabase) Delete(ctx context.Context, id string) error {
	return c.db.Collection(credentialName).DeleteOne(ctx, bson.M{"_id": id})
}
