package databases

// go generate: mockery --name AccountDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clearslate/defender-api/models"
)

const accountName = "accounts"

// AccountDatabase contains the methods to use with the account database
type AccountDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Insert(ctx context.Context, account *models.Account) error
}

type accountDatabase struct {
	db DatabaseHelper
}

// NewAccountDatabase initializes a new instance of account database with the provided db connection
func NewAccountDatabase(db DatabaseHelper) AccountDatabase {
	return &accountDatabase{
		db: db,
	}
}

func (a *accountDatabase) FindOne(ctx context.Context, id string) (*models.Account, error) {
	account := &models.Account{}
	err := a.db.Collection(accountName).FindOne(ctx, bson.M{"_id": id}).Decode(account)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return account, nil
}

func (a *accountDatabase) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	account := &models.Account{}
	err := a.db.Collection(accountName).FindOne(ctx, bson.M{"email": email}).Decode(account)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return account, nil
}

func (a *accountDatabase) Insert(ctx context.Context, account *models.Account) error {
	return a.db.Collection(accountName).InsertOne(ctx, account)
}
