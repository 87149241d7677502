package databases

// go generate: mockery --name AttachmentDatabase
// go generate: mockery --name ToneDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clearslate/defender-api/models"
)

const (
	attachmentName = "attachments"
	toneName       = "toneClassifications"
)

// AttachmentDatabase contains the methods to use with the attachment database
type AttachmentDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Attachment, error)
	Insert(ctx context.Context, attachment *models.Attachment) error
	Update(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, id string) error
}

type attachmentDatabase struct {
	db DatabaseHelper
}

// NewAttachmentDatabase initializes a new instance of attachment database with the provided db connection
func NewAttachmentDatabase(db DatabaseHelper) AttachmentDatabase {
	return &attachmentDatabase{
		db: db,
	}
}

func (a *attachmentDatabase) FindOne(ctx context.Context, id string) (*models.Attachment, error) {
	attachment := &models.Attachment{}
	err := a.db.Collection(attachmentName).FindOne(ctx, bson.M{"_id": id}).Decode(attachment)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return attachment, nil
}

func (a *attachmentDatabase) Insert(ctx context.Context, attachment *models.Attachment) error {
	return a.db.Collection(attachmentName).InsertOne(ctx, attachment)
}

func (a *attachmentDatabase) Update(ctx context.Context, attachment *models.Attachment) error {
	res, err := a.db.Collection(attachmentName).UpdateOne(ctx, bson.M{"_id": attachment.ID}, bson.M{"$set": attachment})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (a *attachmentDatabase) Delete(ctx context.Context, id string) error {
	return a.db.Collection(attachmentName).DeleteOne(ctx, bson.M{"_id": id})
}

// ToneDatabase contains the methods to use with the tone classification database
type ToneDatabase interface {
	FindOne(ctx context.Context, id string) (*models.ToneClassification, error)
	Insert(ctx context.Context, classification *models.ToneClassification) error
}

type toneDatabase struct {
	db DatabaseHelper
}

// NewToneDatabase initializes a new instance of tone classification database with the provided db connection
func NewToneDatabase(db DatabaseHelper) ToneDatabase {
	return &toneDatabase{
		db: db,
	}
}

func (t *toneDatabase) FindOne(ctx context.Context, id string) (*models.ToneClassification, error) {
	classification := &models.ToneClassification{}
	err := t.db.Collection(toneName).FindOne(ctx, bson.M{"_id": id}).Decode(classification)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return classification, nil
}

func (t *toneDatabase) Insert(ctx context.Context, classification *models.ToneClassification) error {
	return t.db.Collection(toneName).InsertOne(ctx, classification)
}
