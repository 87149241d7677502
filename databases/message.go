package databases

// go generate: mockery --name MessageDatabase
// go generate: mockery --name MessageAuditDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clearslate/defender-api/models"
)

const (
	messageName      = "messages"
	messageAuditName = "messageAudit"
)

// MessageDatabase contains the methods to use with the message database
type MessageDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Message, error)
	FindByAssignment(ctx context.Context, assignmentID string, limit, offset int64) ([]models.Message, error)
	Insert(ctx context.Context, message *models.Message) error
	Update(ctx context.Context, message *models.Message) error
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) FindOne(ctx context.Context, id string) (*models.Message, error) {
	message := &models.Message{}
	err := m.db.Collection(messageName).FindOne(ctx, bson.M{"_id": id}).Decode(message)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return message, nil
}

// FindByAssignment returns messages newest-first.
func (m *messageDatabase) FindByAssignment(ctx context.Context, assignmentID string, limit, offset int64) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := m.db.Collection(messageName).Find(ctx, bson.M{"assignmentID": assignmentID}, opts)
	if err != nil {
		return nil, err
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *messageDatabase) Insert(ctx context.Context, message *models.Message) error {
	return m.db.Collection(messageName).InsertOne(ctx, message)
}

func (m *messageDatabase) Update(ctx context.Context, message *models.Message) error {
	res, err := m.db.Collection(messageName).UpdateOne(ctx, bson.M{"_id": message.ID}, bson.M{"$set": message})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MessageAuditDatabase contains the methods to use with the message audit
// database. Audit rows are append-only.
type MessageAuditDatabase interface {
	Insert(ctx context.Context, record *models.MessageAudit) error
	FindByAssignment(ctx context.Context, assignmentID string) ([]models.MessageAudit, error)
}

type messageAuditDatabase struct {
	db DatabaseHelper
}

// NewMessageAuditDatabase initializes a new instance of message audit database with the provided db connection
func NewMessageAuditDatabase(db DatabaseHelper) MessageAuditDatabase {
	return &messageAuditDatabase{
		db: db,
	}
}

func (m *messageAuditDatabase) Insert(ctx context.Context, record *models.MessageAudit) error {
	return m.db.Collection(messageAuditName).InsertOne(ctx, record)
}

func (m *messageAuditDatabase) FindByAssignment(ctx context.Context, assignmentID string) ([]models.MessageAudit, error) {
	cursor, err := m.db.Collection(messageAuditName).Find(ctx, bson.M{"assignmentID": assignmentID})
	if err != nil {
		return nil, err
	}
	var records []models.MessageAudit
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
