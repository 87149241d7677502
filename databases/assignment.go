package databases

// go generate: mockery --name AssignmentDatabase
// go generate: mockery --name AssignmentHistoryDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clearslate/defender-api/models"
)

const (
	assignmentName        = "assignments"
	assignmentHistoryName = "assignmentHistory"
)

// openStatuses are the statuses that occupy a (debtor, case) pair.
var openStatuses = bson.A{
	models.AssignmentRequested,
	models.AssignmentPendingConsent,
	models.AssignmentActive,
}

// AssignmentDatabase contains the methods to use with the assignment database
type AssignmentDatabase interface {
	FindOne(ctx context.Context, id string) (*models.DefenderAssignment, error)
	FindOpenByPair(ctx context.Context, debtorID, caseID string) (*models.DefenderAssignment, error)
	FindActiveByParties(ctx context.Context, defenderID, debtorID string) (*models.DefenderAssignment, error)
	FindByDefender(ctx context.Context, defenderID string) ([]models.DefenderAssignment, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]models.DefenderAssignment, error)
	Insert(ctx context.Context, assignment *models.DefenderAssignment) error
	Update(ctx context.Context, assignment *models.DefenderAssignment) error
}

type assignmentDatabase struct {
	db DatabaseHelper
}

// NewAssignmentDatabase initializes a new instance of assignment database with the provided db connection
func NewAssignmentDatabase(db DatabaseHelper) AssignmentDatabase {
	return &assignmentDatabase{
		db: db,
	}
}

func (a *assignmentDatabase) FindOne(ctx context.Context, id string) (*models.DefenderAssignment, error) {
	assignment := &models.DefenderAssignment{}
	err := a.db.Collection(assignmentName).FindOne(ctx, bson.M{"_id": id}).Decode(assignment)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return assignment, nil
}

func (a *assignmentDatabase) FindOpenByPair(ctx context.Context, debtorID, caseID string) (*models.DefenderAssignment, error) {
	assignment := &models.DefenderAssignment{}
	filter := bson.M{
		"debtorID": debtorID,
		"caseID":   caseID,
		"status":   bson.M{"$in": openStatuses},
	}
	err := a.db.Collection(assignmentName).FindOne(ctx, filter).Decode(assignment)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return assignment, nil
}

func (a *assignmentDatabase) FindActiveByParties(ctx context.Context, defenderID, debtorID string) (*models.DefenderAssignment, error) {
	assignment := &models.DefenderAssignment{}
	filter := bson.M{
		"defenderID": defenderID,
		"debtorID":   debtorID,
		"status":     models.AssignmentActive,
	}
	err := a.db.Collection(assignmentName).FindOne(ctx, filter).Decode(assignment)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return assignment, nil
}

func (a *assignmentDatabase) FindByDefender(ctx context.Context, defenderID string) ([]models.DefenderAssignment, error) {
	cursor, err := a.db.Collection(assignmentName).Find(ctx, bson.M{"defenderID": defenderID})
	if err != nil {
		return nil, err
	}
	var assignments []models.DefenderAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (a *assignmentDatabase) FindExpiredPending(ctx context.Context, now time.Time) ([]models.DefenderAssignment, error) {
	filter := bson.M{
		"status": bson.M{"$in": bson.A{
			models.AssignmentRequested,
			models.AssignmentPendingConsent,
		}},
		"consentExpiresAt": bson.M{"$lt": now},
	}
	cursor, err := a.db.Collection(assignmentName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var assignments []models.DefenderAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (a *assignmentDatabase) Insert(ctx context.Context, assignment *models.DefenderAssignment) error {
	return a.db.Collection(assignmentName).InsertOne(ctx, assignment)
}

func (a *assignmentDatabase) Update(ctx context.Context, assignment *models.DefenderAssignment) error {
	res, err := a.db.Collection(assignmentName).UpdateOne(ctx, bson.M{"_id": assignment.ID}, bson.M{"$set": assignment})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AssignmentHistoryDatabase contains the methods to use with the assignment
// history database. History is append-only; there is no update or delete.
type AssignmentHistoryDatabase interface {
	Insert(ctx context.Context, record *models.AssignmentHistory) error
	FindByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentHistory, error)
}

type assignmentHistoryDatabase struct {
	db DatabaseHelper
}

// NewAssignmentHistoryDatabase initializes a new instance of assignment history database with the provided db connection
func NewAssignmentHistoryDatabase(db DatabaseHelper) AssignmentHistoryDatabase {
	return &assignmentHistoryDatabase{
		db: db,
	}
}

func (h *assignmentHistoryDatabase) Insert(ctx context.Context, record *models.AssignmentHistory) error {
	return h.db.Collection(assignmentHistoryName).InsertOne(ctx, record)
}

func (h *assignmentHistoryDatabase) FindByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentHistory, error) {
	cursor, err := h.db.Collection(assignmentHistoryName).Find(ctx, bson.M{"assignmentID": assignmentID})
	if err != nil {
		return nil, err
	}
	var records []models.AssignmentHistory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
