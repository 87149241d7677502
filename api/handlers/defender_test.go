package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clearslate/defender-api/api/handlers"
	"github.com/clearslate/defender-api/databases"
	mocksdb "github.com/clearslate/defender-api/databases/mocks"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/onboarding"
)

func TestDefender_DefenderByIDHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/defender/01H0000000000000000000DEF1", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"defender_id": "01H0000000000000000000DEF1"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}

	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.DefenderProfile)
		arg.ID = "01H0000000000000000000DEF1"
		arg.FirstName = "June"
		arg.LastName = "Osei"
		arg.OnboardingStatus = models.OnboardingActive
		arg.VerificationStatus = models.VerificationVerified
		arg.MaxCaseload = 10
		arg.CurrentCaseload = 3
	})
	conn.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.DefenderByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.DefenderProfile
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, "01H0000000000000000000DEF1", got.ID)
	assert.Equal(t, models.OnboardingActive, got.OnboardingStatus)
	assert.Equal(t, 3, got.CurrentCaseload)
}

func TestDefender_DefenderByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/defender/missing", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"defender_id": "missing"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}

	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.DefenderByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	expected := `{"response": "failed to get defender by ID, not found"}`
	assert.Equal(t, expected, rr.Body.String())
}

func TestDefender_DefenderByIDHandlerFailedToFindOne(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/defender/1234", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"defender_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}

	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.DefenderByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	expected := `{"response": "failed to get defender by ID, mocked-error"}`
	assert.Equal(t, expected, rr.Body.String())
}

func TestDefender_CreateDefenderHandler(t *testing.T) {
	body := `{"userID": "user-77", "firstName": "June", "lastName": "Osei", "email": "june@example.com"}`
	req, err := http.NewRequest("POST", "/api/v1/defender", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}

	conn.(*mocksdb.CollectionHelper).On("InsertOne", mock.Anything, mock.Anything).Return(nil)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.CreateDefenderHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.DefenderProfile
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.OnboardingInvited, got.OnboardingStatus)
	assert.Equal(t, models.VerificationPending, got.VerificationStatus)
	assert.Equal(t, 10, got.MaxCaseload)
}

func TestDefender_TransitionHandler(t *testing.T) {
	body := `{"event": "ACCEPT_TERMS", "termsVersion": "2026-01"}`
	req, err := http.NewRequest("POST", "/api/v1/defender/1234/events", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"defender_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}

	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.DefenderProfile)
		arg.ID = "1234"
		arg.OnboardingStatus = models.OnboardingTermsPending
		arg.VerificationStatus = models.VerificationVerified
		arg.MaxCaseload = 10
	})
	conn.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.(*mocksdb.CollectionHelper).On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.TransitionHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.DefenderProfile
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, models.OnboardingActive, got.OnboardingStatus)
	assert.Equal(t, "2026-01", got.TermsVersion)
	assert.NotNil(t, got.OnboardingCompletedAt)
}

func TestDefender_TransitionHandlerInvalidTransition(t *testing.T) {
	body := `{"event": "REGISTER"}`
	req, err := http.NewRequest("POST", "/api/v1/defender/1234/events", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"defender_id": "1234"})
	req.Header.Set("Authorization", "Bearer abc123")

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &mocksdb.DatabaseHelper{}
	conn = &mocksdb.CollectionHelper{}
	singleResultHelper = &mocksdb.SingleResultHelper{}

	singleResultHelper.(*mocksdb.SingleResultHelper).On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.DefenderProfile)
		arg.ID = "1234"
		arg.OnboardingStatus = models.OnboardingActive
	})
	conn.(*mocksdb.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*mocksdb.DatabaseHelper).On("Collection", "defenders").Return(conn)

	defenderDatabase := databases.NewDefenderDatabase(db)
	u := handlers.Defender{
		Onboarding: onboarding.NewService(defenderDatabase),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.TransitionHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)

	expected := `{"response": "failed to apply onboarding event, invalid transition: REGISTER from ACTIVE"}`
	assert.Equal(t, expected, rr.Body.String())
}
