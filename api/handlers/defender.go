package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/ids"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/onboarding"
)

// Defender exported for testing purposes
type Defender struct {
	Onboarding *onboarding.Service
	Accounts   databases.AccountDatabase
}

type createDefenderRequest struct {
	UserID       string `json:"userID"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BarNumber    string `json:"barNumber"`
	Organization string `json:"organization"`
	MaxCaseload  int    `json:"maxCaseload"`
	Password     string `json:"password"`
}

// CreateDefenderHandler invites a new defender: creates the profile in its
// initial lifecycle state and, when a password is supplied, a login account
// bound to it.
func (d Defender) CreateDefenderHandler(w http.ResponseWriter, r *http.Request) {
	var req createDefenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.MaxCaseload <= 0 {
		req.MaxCaseload = 10
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	profile := &models.DefenderProfile{
		ID:                 ids.New(),
		UserID:             req.UserID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		BarNumber:          req.BarNumber,
		Organization:       req.Organization,
		OnboardingStatus:   models.OnboardingInvited,
		VerificationStatus: models.VerificationPending,
		MaxCaseload:        req.MaxCaseload,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := d.Onboarding.Defenders.Insert(ctx, profile); err != nil {
		serviceError("failed to create defender", w, err)
		return
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			serviceError("failed to hash password", w, err)
			return
		}
		account := &models.Account{
			ID:           ids.New(),
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         models.AccountDefender,
			PartyID:      profile.ID,
			CreatedAt:    now,
		}
		if err := d.Accounts.Insert(ctx, account); err != nil {
			serviceError("failed to create account", w, err)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(profile)
}

// DefenderByIDHandler returns a defender profile by ID
func (d Defender) DefenderByIDHandler(w http.ResponseWriter, r *http.Request) {
	defenderID := mux.Vars(r)["defender_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := d.Onboarding.Defenders.FindOne(ctx, defenderID)
	if err != nil {
		serviceError("failed to get defender by ID", w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type transitionRequest struct {
	Event        models.OnboardingEvent `json:"event"`
	Reason       string                 `json:"reason"`
	TermsVersion string                 `json:"termsVersion"`
}

// TransitionHandler applies one onboarding lifecycle event to a defender
func (d Defender) TransitionHandler(w http.ResponseWriter, r *http.Request) {
	defenderID := mux.Vars(r)["defender_id"]

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	actor, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := d.Onboarding.Transition(ctx, defenderID, req.Event, onboarding.Metadata{
		Actor:        actor,
		Reason:       req.Reason,
		TermsVersion: req.TermsVersion,
	})
	if err != nil {
		serviceError("failed to apply onboarding event", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(profile)
}
