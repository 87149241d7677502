// Package onboarding drives the defender lifecycle: a fixed transition table
// from INVITED through ACTIVE, with SUSPENDED recoverable at any point after
// activation.
package onboarding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/locks"
	"github.com/clearslate/defender-api/models"
)

// transitions is the full (state, event) -> state table. Any pair absent here
// is an invalid transition. REJECT_CREDENTIALS is the only backward edge.
var transitions = map[models.OnboardingStatus]map[models.OnboardingEvent]models.OnboardingStatus{
	models.OnboardingInvited: {
		models.EventRegister: models.OnboardingRegistered,
	},
	models.OnboardingRegistered: {
		models.EventSubmitCredentials: models.OnboardingCredentialsSubmitted,
	},
	models.OnboardingCredentialsSubmitted: {
		models.EventVerifyCredentials: models.OnboardingCredentialsVerified,
		models.EventRejectCredentials: models.OnboardingRegistered,
	},
	models.OnboardingCredentialsVerified: {
		models.EventStartTraining: models.OnboardingTrainingInProgress,
	},
	models.OnboardingTrainingInProgress: {
		models.EventCompleteTraining: models.OnboardingTermsPending,
	},
	models.OnboardingTermsPending: {
		models.EventAcceptTerms: models.OnboardingActive,
	},
	models.OnboardingActive: {
		models.EventSuspend: models.OnboardingSuspended,
	},
	models.OnboardingSuspended: {
		models.EventReactivate: models.OnboardingActive,
	},
}

// CanTransition reports whether event is legal from state. Pure; no side
// effects, suitable for UI pre-flight checks.
func CanTransition(state models.OnboardingStatus, event models.OnboardingEvent) bool {
	_, ok := transitions[state][event]
	return ok
}

// Metadata carries the optional per-event inputs stamped onto the profile.
type Metadata struct {
	Actor        string
	Reason       string
	TermsVersion string
}

// Service applies onboarding events to defender profiles.
type Service struct {
	Defenders databases.DefenderDatabase
}

// NewService creates an onboarding service over the defender store.
func NewService(defenders databases.DefenderDatabase) *Service {
	return &Service{Defenders: defenders}
}

// Transition looks up (current state, event) in the transition table and, if
// legal, applies the new state plus the event's side effects under the
// defender's lock. Returns ErrInvalidTransition for absent pairs.
func (s *Service) Transition(ctx context.Context, defenderID string, event models.OnboardingEvent, meta Metadata) (*models.DefenderProfile, error) {
	locks.Defenders.Lock(defenderID)
	defer locks.Defenders.Unlock(defenderID)

	profile, err := s.Defenders.FindOne(ctx, defenderID)
	if err != nil {
		return nil, err
	}

	next, ok := transitions[profile.OnboardingStatus][event]
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", models.ErrInvalidTransition, event, profile.OnboardingStatus)
	}

	now := time.Now()
	previous := profile.OnboardingStatus
	profile.OnboardingStatus = next
	profile.UpdatedAt = now

	switch event {
	case models.EventVerifyCredentials:
		profile.VerificationStatus = models.VerificationVerified
		profile.VerifiedAt = &now
		profile.VerifiedBy = meta.Actor
	case models.EventRejectCredentials:
		// The one backward edge: verification sub-fields reset so the
		// defender can resubmit.
		profile.VerificationStatus = models.VerificationPending
		profile.VerifiedAt = nil
		profile.VerifiedBy = ""
	case models.EventStartTraining:
		profile.TrainingStartedAt = &now
	case models.EventCompleteTraining:
		profile.TrainingCompletedAt = &now
	case models.EventAcceptTerms:
		profile.OnboardingCompletedAt = &now
		profile.TermsVersion = meta.TermsVersion
	case models.EventSuspend:
		profile.SuspendedAt = &now
		profile.SuspensionReason = meta.Reason
	case models.EventReactivate:
		profile.SuspendedAt = nil
		profile.SuspensionReason = ""
	}

	if err := s.Defenders.Update(ctx, profile); err != nil {
		return nil, err
	}

	zap.S().Infow("defender onboarding transition",
		"defenderID", defenderID,
		"event", event,
		"from", previous,
		"to", next,
		"actor", meta.Actor,
	)
	return profile, nil
}
