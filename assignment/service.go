// Package assignment manages the consent-backed link between a defender and a
// debtor's case: creation, consent redemption, transfer, completion and the
// periodic consent-expiry sweep. Every status change appends one history row.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/ids"
	"github.com/clearslate/defender-api/locks"
	"github.com/clearslate/defender-api/models"
)

// DefaultConsentTTL is how long a consent grant stays redeemable.
const DefaultConsentTTL = 7 * 24 * time.Hour

// Notifier delivers consent-request notifications. Fire-and-forget; failures
// must never affect assignment state.
type Notifier interface {
	SendConsentRequest(debtorID, defenderName, assignmentID, consentToken string, expiresAt time.Time)
}

// Service implements the assignment workflow.
type Service struct {
	Defenders   databases.DefenderDatabase
	Assignments databases.AssignmentDatabase
	History     databases.AssignmentHistoryDatabase
	Notifier    Notifier

	ConsentTTL time.Duration

	// assignmentLocks serializes mutations per assignment id; pairLocks
	// serialize the at-most-one-open invariant per (debtor, case) pair.
	// Caseload arithmetic holds the shared locks.Defenders lock. Lock order
	// is always assignment, then pair, then defenders in sorted id order.
	assignmentLocks *locks.Keyed
	pairLocks       *locks.Keyed
}

// NewService creates an assignment service.
func NewService(defenders databases.DefenderDatabase, assignments databases.AssignmentDatabase, history databases.AssignmentHistoryDatabase, notifier Notifier) *Service {
	return &Service{
		Defenders:       defenders,
		Assignments:     assignments,
		History:         history,
		Notifier:        notifier,
		ConsentTTL:      DefaultConsentTTL,
		assignmentLocks: locks.NewKeyed(),
		pairLocks:       locks.NewKeyed(),
	}
}

// CreateAssignment proposes a defender for a (debtor, case) pair. With no
// defender given, the least-loaded eligible defender is allocated. The new
// assignment carries a single-use consent token; debtor-initiated requests
// start REQUESTED, all others PENDING_CONSENT.
func (s *Service) CreateAssignment(ctx context.Context, debtorID, caseID, requestedBy, defenderID string) (*models.DefenderAssignment, error) {
	pairKey := debtorID + "/" + caseID
	s.pairLocks.Lock(pairKey)
	defer s.pairLocks.Unlock(pairKey)

	if existing, err := s.Assignments.FindOpenByPair(ctx, debtorID, caseID); err == nil {
		return nil, fmt.Errorf("%w: assignment %s already open for this case", models.ErrConflict, existing.ID)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	defender, err := s.resolveDefender(ctx, defenderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := models.AssignmentPendingConsent
	if requestedBy == debtorID {
		status = models.AssignmentRequested
	}
	expiresAt := now.Add(s.ConsentTTL)

	assignment := &models.DefenderAssignment{
		ID:               ids.New(),
		DefenderID:       defender.ID,
		DebtorID:         debtorID,
		CaseID:           caseID,
		Status:           status,
		RequestedBy:      requestedBy,
		ConsentToken:     uuid.New().String(),
		ConsentExpiresAt: &expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Assignments.Insert(ctx, assignment); err != nil {
		return nil, err
	}
	s.appendHistory(ctx, assignment.ID, "", status, requestedBy, "assignment requested")

	if s.Notifier != nil {
		go s.Notifier.SendConsentRequest(debtorID, defender.FirstName+" "+defender.LastName, assignment.ID, assignment.ConsentToken, expiresAt)
	}
	return assignment, nil
}

// ProcessConsent redeems (or declines) the consent grant. The token is
// single-use: redemption clears it and moves the assignment out of the
// consent-pending statuses, so a second call fails with IllegalState.
func (s *Service) ProcessConsent(ctx context.Context, assignmentID, debtorID, token string, consent bool, reason string) (*models.DefenderAssignment, error) {
	s.assignmentLocks.Lock(assignmentID)
	defer s.assignmentLocks.Unlock(assignmentID)

	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.DebtorID != debtorID {
		return nil, fmt.Errorf("%w: caller is not the assignment's debtor", models.ErrForbidden)
	}
	if !assignment.Status.AwaitingConsent() {
		return nil, fmt.Errorf("%w: consent already resolved (status %s)", models.ErrIllegalState, assignment.Status)
	}
	if assignment.ConsentToken == "" || token != assignment.ConsentToken {
		return nil, fmt.Errorf("%w: consent token mismatch", models.ErrForbidden)
	}
	now := time.Now()
	if assignment.ConsentExpiresAt != nil && now.After(*assignment.ConsentExpiresAt) {
		// The sweep may not have caught it yet; expire it here so the
		// outcome is deterministic either way.
		s.expireLocked(ctx, assignment, now)
		return nil, fmt.Errorf("%w: consent window closed at %s", models.ErrExpired, assignment.ConsentExpiresAt.Format(time.RFC3339))
	}

	previous := assignment.Status
	if !consent {
		assignment.Status = models.AssignmentDeclined
		assignment.DeclineReason = reason
		assignment.ConsentToken = ""
		assignment.ConsentExpiresAt = nil
		assignment.UpdatedAt = now
		if err := s.Assignments.Update(ctx, assignment); err != nil {
			return nil, err
		}
		s.appendHistory(ctx, assignment.ID, previous, models.AssignmentDeclined, debtorID, reason)
		return assignment, nil
	}

	// Accepting occupies a caseload slot, so the capacity check and the
	// increment happen together under the defender's lock.
	if err := s.withDefender(ctx, assignment.DefenderID, func(defender *models.DefenderProfile) error {
		if defender.OnboardingStatus != models.OnboardingActive {
			return fmt.Errorf("%w: defender is %s", models.ErrNoCapacity, defender.OnboardingStatus)
		}
		if !defender.HasOpenSlot() {
			return fmt.Errorf("%w: defender at %d/%d", models.ErrNoCapacity, defender.CurrentCaseload, defender.MaxCaseload)
		}
		defender.CurrentCaseload++
		defender.UpdatedAt = now
		return nil
	}); err != nil {
		return nil, err
	}

	assignment.Status = models.AssignmentActive
	assignment.DebtorConsentedAt = &now
	assignment.AssignedAt = &now
	assignment.ConsentToken = ""
	assignment.ConsentExpiresAt = nil
	assignment.UpdatedAt = now
	if err := s.Assignments.Update(ctx, assignment); err != nil {
		// Hand the slot back; the assignment never activated.
		s.releaseSlot(ctx, assignment.DefenderID)
		return nil, err
	}
	s.appendHistory(ctx, assignment.ID, previous, models.AssignmentActive, debtorID, "debtor consented")
	return assignment, nil
}

// TransferAssignment moves an ACTIVE assignment to another defender. The
// debtor consented once already, so the successor is created directly ACTIVE
// with the original consent timestamp carried forward. The source flip and
// successor creation are one logical unit: a failure after the flip reverts
// the source rather than leaving a half-completed transfer behind.
func (s *Service) TransferAssignment(ctx context.Context, assignmentID, targetDefenderID, reason, actorID string) (*models.DefenderAssignment, error) {
	s.assignmentLocks.Lock(assignmentID)
	defer s.assignmentLocks.Unlock(assignmentID)

	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentActive {
		return nil, fmt.Errorf("%w: transfer requires ACTIVE, have %s", models.ErrIllegalState, assignment.Status)
	}
	if targetDefenderID == assignment.DefenderID {
		return nil, fmt.Errorf("%w: assignment already belongs to defender %s", models.ErrConflict, targetDefenderID)
	}

	// The pair lock keeps CreateAssignment from seeing the window where the
	// source is already TRANSFERRED and the successor not yet inserted, which
	// would admit a second open assignment for the pair.
	pairKey := assignment.DebtorID + "/" + assignment.CaseID
	s.pairLocks.Lock(pairKey)
	defer s.pairLocks.Unlock(pairKey)

	sourceID := assignment.DefenderID
	for _, id := range sortedPair(sourceID, targetDefenderID) {
		locks.Defenders.Lock(id)
		defer locks.Defenders.Unlock(id)
	}

	target, err := s.Defenders.FindOne(ctx, targetDefenderID)
	if err != nil {
		return nil, err
	}
	if target.OnboardingStatus != models.OnboardingActive || !target.HasOpenSlot() {
		return nil, fmt.Errorf("%w: target defender cannot accept the case", models.ErrNoCapacity)
	}
	source, err := s.Defenders.FindOne(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.CurrentCaseload <= 0 {
		zap.S().Errorw("caseload underflow during transfer", "defenderID", sourceID)
		return nil, fmt.Errorf("%w: defender %s", models.ErrCaseloadUnderflow, sourceID)
	}

	now := time.Now()
	successor := &models.DefenderAssignment{
		ID:                ids.New(),
		DefenderID:        targetDefenderID,
		DebtorID:          assignment.DebtorID,
		CaseID:            assignment.CaseID,
		Status:            models.AssignmentActive,
		RequestedBy:       actorID,
		DebtorConsentedAt: assignment.DebtorConsentedAt,
		AssignedAt:        &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Caseloads move before the assignment records do, and every failure past
	// a persisted write compensates in reverse so a half-completed transfer
	// never outlives this call. The defender locks held above keep the
	// intermediate counts invisible to other mutators.
	source.CurrentCaseload--
	source.UpdatedAt = now
	if err := s.Defenders.Update(ctx, source); err != nil {
		return nil, err
	}
	target.CurrentCaseload++
	target.UpdatedAt = now
	if err := s.Defenders.Update(ctx, target); err != nil {
		source.CurrentCaseload++
		if revertErr := s.Defenders.Update(ctx, source); revertErr != nil {
			zap.S().Errorw("failed to restore source caseload after aborted transfer",
				"assignmentID", assignmentID, "defenderID", sourceID, "error", revertErr)
		}
		return nil, err
	}
	revertCaseloads := func() {
		source.CurrentCaseload++
		target.CurrentCaseload--
		if err := s.Defenders.Update(ctx, source); err != nil {
			zap.S().Errorw("failed to restore source caseload after aborted transfer",
				"assignmentID", assignmentID, "defenderID", sourceID, "error", err)
		}
		if err := s.Defenders.Update(ctx, target); err != nil {
			zap.S().Errorw("failed to restore target caseload after aborted transfer",
				"assignmentID", assignmentID, "defenderID", targetDefenderID, "error", err)
		}
	}

	previous := assignment.Status
	assignment.Status = models.AssignmentTransferred
	assignment.TransferredTo = successor.ID
	assignment.CompletedAt = &now
	assignment.CompletionReason = reason
	assignment.UpdatedAt = now
	if err := s.Assignments.Update(ctx, assignment); err != nil {
		revertCaseloads()
		return nil, err
	}

	if err := s.Assignments.Insert(ctx, successor); err != nil {
		// Revert the source flip so the transfer is all-or-nothing.
		assignment.Status = previous
		assignment.TransferredTo = ""
		assignment.CompletedAt = nil
		assignment.CompletionReason = ""
		if revertErr := s.Assignments.Update(ctx, assignment); revertErr != nil {
			zap.S().Errorw("failed to revert half-completed transfer; reconcile from history",
				"assignmentID", assignmentID, "successorID", successor.ID, "error", revertErr)
		}
		revertCaseloads()
		return nil, err
	}

	s.appendHistory(ctx, assignment.ID, previous, models.AssignmentTransferred, actorID, reason)
	s.appendHistory(ctx, successor.ID, "", models.AssignmentActive, actorID, "transferred from "+assignment.ID)
	return successor, nil
}

// CompleteAssignment closes an ACTIVE assignment and frees the defender's
// caseload slot.
func (s *Service) CompleteAssignment(ctx context.Context, assignmentID, reason, actorID string) (*models.DefenderAssignment, error) {
	s.assignmentLocks.Lock(assignmentID)
	defer s.assignmentLocks.Unlock(assignmentID)

	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentActive {
		return nil, fmt.Errorf("%w: completion requires ACTIVE, have %s", models.ErrIllegalState, assignment.Status)
	}

	now := time.Now()
	previous := assignment.Status
	assignment.Status = models.AssignmentCompleted
	assignment.CompletedAt = &now
	assignment.CompletionReason = reason
	assignment.UpdatedAt = now
	if err := s.Assignments.Update(ctx, assignment); err != nil {
		return nil, err
	}

	if err := s.withDefender(ctx, assignment.DefenderID, func(defender *models.DefenderProfile) error {
		if defender.CurrentCaseload <= 0 {
			return fmt.Errorf("%w: defender %s", models.ErrCaseloadUnderflow, defender.ID)
		}
		defender.CurrentCaseload--
		defender.UpdatedAt = now
		return nil
	}); err != nil {
		zap.S().Errorw("caseload decrement failed on completion", "assignmentID", assignmentID, "error", err)
		return nil, err
	}

	s.appendHistory(ctx, assignment.ID, previous, models.AssignmentCompleted, actorID, reason)
	return assignment, nil
}

// ExpireOldConsents moves every consent-pending assignment past its expiry to
// EXPIRED. Safe to run concurrently with foreground consent processing: each
// candidate is re-checked under its own lock, so an accept that wins the lock
// first keeps its activation.
func (s *Service) ExpireOldConsents(ctx context.Context) (int, error) {
	candidates, err := s.Assignments.FindExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		id := candidates[i].ID
		s.assignmentLocks.Lock(id)
		assignment, err := s.Assignments.FindOne(ctx, id)
		if err == nil && assignment.Status.AwaitingConsent() &&
			assignment.ConsentExpiresAt != nil && time.Now().After(*assignment.ConsentExpiresAt) {
			if err := s.expireLocked(ctx, assignment, time.Now()); err != nil {
				zap.S().Errorw("failed to expire assignment", "assignmentID", id, "error", err)
			} else {
				expired++
			}
		}
		s.assignmentLocks.Unlock(id)
	}
	return expired, nil
}

// HasDefenderAccess reports whether an ACTIVE assignment links the defender to
// the debtor. Pure read; used by the messaging channel as its access check.
func (s *Service) HasDefenderAccess(ctx context.Context, defenderID, debtorID string) bool {
	_, err := s.Assignments.FindActiveByParties(ctx, defenderID, debtorID)
	return err == nil
}

// GetAssignment returns one assignment by id.
func (s *Service) GetAssignment(ctx context.Context, id string) (*models.DefenderAssignment, error) {
	return s.Assignments.FindOne(ctx, id)
}

// GetHistory returns the append-only transition log of an assignment.
func (s *Service) GetHistory(ctx context.Context, assignmentID string) ([]models.AssignmentHistory, error) {
	return s.History.FindByAssignment(ctx, assignmentID)
}

// expireLocked flips an assignment to EXPIRED. Caller holds the assignment lock.
func (s *Service) expireLocked(ctx context.Context, assignment *models.DefenderAssignment, now time.Time) error {
	previous := assignment.Status
	assignment.Status = models.AssignmentExpired
	assignment.ConsentToken = ""
	assignment.UpdatedAt = now
	if err := s.Assignments.Update(ctx, assignment); err != nil {
		return err
	}
	s.appendHistory(ctx, assignment.ID, previous, models.AssignmentExpired, "system", "consent window elapsed")
	return nil
}

// resolveDefender returns the requested defender or allocates the least
// loaded eligible one.
func (s *Service) resolveDefender(ctx context.Context, defenderID string) (*models.DefenderProfile, error) {
	if defenderID != "" {
		defender, err := s.Defenders.FindOne(ctx, defenderID)
		if err != nil {
			return nil, err
		}
		if defender.OnboardingStatus != models.OnboardingActive {
			return nil, fmt.Errorf("%w: defender is %s", models.ErrNoCapacity, defender.OnboardingStatus)
		}
		return defender, nil
	}

	available, err := s.Defenders.FindAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("%w: no eligible defender available", models.ErrNoCapacity)
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].CurrentCaseload < available[j].CurrentCaseload
	})
	return &available[0], nil
}

// withDefender runs fn on a freshly loaded profile under the defender's lock
// and persists the mutation when fn succeeds.
func (s *Service) withDefender(ctx context.Context, defenderID string, fn func(*models.DefenderProfile) error) error {
	locks.Defenders.Lock(defenderID)
	defer locks.Defenders.Unlock(defenderID)

	defender, err := s.Defenders.FindOne(ctx, defenderID)
	if err != nil {
		return err
	}
	if err := fn(defender); err != nil {
		return err
	}
	return s.Defenders.Update(ctx, defender)
}

// releaseSlot undoes a caseload increment after a failed activation.
func (s *Service) releaseSlot(ctx context.Context, defenderID string) {
	err := s.withDefender(ctx, defenderID, func(defender *models.DefenderProfile) error {
		if defender.CurrentCaseload <= 0 {
			return fmt.Errorf("%w: defender %s", models.ErrCaseloadUnderflow, defenderID)
		}
		defender.CurrentCaseload--
		return nil
	})
	if err != nil {
		zap.S().Errorw("failed to release caseload slot", "defenderID", defenderID, "error", err)
	}
}

func (s *Service) appendHistory(ctx context.Context, assignmentID string, previous, next models.AssignmentStatus, actor, reason string) {
	record := &models.AssignmentHistory{
		ID:             ids.New(),
		AssignmentID:   assignmentID,
		PreviousStatus: previous,
		NewStatus:      next,
		Actor:          actor,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
	if err := s.History.Insert(ctx, record); err != nil {
		zap.S().Errorw("failed to append assignment history", "assignmentID", assignmentID, "error", err)
	}
}

func sortedPair(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}
