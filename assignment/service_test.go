package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/ids"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/onboarding"
)

type recordingNotifier struct {
	mu       sync.Mutex
	requests []string
}

func (r *recordingNotifier) SendConsentRequest(debtorID, defenderName, assignmentID, token string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, assignmentID)
}

type fixture struct {
	service   *Service
	defenders *databases.MemoryDefenderDatabase
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	defenders := databases.NewMemoryDefenderDatabase()
	notifier := &recordingNotifier{}
	service := NewService(defenders, databases.NewMemoryAssignmentDatabase(), databases.NewMemoryAssignmentHistoryDatabase(), notifier)
	return &fixture{service: service, defenders: defenders, notifier: notifier}
}

func (f *fixture) seedDefender(t *testing.T, maxCaseload, currentCaseload int) *models.DefenderProfile {
	t.Helper()
	defender := &models.DefenderProfile{
		ID:               ids.New(),
		UserID:           ids.New(),
		FirstName:        "Ada",
		LastName:         "Reyes",
		Email:            "ada@example.com",
		OnboardingStatus: models.OnboardingActive,
		MaxCaseload:      maxCaseload,
		CurrentCaseload:  currentCaseload,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, f.defenders.Insert(context.Background(), defender))
	return defender
}

func (f *fixture) pendingAssignment(t *testing.T, defenderID, debtorID, caseID string) (*models.DefenderAssignment, string) {
	t.Helper()
	created, err := f.service.CreateAssignment(context.Background(), debtorID, caseID, "staff-1", defenderID)
	require.NoError(t, err)
	return created, created.ConsentToken
}

func TestCreateAssignment_ExplicitDefender(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)

	created, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", defender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPendingConsent, created.Status)
	assert.NotEmpty(t, created.ConsentToken)
	require.NotNil(t, created.ConsentExpiresAt)
	assert.WithinDuration(t, time.Now().Add(DefaultConsentTTL), *created.ConsentExpiresAt, time.Minute)
}

func TestCreateAssignment_DebtorInitiatedStartsRequested(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)

	created, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "debtor-1", defender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentRequested, created.Status)
}

func TestCreateAssignment_DuplicateOpenPairConflicts(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	other := f.seedDefender(t, 5, 0)

	_, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", defender.ID)
	require.NoError(t, err)

	_, err = f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", other.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	// A different case for the same debtor is a different pair.
	_, err = f.service.CreateAssignment(context.Background(), "debtor-1", "case-2", "staff-1", other.ID)
	assert.NoError(t, err)
}

func TestCreateAssignment_AutoAllocatesLeastLoaded(t *testing.T) {
	f := newFixture(t)
	f.seedDefender(t, 5, 3)
	light := f.seedDefender(t, 5, 1)
	f.seedDefender(t, 5, 2)

	created, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", "")
	require.NoError(t, err)
	assert.Equal(t, light.ID, created.DefenderID)
}

func TestCreateAssignment_NoEligibleDefender(t *testing.T) {
	f := newFixture(t)
	f.seedDefender(t, 2, 2) // full

	_, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", "")
	assert.ErrorIs(t, err, models.ErrNoCapacity)
}

func TestCreateAssignment_InactiveExplicitDefenderRejected(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	defender.OnboardingStatus = models.OnboardingSuspended
	require.NoError(t, f.defenders.Update(context.Background(), defender))

	_, err := f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", defender.ID)
	assert.ErrorIs(t, err, models.ErrNoCapacity)
}

func TestProcessConsent_AcceptActivatesAndOccupiesSlot(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	accepted, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, accepted.Status)
	assert.NotNil(t, accepted.DebtorConsentedAt)
	assert.NotNil(t, accepted.AssignedAt)
	assert.Empty(t, accepted.ConsentToken)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentCaseload)
}

func TestProcessConsent_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	_, err = f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	assert.ErrorIs(t, err, models.ErrIllegalState)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentCaseload, "second redemption must not occupy another slot")
}

func TestProcessConsent_WrongDebtorForbidden(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-2", token, true, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestProcessConsent_WrongTokenForbidden(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, _ := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", "not-the-token", true, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestProcessConsent_DeclineRecordsReason(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	declined, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, false, "prefer another firm")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentDeclined, declined.Status)
	assert.Equal(t, "prefer another firm", declined.DeclineReason)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.CurrentCaseload)
}

func TestProcessConsent_ExpiredWindow(t *testing.T) {
	f := newFixture(t)
	f.service.ConsentTTL = -time.Minute
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	assert.ErrorIs(t, err, models.ErrExpired)

	reloaded, err := f.service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, reloaded.Status)
}

func TestProcessConsent_ConcurrentAcceptsOnLastSlot(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 3, 2) // one slot left

	first, firstToken := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")
	second, secondToken := f.pendingAssignment(t, defender.ID, "debtor-2", "case-2")

	type outcome struct {
		assignmentID string
		err          error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	accept := func(id, debtorID, token string) {
		defer wg.Done()
		_, err := f.service.ProcessConsent(context.Background(), id, debtorID, token, true, "")
		results <- outcome{assignmentID: id, err: err}
	}
	wg.Add(2)
	go accept(first.ID, "debtor-1", firstToken)
	go accept(second.ID, "debtor-2", secondToken)
	wg.Wait()
	close(results)

	succeeded, capacityErrs := 0, 0
	for r := range results {
		if r.err == nil {
			succeeded++
		} else if errors.Is(r.err, models.ErrNoCapacity) {
			capacityErrs++
		} else {
			t.Fatalf("unexpected error for %s: %v", r.assignmentID, r.err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, capacityErrs)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.CurrentCaseload, "caseload never exceeds the maximum")
}

func TestProcessConsent_ManyConcurrentAcceptsSameAssignment(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrIllegalState)
		}
	}
	assert.Equal(t, 1, succeeded)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentCaseload, "exactly one slot occupied")
}

func TestTransferAssignment_MovesCaseAtomically(t *testing.T) {
	f := newFixture(t)
	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	successor, err := f.service.TransferAssignment(context.Background(), created.ID, target.ID, "conflict of interest", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, successor.Status)
	assert.Equal(t, target.ID, successor.DefenderID)
	assert.Equal(t, "debtor-1", successor.DebtorID)
	assert.NotNil(t, successor.DebtorConsentedAt, "original consent carries forward")

	original, err := f.service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentTransferred, original.Status)
	assert.Equal(t, successor.ID, original.TransferredTo)

	reloadedSource, err := f.defenders.FindOne(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadedSource.CurrentCaseload)
	reloadedTarget, err := f.defenders.FindOne(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedTarget.CurrentCaseload)
}

func TestTransferAssignment_TargetAtCapacity(t *testing.T) {
	f := newFixture(t)
	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 1, 1)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	_, err = f.service.TransferAssignment(context.Background(), created.ID, target.ID, "", "staff-1")
	assert.ErrorIs(t, err, models.ErrNoCapacity)

	original, err := f.service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, original.Status, "failed transfer leaves the source untouched")
}

func TestTransferAssignment_RequiresActive(t *testing.T) {
	f := newFixture(t)
	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	created, _ := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")

	_, err := f.service.TransferAssignment(context.Background(), created.ID, target.ID, "", "staff-1")
	assert.ErrorIs(t, err, models.ErrIllegalState)
}

func TestCompleteAssignment_FreesSlot(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")
	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	completed, err := f.service.CompleteAssignment(context.Background(), created.ID, "debt resolved", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCompleted, completed.Status)
	assert.Equal(t, "debt resolved", completed.CompletionReason)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.CurrentCaseload)

	// The pair is free again.
	_, err = f.service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", defender.ID)
	assert.NoError(t, err)
}

func TestCompleteAssignment_UnderflowIsLoud(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")
	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	// Simulate drift: the counter was zeroed out of band.
	defender, err = f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	defender.CurrentCaseload = 0
	require.NoError(t, f.defenders.Update(context.Background(), defender))

	_, err = f.service.CompleteAssignment(context.Background(), created.ID, "", "staff-1")
	assert.ErrorIs(t, err, models.ErrCaseloadUnderflow)
}

func TestExpireOldConsents_SweepsPending(t *testing.T) {
	f := newFixture(t)
	f.service.ConsentTTL = -time.Minute
	defender := f.seedDefender(t, 5, 0)
	stale, _ := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	f.service.ConsentTTL = time.Hour
	fresh, _ := f.pendingAssignment(t, defender.ID, "debtor-2", "case-2")

	expired, err := f.service.ExpireOldConsents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	reloaded, err := f.service.GetAssignment(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, reloaded.Status)
	assert.Empty(t, reloaded.ConsentToken)

	untouched, err := f.service.GetAssignment(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPendingConsent, untouched.Status)
}

func TestExpireOldConsents_AcceptAfterSweepFails(t *testing.T) {
	f := newFixture(t)
	f.service.ConsentTTL = -time.Minute
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	_, err := f.service.ExpireOldConsents(context.Background())
	require.NoError(t, err)

	_, err = f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	assert.ErrorIs(t, err, models.ErrIllegalState)

	reloaded, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.CurrentCaseload)
}

func TestExpireOldConsents_ConcurrentWithAccept(t *testing.T) {
	f := newFixture(t)
	f.service.ConsentTTL = -time.Minute
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	var wg sync.WaitGroup
	wg.Add(2)
	var acceptErr error
	go func() {
		defer wg.Done()
		_, acceptErr = f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	}()
	go func() {
		defer wg.Done()
		_, _ = f.service.ExpireOldConsents(context.Background())
	}()
	wg.Wait()

	// Whichever side of the race lost, the token is past its window, so the
	// accept must not have activated and the terminal state is EXPIRED.
	require.Error(t, acceptErr)
	assert.True(t, errors.Is(acceptErr, models.ErrExpired) || errors.Is(acceptErr, models.ErrIllegalState),
		"got %v", acceptErr)

	reloaded, err := f.service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, reloaded.Status)
	afterDefender, err := f.defenders.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, afterDefender.CurrentCaseload)
}

func TestHasDefenderAccess(t *testing.T) {
	f := newFixture(t)
	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	assert.False(t, f.service.HasDefenderAccess(context.Background(), defender.ID, "debtor-1"),
		"pending consent does not grant access")

	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)
	assert.True(t, f.service.HasDefenderAccess(context.Background(), defender.ID, "debtor-1"))
	assert.False(t, f.service.HasDefenderAccess(context.Background(), defender.ID, "debtor-2"))

	_, err = f.service.CompleteAssignment(context.Background(), created.ID, "", "staff-1")
	require.NoError(t, err)
	assert.False(t, f.service.HasDefenderAccess(context.Background(), defender.ID, "debtor-1"),
		"completed assignment revokes access")
}

// hookedAssignmentDatabase runs onUpdate after each persisted update so tests
// can interleave work at an exact point in a workflow.
type hookedAssignmentDatabase struct {
	databases.AssignmentDatabase
	onUpdate func(*models.DefenderAssignment)
}

func (h *hookedAssignmentDatabase) Update(ctx context.Context, assignment *models.DefenderAssignment) error {
	err := h.AssignmentDatabase.Update(ctx, assignment)
	if err == nil && h.onUpdate != nil {
		h.onUpdate(assignment)
	}
	return err
}

func TestTransferAssignment_ConcurrentCreateCannotReopenPair(t *testing.T) {
	defenders := databases.NewMemoryDefenderDatabase()
	assignments := &hookedAssignmentDatabase{AssignmentDatabase: databases.NewMemoryAssignmentDatabase()}
	service := NewService(defenders, assignments, databases.NewMemoryAssignmentHistoryDatabase(), nil)
	f := &fixture{service: service, defenders: defenders}

	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	spare := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	// Fire a create for the same pair the moment the source is persisted as
	// TRANSFERRED, inside the window before the successor exists. It must not
	// slip a second open assignment in for the pair.
	createErr := make(chan error, 1)
	var once sync.Once
	assignments.onUpdate = func(a *models.DefenderAssignment) {
		if a.Status != models.AssignmentTransferred {
			return
		}
		once.Do(func() {
			done := make(chan error, 1)
			go func() {
				_, err := service.CreateAssignment(context.Background(), "debtor-1", "case-1", "staff-1", spare.ID)
				done <- err
			}()
			select {
			case err := <-done:
				createErr <- err
			case <-time.After(50 * time.Millisecond):
				// Held off by the pair lock; it resolves once the
				// transfer finishes.
				go func() { createErr <- <-done }()
			}
		})
	}

	successor, err := service.TransferAssignment(context.Background(), created.ID, target.ID, "workload", "staff-1")
	require.NoError(t, err)

	assert.ErrorIs(t, <-createErr, models.ErrConflict, "the pair already has an open assignment")

	open, err := assignments.FindOpenByPair(context.Background(), "debtor-1", "case-1")
	require.NoError(t, err)
	assert.Equal(t, successor.ID, open.ID, "the successor is the only open assignment for the pair")
}

// gatedDefenderDatabase parks the next FindOne after the gate is set, holding
// a caller inside its read-modify-write cycle.
type gatedDefenderDatabase struct {
	databases.DefenderDatabase
	mu   sync.Mutex
	gate chan struct{}
}

func (g *gatedDefenderDatabase) parkNextRead(gate chan struct{}) {
	g.mu.Lock()
	g.gate = gate
	g.mu.Unlock()
}

func (g *gatedDefenderDatabase) FindOne(ctx context.Context, id string) (*models.DefenderProfile, error) {
	profile, err := g.DefenderDatabase.FindOne(ctx, id)
	g.mu.Lock()
	gate := g.gate
	g.gate = nil
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return profile, err
}

func TestProcessConsent_SerializesWithOnboardingSuspend(t *testing.T) {
	memory := databases.NewMemoryDefenderDatabase()
	gated := &gatedDefenderDatabase{DefenderDatabase: memory}
	service := NewService(gated, databases.NewMemoryAssignmentDatabase(), databases.NewMemoryAssignmentHistoryDatabase(), nil)
	lifecycle := onboarding.NewService(gated)
	f := &fixture{service: service, defenders: memory}

	defender := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, defender.ID, "debtor-1", "case-1")

	// The suspension reads the profile first and is held there mid-cycle
	// while a consent accept races it. Whichever side wins the profile lock,
	// the loser must see the winner's write rather than overwrite it.
	gate := make(chan struct{})
	gated.parkNextRead(gate)

	suspendDone := make(chan error, 1)
	go func() {
		_, err := lifecycle.Transition(context.Background(), defender.ID, models.EventSuspend, onboarding.Metadata{Actor: "staff-1", Reason: "audit"})
		suspendDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	acceptDone := make(chan error, 1)
	go func() {
		_, err := service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
		acceptDone <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(gate)

	require.NoError(t, <-suspendDone)
	acceptErr := <-acceptDone

	reloaded, err := memory.FindOne(context.Background(), defender.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OnboardingSuspended, reloaded.OnboardingStatus)
	if acceptErr == nil {
		assert.Equal(t, 1, reloaded.CurrentCaseload, "suspension must not erase the caseload increment")
	} else {
		assert.ErrorIs(t, acceptErr, models.ErrNoCapacity)
		assert.Equal(t, 0, reloaded.CurrentCaseload)
	}
}

type failingDefenderUpdates struct {
	databases.DefenderDatabase
	failID string
}

func (f *failingDefenderUpdates) Update(ctx context.Context, profile *models.DefenderProfile) error {
	if profile.ID == f.failID {
		return errors.New("write rejected")
	}
	return f.DefenderDatabase.Update(ctx, profile)
}

func TestTransferAssignment_CaseloadWriteFailureLeavesAssignmentsUntouched(t *testing.T) {
	memory := databases.NewMemoryDefenderDatabase()
	flaky := &failingDefenderUpdates{DefenderDatabase: memory}
	service := NewService(flaky, databases.NewMemoryAssignmentDatabase(), databases.NewMemoryAssignmentHistoryDatabase(), nil)
	f := &fixture{service: service, defenders: memory}

	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	flaky.failID = target.ID
	_, err = service.TransferAssignment(context.Background(), created.ID, target.ID, "workload", "staff-1")
	require.Error(t, err)

	original, err := service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, original.Status, "aborted transfer leaves the source assignment open")
	assert.Empty(t, original.TransferredTo)

	reloadedSource, err := memory.FindOne(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedSource.CurrentCaseload, "aborted transfer restores the source caseload")
	reloadedTarget, err := memory.FindOne(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadedTarget.CurrentCaseload)
}

type failingAssignmentInserts struct {
	databases.AssignmentDatabase
	fail bool
}

func (f *failingAssignmentInserts) Insert(ctx context.Context, assignment *models.DefenderAssignment) error {
	if f.fail {
		return errors.New("write rejected")
	}
	return f.AssignmentDatabase.Insert(ctx, assignment)
}

func TestTransferAssignment_SuccessorInsertFailureRestoresCaseloads(t *testing.T) {
	defenders := databases.NewMemoryDefenderDatabase()
	assignments := &failingAssignmentInserts{AssignmentDatabase: databases.NewMemoryAssignmentDatabase()}
	service := NewService(defenders, assignments, databases.NewMemoryAssignmentHistoryDatabase(), nil)
	f := &fixture{service: service, defenders: defenders}

	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)

	assignments.fail = true
	_, err = service.TransferAssignment(context.Background(), created.ID, target.ID, "workload", "staff-1")
	require.Error(t, err)

	original, err := service.GetAssignment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, original.Status)

	reloadedSource, err := defenders.FindOne(context.Background(), source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedSource.CurrentCaseload)
	reloadedTarget, err := defenders.FindOne(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloadedTarget.CurrentCaseload)
}

func TestHistory_AppendsEveryTransition(t *testing.T) {
	f := newFixture(t)
	source := f.seedDefender(t, 5, 0)
	target := f.seedDefender(t, 5, 0)
	created, token := f.pendingAssignment(t, source.ID, "debtor-1", "case-1")
	_, err := f.service.ProcessConsent(context.Background(), created.ID, "debtor-1", token, true, "")
	require.NoError(t, err)
	successor, err := f.service.TransferAssignment(context.Background(), created.ID, target.ID, "workload", "staff-1")
	require.NoError(t, err)

	history, err := f.service.GetHistory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.AssignmentPendingConsent, history[0].NewStatus)
	assert.Equal(t, models.AssignmentActive, history[1].NewStatus)
	assert.Equal(t, models.AssignmentPendingConsent, history[1].PreviousStatus)
	assert.Equal(t, models.AssignmentTransferred, history[2].NewStatus)

	successorHistory, err := f.service.GetHistory(context.Background(), successor.ID)
	require.NoError(t, err)
	require.Len(t, successorHistory, 1)
	assert.Equal(t, models.AssignmentActive, successorHistory[0].NewStatus)
}
