package databases

// In-memory implementations of the store interfaces. They back local
// development and the service-level tests; production wiring uses the mongo
// implementations. Aggregates are copied on the way in and out so callers
// never share memory with the store.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clearslate/defender-api/models"
)

// MemoryDefenderDatabase implements DefenderDatabase with a mutex-guarded map.
type MemoryDefenderDatabase struct {
	mu       sync.RWMutex
	profiles map[string]models.DefenderProfile
}

// NewMemoryDefenderDatabase creates an empty in-memory defender store.
func NewMemoryDefenderDatabase() *MemoryDefenderDatabase {
	return &MemoryDefenderDatabase{profiles: make(map[string]models.DefenderProfile)}
}

// FindOne returns the profile with the given id.
func (m *MemoryDefenderDatabase) FindOne(_ context.Context, id string) (*models.DefenderProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := p
	return &out, nil
}

// FindByUserID returns the profile linked to the given platform user.
func (m *MemoryDefenderDatabase) FindByUserID(_ context.Context, userID string) (*models.DefenderProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

// FindAvailable returns profiles that are ACTIVE with an open caseload slot.
func (m *MemoryDefenderDatabase) FindAvailable(_ context.Context) ([]models.DefenderProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DefenderProfile
	for _, p := range m.profiles {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert stores a new profile.
func (m *MemoryDefenderDatabase) Insert(_ context.Context, profile *models.DefenderProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; ok {
		return models.ErrConflict
	}
	m.profiles[profile.ID] = *profile
	return nil
}

// Update replaces an existing profile.
func (m *MemoryDefenderDatabase) Update(_ context.Context, profile *models.DefenderProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; !ok {
		return models.ErrNotFound
	}
	m.profiles[profile.ID] = *profile
	return nil
}

// MemoryCredentialDatabase implements CredentialDatabase in memory.
type MemoryCredentialDatabase struct {
	mu          sync.RWMutex
	credentials map[string]models.Credential
}

// NewMemoryCredentialDatabase creates an empty in-memory credential store.
func NewMemoryCredentialDatabase() *MemoryCredentialDatabase {
	return &MemoryCredentialDatabase{credentials: make(map[string]models.Credential)}
}

// FindOne returns the credential with the given id.
func (m *MemoryCredentialDatabase) FindOne(_ context.Context, id string) (*models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.credentials[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := c
	return &out, nil
}

// FindByDefender returns all credentials owned by the defender.
func (m *MemoryCredentialDatabase) FindByDefender(_ context.Context, defenderID string) ([]models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Credential
	for _, c := range m.credentials {
		if c.DefenderID == defenderID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert stores a new credential.
func (m *MemoryCredentialDatabase) Insert(_ context.Context, credential *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[credential.ID] = *credential
	return nil
}

// Update replaces an existing credential.
func (m *MemoryCredentialDatabase) Update(_ context.Context, credential *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credentials[credential.ID]; !ok {
		return models.ErrNotFound
	}
	m.credentials[credential.ID] = *credential
	return nil
}

// Delete removes a credential.
func (m *MemoryCredentialDatabase) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.credentials, id)
	return nil
}

// MemoryAssignmentDatabase implements AssignmentDatabase in memory.
type MemoryAssignmentDatabase struct {
	mu          sync.RWMutex
	assignments map[string]models.DefenderAssignment
}

// NewMemoryAssignmentDatabase creates an empty in-memory assignment store.
func NewMemoryAssignmentDatabase() *MemoryAssignmentDatabase {
	return &MemoryAssignmentDatabase{assignments: make(map[string]models.DefenderAssignment)}
}

// FindOne returns the assignment with the given id.
func (m *MemoryAssignmentDatabase) FindOne(_ context.Context, id string) (*models.DefenderAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := a
	return &out, nil
}

// FindOpenByPair returns the open assignment for a (debtor, case) pair.
func (m *MemoryAssignmentDatabase) FindOpenByPair(_ context.Context, debtorID, caseID string) (*models.DefenderAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.DebtorID == debtorID && a.CaseID == caseID && a.Status.Open() {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

// FindActiveByParties returns the ACTIVE assignment linking both parties.
func (m *MemoryAssignmentDatabase) FindActiveByParties(_ context.Context, defenderID, debtorID string) (*models.DefenderAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.DefenderID == defenderID && a.DebtorID == debtorID && a.Status == models.AssignmentActive {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

// FindByDefender returns all assignments for a defender.
func (m *MemoryAssignmentDatabase) FindByDefender(_ context.Context, defenderID string) ([]models.DefenderAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DefenderAssignment
	for _, a := range m.assignments {
		if a.DefenderID == defenderID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindExpiredPending returns consent-pending assignments whose grant lapsed.
func (m *MemoryAssignmentDatabase) FindExpiredPending(_ context.Context, now time.Time) ([]models.DefenderAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DefenderAssignment
	for _, a := range m.assignments {
		if a.Status.AwaitingConsent() && a.ConsentExpiresAt != nil && a.ConsentExpiresAt.Before(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Insert stores a new assignment.
func (m *MemoryAssignmentDatabase) Insert(_ context.Context, assignment *models.DefenderAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignment.ID]; ok {
		return models.ErrConflict
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

// Update replaces an existing assignment.
func (m *MemoryAssignmentDatabase) Update(_ context.Context, assignment *models.DefenderAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignment.ID]; !ok {
		return models.ErrNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

// MemoryAssignmentHistoryDatabase implements AssignmentHistoryDatabase in memory.
type MemoryAssignmentHistoryDatabase struct {
	mu      sync.RWMutex
	records []models.AssignmentHistory
}

// NewMemoryAssignmentHistoryDatabase creates an empty in-memory history store.
func NewMemoryAssignmentHistoryDatabase() *MemoryAssignmentHistoryDatabase {
	return &MemoryAssignmentHistoryDatabase{}
}

// Insert appends a history record.
func (m *MemoryAssignmentHistoryDatabase) Insert(_ context.Context, record *models.AssignmentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

// FindByAssignment returns the history rows of an assignment in append order.
func (m *MemoryAssignmentHistoryDatabase) FindByAssignment(_ context.Context, assignmentID string) ([]models.AssignmentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AssignmentHistory
	for _, r := range m.records {
		if r.AssignmentID == assignmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MemoryMessageDatabase implements MessageDatabase in memory.
type MemoryMessageDatabase struct {
	mu       sync.RWMutex
	messages map[string]models.Message
}

// NewMemoryMessageDatabase creates an empty in-memory message store.
func NewMemoryMessageDatabase() *MemoryMessageDatabase {
	return &MemoryMessageDatabase{messages: make(map[string]models.Message)}
}

// FindOne returns the message with the given id.
func (m *MemoryMessageDatabase) FindOne(_ context.Context, id string) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := msg
	return &out, nil
}

// FindByAssignment returns messages newest-first.
func (m *MemoryMessageDatabase) FindByAssignment(_ context.Context, assignmentID string, limit, offset int64) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.AssignmentID == assignmentID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Insert stores a new message.
func (m *MemoryMessageDatabase) Insert(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[message.ID] = *message
	return nil
}

// Update replaces an existing message.
func (m *MemoryMessageDatabase) Update(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[message.ID]; !ok {
		return models.ErrNotFound
	}
	m.messages[message.ID] = *message
	return nil
}

// MemoryMessageAuditDatabase implements MessageAuditDatabase in memory.
type MemoryMessageAuditDatabase struct {
	mu      sync.RWMutex
	records []models.MessageAudit
}

// NewMemoryMessageAuditDatabase creates an empty in-memory audit store.
func NewMemoryMessageAuditDatabase() *MemoryMessageAuditDatabase {
	return &MemoryMessageAuditDatabase{}
}

// Insert appends an audit record.
func (m *MemoryMessageAuditDatabase) Insert(_ context.Context, record *models.MessageAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

// FindByAssignment returns audit rows for an assignment in append order.
func (m *MemoryMessageAuditDatabase) FindByAssignment(_ context.Context, assignmentID string) ([]models.MessageAudit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MessageAudit
	for _, r := range m.records {
		if r.AssignmentID == assignmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MemoryAttachmentDatabase implements AttachmentDatabase in memory.
type MemoryAttachmentDatabase struct {
	mu          sync.RWMutex
	attachments map[string]models.Attachment
}

// NewMemoryAttachmentDatabase creates an empty in-memory attachment store.
func NewMemoryAttachmentDatabase() *MemoryAttachmentDatabase {
	return &MemoryAttachmentDatabase{attachments: make(map[string]models.Attachment)}
}

// FindOne returns the attachment with the given id.
func (m *MemoryAttachmentDatabase) FindOne(_ context.Context, id string) (*models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attachments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := a
	return &out, nil
}

// Insert stores a new attachment.
func (m *MemoryAttachmentDatabase) Insert(_ context.Context, attachment *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[attachment.ID] = *attachment
	return nil
}

// Update replaces an existing attachment.
func (m *MemoryAttachmentDatabase) Update(_ context.Context, attachment *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attachments[attachment.ID]; !ok {
		return models.ErrNotFound
	}
	m.attachments[attachment.ID] = *attachment
	return nil
}

// Delete removes an attachment.
func (m *MemoryAttachmentDatabase) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attachments, id)
	return nil
}

// MemoryToneDatabase implements ToneDatabase in memory.
type MemoryToneDatabase struct {
	mu              sync.RWMutex
	classifications map[string]models.ToneClassification
}

// NewMemoryToneDatabase creates an empty in-memory tone classification store.
func NewMemoryToneDatabase() *MemoryToneDatabase {
	return &MemoryToneDatabase{classifications: make(map[string]models.ToneClassification)}
}

// FindOne returns the classification with the given id.
func (m *MemoryToneDatabase) FindOne(_ context.Context, id string) (*models.ToneClassification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := c
	return &out, nil
}

// Insert stores a classification.
func (m *MemoryToneDatabase) Insert(_ context.Context, classification *models.ToneClassification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications[classification.ID] = *classification
	return nil
}

// MemorySweepLockDatabase implements SweepLockDatabase in memory.
type MemorySweepLockDatabase struct {
	mu    sync.Mutex
	locks map[string]sweepLock
}

// NewMemorySweepLockDatabase creates an empty in-memory sweep lock store.
func NewMemorySweepLockDatabase() *MemorySweepLockDatabase {
	return &MemorySweepLockDatabase{locks: make(map[string]sweepLock)}
}

// TryAcquireLock takes the named lock unless a live owner holds it.
func (m *MemorySweepLockDatabase) TryAcquireLock(_ context.Context, name, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if l, ok := m.locks[name]; ok && l.Owner != owner && l.ExpiresAt.After(now) {
		return false, nil
	}
	m.locks[name] = sweepLock{Name: name, Owner: owner, ExpiresAt: now.Add(ttl)}
	return true, nil
}

// ReleaseLock frees the named lock if held by the owner.
func (m *MemorySweepLockDatabase) ReleaseLock(_ context.Context, name, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[name]; ok && l.Owner == owner {
		delete(m.locks, name)
	}
	return nil
}

// MemoryAccountDatabase implements AccountDatabase in memory.
type MemoryAccountDatabase struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// NewMemoryAccountDatabase creates an empty in-memory account store.
func NewMemoryAccountDatabase() *MemoryAccountDatabase {
	return &MemoryAccountDatabase{accounts: make(map[string]models.Account)}
}

// FindOne returns the account with the given id.
func (m *MemoryAccountDatabase) FindOne(_ context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := a
	return &out, nil
}

// FindByEmail returns the account registered under the given email.
func (m *MemoryAccountDatabase) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Email == email {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

// Insert stores a new account.
func (m *MemoryAccountDatabase) Insert(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return models.ErrConflict
	}
	m.accounts[account.ID] = *account
	return nil
}
