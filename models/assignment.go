package models

import "time"

// AssignmentStatus is a state in the assignment lifecycle.
type AssignmentStatus string

// Assignment lifecycle states
const (
	AssignmentRequested      AssignmentStatus = "REQUESTED"
	AssignmentPendingConsent AssignmentStatus = "PENDING_CONSENT"
	AssignmentActive         AssignmentStatus = "ACTIVE"
	AssignmentCompleted      AssignmentStatus = "COMPLETED"
	AssignmentTransferred    AssignmentStatus = "TRANSFERRED"
	AssignmentDeclined       AssignmentStatus = "DECLINED"
	AssignmentExpired        AssignmentStatus = "EXPIRED"
)

// Open reports whether the assignment still occupies the (debtor, case) pair.
// At most one open assignment may exist per pair at any time.
func (s AssignmentStatus) Open() bool {
	return s == AssignmentRequested || s == AssignmentPendingConsent || s == AssignmentActive
}

// AwaitingConsent reports whether the assignment can still be accepted or
// declined by the debtor.
func (s AssignmentStatus) AwaitingConsent() bool {
	return s == AssignmentRequested || s == AssignmentPendingConsent
}

// DefenderAssignment holds the structure for the assignments collection: the
// consent-backed link between one defender and one debtor's case.
type DefenderAssignment struct {
	ID          string           `json:"_id" bson:"_id"`
	DefenderID  string           `json:"defenderID" bson:"defenderID"`
	DebtorID    string           `json:"debtorID" bson:"debtorID"`
	CaseID      string           `json:"caseID" bson:"caseID"`
	Status      AssignmentStatus `json:"status" bson:"status"`
	RequestedBy string           `json:"requestedBy" bson:"requestedBy"`

	// Single-use consent grant; present only while the assignment awaits
	// consent, cleared on redemption, decline or expiry.
	ConsentToken     string     `json:"-" bson:"consentToken,omitempty"`
	ConsentExpiresAt *time.Time `json:"consentExpiresAt,omitempty" bson:"consentExpiresAt,omitempty"`

	DebtorConsentedAt *time.Time `json:"debtorConsentedAt,omitempty" bson:"debtorConsentedAt,omitempty"`
	AssignedAt        *time.Time `json:"assignedAt,omitempty" bson:"assignedAt,omitempty"`
	DeclineReason     string     `json:"declineReason,omitempty" bson:"declineReason,omitempty"`

	CompletedAt      *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CompletionReason string     `json:"completionReason,omitempty" bson:"completionReason,omitempty"`

	// TransferredTo is the id of the successor assignment, set only when the
	// status is TRANSFERRED.
	TransferredTo string `json:"transferredTo,omitempty" bson:"transferredTo,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AssignmentHistory holds one immutable record in the assignmentHistory
// collection, appended on every assignment status change.
type AssignmentHistory struct {
	ID             string           `json:"_id" bson:"_id"`
	AssignmentID   string           `json:"assignmentID" bson:"assignmentID"`
	PreviousStatus AssignmentStatus `json:"previousStatus" bson:"previousStatus"`
	NewStatus      AssignmentStatus `json:"newStatus" bson:"newStatus"`
	Actor          string           `json:"actor" bson:"actor"`
	Reason         string           `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt      time.Time        `json:"createdAt" bson:"createdAt"`
}
