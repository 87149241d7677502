package models

import "time"

// VerificationStatus tracks the credential review outcome for a defender.
type VerificationStatus string

// Verification statuses
const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// OnboardingStatus is a state in the defender onboarding lifecycle.
type OnboardingStatus string

// Onboarding lifecycle states
const (
	OnboardingInvited              OnboardingStatus = "INVITED"
	OnboardingRegistered           OnboardingStatus = "REGISTERED"
	OnboardingCredentialsSubmitted OnboardingStatus = "CREDENTIALS_SUBMITTED"
	OnboardingCredentialsVerified  OnboardingStatus = "CREDENTIALS_VERIFIED"
	OnboardingTrainingInProgress   OnboardingStatus = "TRAINING_IN_PROGRESS"
	OnboardingTermsPending         OnboardingStatus = "TERMS_PENDING"
	OnboardingActive               OnboardingStatus = "ACTIVE"
	OnboardingSuspended            OnboardingStatus = "SUSPENDED"
)

// OnboardingEvent drives a transition in the onboarding lifecycle.
type OnboardingEvent string

// Onboarding events
const (
	EventRegister          OnboardingEvent = "REGISTER"
	EventSubmitCredentials OnboardingEvent = "SUBMIT_CREDENTIALS"
	EventVerifyCredentials OnboardingEvent = "VERIFY_CREDENTIALS"
	EventRejectCredentials OnboardingEvent = "REJECT_CREDENTIALS"
	EventStartTraining     OnboardingEvent = "START_TRAINING"
	EventCompleteTraining  OnboardingEvent = "COMPLETE_TRAINING"
	EventAcceptTerms       OnboardingEvent = "ACCEPT_TERMS"
	EventSuspend           OnboardingEvent = "SUSPEND"
	EventReactivate        OnboardingEvent = "REACTIVATE"
)

// DefenderProfile holds the structure for the defenders collection. One profile
// exists per platform user; profiles are suspended, never deleted.
type DefenderProfile struct {
	ID                 string             `json:"_id" bson:"_id"`
	UserID             string             `json:"userID" bson:"userID"`
	FirstName          string             `json:"firstName" bson:"firstName"`
	LastName           string             `json:"lastName" bson:"lastName"`
	Email              string             `json:"email" bson:"email"`
	Phone              string             `json:"phone" bson:"phone"`
	BarNumber          string             `json:"barNumber,omitempty" bson:"barNumber,omitempty"`
	Organization       string             `json:"organization,omitempty" bson:"organization,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus" bson:"verificationStatus"`
	OnboardingStatus   OnboardingStatus   `json:"onboardingStatus" bson:"onboardingStatus"`

	// Caseload accounting. CurrentCaseload <= MaxCaseload is enforced when a
	// consent is accepted; transfers may briefly observe the boundary.
	MaxCaseload     int `json:"maxCaseload" bson:"maxCaseload"`
	CurrentCaseload int `json:"currentCaseload" bson:"currentCaseload"`

	VerifiedAt            *time.Time `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	VerifiedBy            string     `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	TrainingStartedAt     *time.Time `json:"trainingStartedAt,omitempty" bson:"trainingStartedAt,omitempty"`
	TrainingCompletedAt   *time.Time `json:"trainingCompletedAt,omitempty" bson:"trainingCompletedAt,omitempty"`
	TermsVersion          string     `json:"termsVersion,omitempty" bson:"termsVersion,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboardingCompletedAt,omitempty" bson:"onboardingCompletedAt,omitempty"`
	SuspendedAt           *time.Time `json:"suspendedAt,omitempty" bson:"suspendedAt,omitempty"`
	SuspensionReason      string     `json:"suspensionReason,omitempty" bson:"suspensionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasOpenSlot reports whether the defender can take one more active assignment.
func (d *DefenderProfile) HasOpenSlot() bool {
	return d.CurrentCaseload < d.MaxCaseload
}

// Eligible reports whether the defender may receive new assignments at all.
func (d *DefenderProfile) Eligible() bool {
	return d.OnboardingStatus == OnboardingActive && d.HasOpenSlot()
}
