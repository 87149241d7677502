package models

import "time"

// CredentialType identifies the kind of document a defender uploaded.
type CredentialType string

// Credential types. BarCard and PhotoID are required before a defender can
// submit for review; the rest are supporting documents.
const (
	CredentialBarCard     CredentialType = "BAR_CARD"
	CredentialPhotoID     CredentialType = "PHOTO_ID"
	CredentialOrgLetter   CredentialType = "ORG_LETTER"
	CredentialInsurance   CredentialType = "MALPRACTICE_INSURANCE"
	CredentialCertificate CredentialType = "CERTIFICATE"
)

// RequiredCredentialTypes must all be on file before SUBMIT_CREDENTIALS fires.
var RequiredCredentialTypes = []CredentialType{CredentialBarCard, CredentialPhotoID}

// Credential holds the structure for the credentials collection. A rejected
// credential is superseded by a fresh upload; a verified credential is
// immutable and may not be deleted.
type Credential struct {
	ID         string         `json:"_id" bson:"_id"`
	DefenderID string         `json:"defenderID" bson:"defenderID"`
	Type       CredentialType `json:"type" bson:"type"`
	FileName   string         `json:"fileName" bson:"fileName"`
	MimeType   string         `json:"mimeType" bson:"mimeType"`
	SizeBytes  int64          `json:"sizeBytes" bson:"sizeBytes"`

	// SHA-256 of the uploaded bytes, for integrity and dedup.
	ContentHash string `json:"contentHash" bson:"contentHash"`

	// Sealed document payload. Plaintext never persists.
	Payload Envelope `json:"-" bson:"payload"`

	VerifiedAt      *time.Time `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	VerifiedBy      string     `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Verified reports whether the credential passed review.
func (c *Credential) Verified() bool { return c.VerifiedAt != nil }
