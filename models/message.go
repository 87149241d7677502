package models

import "time"

// Envelope is an authenticated encryption envelope: ciphertext plus the IV,
// integrity tag and wrapped content key needed to open it. All fields are
// stored; none are usable without the provider's master key.
type Envelope struct {
	Ciphertext []byte `json:"ciphertext" bson:"ciphertext"`
	IV         []byte `json:"iv" bson:"iv"`
	Tag        []byte `json:"tag" bson:"tag"`
	WrappedKey []byte `json:"wrappedKey" bson:"wrappedKey"`
}

// SenderRole identifies which party of an assignment authored a message.
type SenderRole string

// Sender roles. Creditor-side roles are disallowed from this channel.
const (
	RoleDefender SenderRole = "DEFENDER"
	RoleDebtor   SenderRole = "DEBTOR"
	RoleCreditor SenderRole = "CREDITOR"
)

// ContentKind distinguishes message payload types.
type ContentKind string

// Message content kinds
const (
	ContentText   ContentKind = "TEXT"
	ContentFile   ContentKind = "FILE"
	ContentSystem ContentKind = "SYSTEM"
)

// Message holds the structure for the messages collection. Content is sealed
// before storage and immutable once created; only ReadAt mutates.
type Message struct {
	ID           string      `json:"_id" bson:"_id"`
	AssignmentID string      `json:"assignmentID" bson:"assignmentID"`
	SenderID     string      `json:"senderID" bson:"senderID"`
	SenderRole   SenderRole  `json:"senderRole" bson:"senderRole"`
	Kind         ContentKind `json:"kind" bson:"kind"`
	Content      Envelope    `json:"-" bson:"content"`
	AttachmentID string      `json:"attachmentID,omitempty" bson:"attachmentID,omitempty"`

	// ToneClassificationID references the stored classifier result for
	// defender-authored messages. Omitted from list views.
	ToneClassificationID string `json:"-" bson:"toneClassificationID,omitempty"`

	ReadAt    *time.Time `json:"readAt,omitempty" bson:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// DecryptedMessage is the read-side view of a message, produced by opening the
// envelope on the way out. Never persisted.
type DecryptedMessage struct {
	ID           string      `json:"_id"`
	AssignmentID string      `json:"assignmentID"`
	SenderID     string      `json:"senderID"`
	SenderRole   SenderRole  `json:"senderRole"`
	Kind         ContentKind `json:"kind"`
	Content      string      `json:"content"`
	AttachmentID string      `json:"attachmentID,omitempty"`
	ReadAt       *time.Time  `json:"readAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// AuditAction identifies a compliance-relevant messaging event.
type AuditAction string

// Audit actions
const (
	AuditSent                 AuditAction = "SENT"
	AuditRead                 AuditAction = "READ"
	AuditAttachmentUploaded   AuditAction = "ATTACHMENT_UPLOADED"
	AuditAttachmentDownloaded AuditAction = "ATTACHMENT_DOWNLOADED"
)

// MessageAudit holds one append-only record in the messageAudit collection.
// Rows are never mutated or deleted.
type MessageAudit struct {
	ID           string            `json:"_id" bson:"_id"`
	MessageID    string            `json:"messageID,omitempty" bson:"messageID,omitempty"`
	AssignmentID string            `json:"assignmentID" bson:"assignmentID"`
	Action       AuditAction       `json:"action" bson:"action"`
	Actor        string            `json:"actor" bson:"actor"`
	Metadata     map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
}

// Attachment holds the structure for the attachments collection. The payload
// is sealed with the same envelope scheme as message bodies. An attachment is
// deletable by its uploader only until it is linked to a sent message.
type Attachment struct {
	ID           string   `json:"_id" bson:"_id"`
	AssignmentID string   `json:"assignmentID" bson:"assignmentID"`
	UploaderID   string   `json:"uploaderID" bson:"uploaderID"`
	FileName     string   `json:"fileName" bson:"fileName"`
	MimeType     string   `json:"mimeType" bson:"mimeType"`
	SizeBytes    int64    `json:"sizeBytes" bson:"sizeBytes"`
	ContentHash  string   `json:"contentHash" bson:"contentHash"`
	Payload      Envelope `json:"-" bson:"payload"`

	// MessageID is set when the attachment is linked to a sent message,
	// after which it becomes immutable.
	MessageID string `json:"messageID,omitempty" bson:"messageID,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
