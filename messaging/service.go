// Package messaging implements the encrypted channel between a defender and a
// debtor over an active assignment: tone-audited messages, sealed attachments,
// read receipts and the append-only compliance audit trail.
package messaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/envelope"
	"github.com/clearslate/defender-api/ids"
	"github.com/clearslate/defender-api/locks"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/tone"
)

// Attachment upload limits.
const (
	DefaultMaxUploadBytes = int64(10 << 20)
	scanWindowBytes       = 1024
)

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"text/plain":      true,
}

// scriptMarkers are byte sequences that mark executable content. Matching is
// case-insensitive over the first kilobyte of the upload.
var scriptMarkers = []string{"<script", "<?php", "#!"}

// Notifier pushes real-time events to channel participants. Fire-and-forget;
// delivery failures never affect message state.
type Notifier interface {
	NotifyNewMessage(recipientID, assignmentID, messageID string)
	NotifyMessageRead(senderID, assignmentID, messageID string)
}

// Service implements the messaging channel.
type Service struct {
	Assignments databases.AssignmentDatabase
	Messages    databases.MessageDatabase
	Audits      databases.MessageAuditDatabase
	Attachments databases.AttachmentDatabase
	Tones       databases.ToneDatabase
	Sealer      envelope.Provider
	Classifier  tone.Classifier
	Notifier    Notifier

	MaxBytes int64

	// ToneBlocksSend turns a block recommendation from advisory into a hard
	// send failure.
	ToneBlocksSend bool

	// DownloadSigningKey signs short-lived attachment download locators.
	DownloadSigningKey []byte
	DownloadTTL        time.Duration

	messageLocks    *locks.Keyed
	attachmentLocks *locks.Keyed
}

// NewService creates a messaging service.
func NewService(assignments databases.AssignmentDatabase, messages databases.MessageDatabase, audits databases.MessageAuditDatabase, attachments databases.AttachmentDatabase, tones databases.ToneDatabase, sealer envelope.Provider, classifier tone.Classifier, notifier Notifier) *Service {
	return &Service{
		Assignments:     assignments,
		Messages:        messages,
		Audits:          audits,
		Attachments:     attachments,
		Tones:           tones,
		Sealer:          sealer,
		Classifier:      classifier,
		Notifier:        notifier,
		MaxBytes:        DefaultMaxUploadBytes,
		DownloadTTL:     5 * time.Minute,
		messageLocks:    locks.NewKeyed(),
		attachmentLocks: locks.NewKeyed(),
	}
}

// SendMessage seals and stores a message on an active assignment.
// Defender-authored text runs through the tone classifier first; classifier
// outages degrade to sending unclassified rather than failing the send. The
// returned classification is non-nil only when one was recorded.
func (s *Service) SendMessage(ctx context.Context, assignmentID, senderID string, role models.SenderRole, kind models.ContentKind, content, attachmentID string) (*models.DecryptedMessage, *models.ToneClassification, error) {
	if role == models.RoleCreditor {
		return nil, nil, fmt.Errorf("%w: creditor-side parties have no access to this channel", models.ErrForbidden)
	}
	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if assignment.Status != models.AssignmentActive {
		return nil, nil, fmt.Errorf("%w: messaging requires an ACTIVE assignment, have %s", models.ErrIllegalState, assignment.Status)
	}
	if err := partyCheck(assignment, senderID, role); err != nil {
		return nil, nil, err
	}

	var attachment *models.Attachment
	if attachmentID != "" {
		s.attachmentLocks.Lock(attachmentID)
		defer s.attachmentLocks.Unlock(attachmentID)
		attachment, err = s.Attachments.FindOne(ctx, attachmentID)
		if err != nil {
			return nil, nil, err
		}
		if attachment.AssignmentID != assignmentID || attachment.UploaderID != senderID {
			return nil, nil, fmt.Errorf("%w: attachment does not belong to the sender on this assignment", models.ErrForbidden)
		}
		if attachment.MessageID != "" {
			return nil, nil, fmt.Errorf("%w: attachment already linked to message %s", models.ErrConflict, attachment.MessageID)
		}
		kind = models.ContentFile
	}

	var classification *models.ToneClassification
	if role == models.RoleDefender && kind != models.ContentSystem && content != "" {
		classification, err = s.classify(ctx, content)
		if err != nil {
			return nil, nil, err
		}
	}

	sealed, err := s.Sealer.Seal([]byte(content))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	message := &models.Message{
		ID:           ids.New(),
		AssignmentID: assignmentID,
		SenderID:     senderID,
		SenderRole:   role,
		Kind:         kind,
		Content:      sealed,
		AttachmentID: attachmentID,
		CreatedAt:    now,
	}
	if classification != nil {
		message.ToneClassificationID = classification.ID
	}
	if err := s.Messages.Insert(ctx, message); err != nil {
		return nil, nil, err
	}

	if classification != nil {
		classification.MessageID = message.ID
		if insertErr := s.Tones.Insert(ctx, classification); insertErr != nil {
			zap.S().Errorw("failed to store tone classification", "messageID", message.ID, "error", insertErr)
		}
	}
	if attachment != nil {
		attachment.MessageID = message.ID
		if linkErr := s.Attachments.Update(ctx, attachment); linkErr != nil {
			zap.S().Errorw("failed to link attachment to message", "attachmentID", attachmentID, "messageID", message.ID, "error", linkErr)
		}
	}

	s.appendAudit(ctx, message.ID, assignmentID, models.AuditSent, senderID, nil)
	if s.Notifier != nil {
		go s.Notifier.NotifyNewMessage(recipientOf(assignment, senderID), assignmentID, message.ID)
	}

	view := decryptedView(message, content)
	return view, classification, nil
}

// GetMessages returns a page of a channel's messages, newest first, with the
// envelopes opened. Tone classifications are never included here. Both parties
// keep read access after the assignment closes.
func (s *Service) GetMessages(ctx context.Context, assignmentID, callerID string, limit, offset int64) ([]models.DecryptedMessage, error) {
	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if callerID != assignment.DefenderID && callerID != assignment.DebtorID {
		return nil, fmt.Errorf("%w: caller is not a party to this assignment", models.ErrForbidden)
	}
	if limit <= 0 {
		limit = 50
	}

	messages, err := s.Messages.FindByAssignment(ctx, assignmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]models.DecryptedMessage, 0, len(messages))
	for i := range messages {
		plaintext, err := s.Sealer.Open(messages[i].Content)
		if err != nil {
			return nil, fmt.Errorf("opening message %s: %w", messages[i].ID, err)
		}
		views = append(views, *decryptedView(&messages[i], string(plaintext)))
	}
	return views, nil
}

// GetMessageTone returns the stored classification of a message. Only the
// sender may see it; recipients are never shown how their counterpart's
// messages scored.
func (s *Service) GetMessageTone(ctx context.Context, messageID, callerID string) (*models.ToneClassification, error) {
	message, err := s.Messages.FindOne(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != callerID {
		return nil, fmt.Errorf("%w: tone results are visible to the sender only", models.ErrForbidden)
	}
	if message.ToneClassificationID == "" {
		return nil, fmt.Errorf("%w: message was not classified", models.ErrNotFound)
	}
	return s.Tones.FindOne(ctx, message.ToneClassificationID)
}

// MarkAsRead stamps the read receipt. Only the recipient may mark; repeated
// calls are no-ops that keep the first timestamp.
func (s *Service) MarkAsRead(ctx context.Context, messageID, callerID string) (*models.Message, error) {
	s.messageLocks.Lock(messageID)
	defer s.messageLocks.Unlock(messageID)

	message, err := s.Messages.FindOne(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID == callerID {
		return nil, fmt.Errorf("%w: sender cannot mark their own message as read", models.ErrForbidden)
	}
	assignment, err := s.Assignments.FindOne(ctx, message.AssignmentID)
	if err != nil {
		return nil, err
	}
	if callerID != assignment.DefenderID && callerID != assignment.DebtorID {
		return nil, fmt.Errorf("%w: caller is not a party to this assignment", models.ErrForbidden)
	}
	if message.ReadAt != nil {
		return message, nil
	}

	now := time.Now()
	message.ReadAt = &now
	if err := s.Messages.Update(ctx, message); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, message.ID, message.AssignmentID, models.AuditRead, callerID, nil)
	if s.Notifier != nil {
		go s.Notifier.NotifyMessageRead(message.SenderID, message.AssignmentID, message.ID)
	}
	return message, nil
}

// UploadAttachment validates, scans and seals a file for later linking to a
// message. The upload belongs to its uploader until it is sent.
func (s *Service) UploadAttachment(ctx context.Context, assignmentID, uploaderID string, role models.SenderRole, fileName, mimeType string, payload []byte) (*models.Attachment, error) {
	if role == models.RoleCreditor {
		return nil, fmt.Errorf("%w: creditor-side parties have no access to this channel", models.ErrForbidden)
	}
	if !allowedAttachmentTypes[strings.ToLower(mimeType)] {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedMediaType, mimeType)
	}
	if int64(len(payload)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", models.ErrPayloadTooLarge, len(payload), s.MaxBytes)
	}
	if marker := findScriptMarker(payload); marker != "" {
		return nil, fmt.Errorf("%w: executable content marker %q", models.ErrUnsafeContent, marker)
	}

	assignment, err := s.Assignments.FindOne(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentActive {
		return nil, fmt.Errorf("%w: uploads require an ACTIVE assignment, have %s", models.ErrIllegalState, assignment.Status)
	}
	if err := partyCheck(assignment, uploaderID, role); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(payload)
	sealed, err := s.Sealer.Seal(payload)
	if err != nil {
		return nil, err
	}
	attachment := &models.Attachment{
		ID:           ids.New(),
		AssignmentID: assignmentID,
		UploaderID:   uploaderID,
		FileName:     fileName,
		MimeType:     mimeType,
		SizeBytes:    int64(len(payload)),
		ContentHash:  hex.EncodeToString(hash[:]),
		Payload:      sealed,
		CreatedAt:    time.Now(),
	}
	if err := s.Attachments.Insert(ctx, attachment); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, "", assignmentID, models.AuditAttachmentUploaded, uploaderID, map[string]string{
		"attachmentID": attachment.ID,
		"fileName":     fileName,
	})
	return attachment, nil
}

// DeleteAttachment removes an upload that has not been sent yet.
func (s *Service) DeleteAttachment(ctx context.Context, attachmentID, callerID string) error {
	s.attachmentLocks.Lock(attachmentID)
	defer s.attachmentLocks.Unlock(attachmentID)

	attachment, err := s.Attachments.FindOne(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.UploaderID != callerID {
		return fmt.Errorf("%w: only the uploader may delete an attachment", models.ErrForbidden)
	}
	if attachment.MessageID != "" {
		return fmt.Errorf("%w: attachment is linked to message %s", models.ErrIllegalState, attachment.MessageID)
	}
	return s.Attachments.Delete(ctx, attachmentID)
}

// AttachmentDownloadURL mints a signed single-attachment locator that expires
// after the configured TTL. The holder still has to pass the party check at
// download time.
func (s *Service) AttachmentDownloadURL(attachmentID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   attachmentID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.DownloadTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.DownloadSigningKey)
}

// DownloadAttachment verifies a locator, opens the payload envelope and logs
// the access.
func (s *Service) DownloadAttachment(ctx context.Context, locator, callerID string) ([]byte, *models.Attachment, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(locator, claims, func(t *jwt.Token) (interface{}, error) {
		return s.DownloadSigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fmt.Errorf("%w: download locator expired", models.ErrExpired)
		}
		return nil, nil, fmt.Errorf("%w: invalid download locator", models.ErrForbidden)
	}

	attachment, err := s.Attachments.FindOne(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.Assignments.FindOne(ctx, attachment.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	if callerID != assignment.DefenderID && callerID != assignment.DebtorID {
		return nil, nil, fmt.Errorf("%w: caller is not a party to this assignment", models.ErrForbidden)
	}

	plaintext, err := s.Sealer.Open(attachment.Payload)
	if err != nil {
		return nil, nil, err
	}
	s.appendAudit(ctx, attachment.MessageID, attachment.AssignmentID, models.AuditAttachmentDownloaded, callerID, map[string]string{
		"attachmentID": attachment.ID,
	})
	return plaintext, attachment, nil
}

// GetAuditTrail returns the channel's compliance log.
func (s *Service) GetAuditTrail(ctx context.Context, assignmentID string) ([]models.MessageAudit, error) {
	return s.Audits.FindByAssignment(ctx, assignmentID)
}

// classify runs the tone classifier, falling back to unclassified on outages.
// A block recommendation fails the send only when the gate is enabled.
func (s *Service) classify(ctx context.Context, content string) (*models.ToneClassification, error) {
	result, err := s.Classifier.Classify(ctx, content, models.RoleDefender)
	if err != nil {
		if errors.Is(err, models.ErrClassifierUnavailable) {
			zap.S().Warnw("tone classifier unavailable, sending unclassified", "error", err)
			return nil, nil
		}
		return nil, err
	}
	result.ID = ids.New()
	result.CreatedAt = time.Now()
	if result.Recommendation == models.ToneBlock && s.ToneBlocksSend {
		return nil, fmt.Errorf("%w: %s", models.ErrToneBlocked, strings.Join(result.Concerns, "; "))
	}
	return &result, nil
}

func (s *Service) appendAudit(ctx context.Context, messageID, assignmentID string, action models.AuditAction, actor string, metadata map[string]string) {
	record := &models.MessageAudit{
		ID:           ids.New(),
		MessageID:    messageID,
		AssignmentID: assignmentID,
		Action:       action,
		Actor:        actor,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}
	if err := s.Audits.Insert(ctx, record); err != nil {
		zap.S().Errorw("failed to append message audit", "assignmentID", assignmentID, "action", action, "error", err)
	}
}

// partyCheck verifies the caller is the assignment party their role claims.
func partyCheck(assignment *models.DefenderAssignment, callerID string, role models.SenderRole) error {
	switch role {
	case models.RoleDefender:
		if callerID != assignment.DefenderID {
			return fmt.Errorf("%w: caller is not the assignment's defender", models.ErrForbidden)
		}
	case models.RoleDebtor:
		if callerID != assignment.DebtorID {
			return fmt.Errorf("%w: caller is not the assignment's debtor", models.ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: unknown sender role %s", models.ErrForbidden, role)
	}
	return nil
}

func recipientOf(assignment *models.DefenderAssignment, senderID string) string {
	if senderID == assignment.DefenderID {
		return assignment.DebtorID
	}
	return assignment.DefenderID
}

func decryptedView(message *models.Message, content string) *models.DecryptedMessage {
	return &models.DecryptedMessage{
		ID:           message.ID,
		AssignmentID: message.AssignmentID,
		SenderID:     message.SenderID,
		SenderRole:   message.SenderRole,
		Kind:         message.Kind,
		Content:      content,
		AttachmentID: message.AttachmentID,
		ReadAt:       message.ReadAt,
		CreatedAt:    message.CreatedAt,
	}
}

func findScriptMarker(payload []byte) string {
	window := payload
	if len(window) > scanWindowBytes {
		window = window[:scanWindowBytes]
	}
	lowered := strings.ToLower(string(window))
	for _, marker := range scriptMarkers {
		if strings.Contains(lowered, marker) {
			return marker
		}
	}
	return ""
}
