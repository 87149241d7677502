// Package verification handles defender credential uploads and review,
// driving the onboarding machine as documents arrive and get approved or
// rejected.
package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/envelope"
	"github.com/clearslate/defender-api/ids"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/onboarding"
)

// MaxUploadBytes is the default ceiling for one credential document.
const MaxUploadBytes = 10 << 20

// allowedMimeTypes is the upload allow-list.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// Mailer delivers review-outcome email. Failures are logged, never returned.
type Mailer interface {
	SendVerificationOutcome(email, name string, approved bool, reason string)
}

// Service implements the credential verification workflow.
type Service struct {
	Defenders   databases.DefenderDatabase
	Credentials databases.CredentialDatabase
	Onboarding  *onboarding.Service
	Sealer      envelope.Provider
	Mailer      Mailer

	// MaxBytes overrides MaxUploadBytes when set.
	MaxBytes int64
}

// NewService creates a verification service.
func NewService(defenders databases.DefenderDatabase, credentials databases.CredentialDatabase, ob *onboarding.Service, sealer envelope.Provider, mailer Mailer) *Service {
	return &Service{
		Defenders:   defenders,
		Credentials: credentials,
		Onboarding:  ob,
		Sealer:      sealer,
		Mailer:      mailer,
		MaxBytes:    MaxUploadBytes,
	}
}

// UploadCredential validates and stores one document for a defender. When the
// upload completes the set of required credential types, and the defender is
// still REGISTERED, the onboarding machine advances to CREDENTIALS_SUBMITTED.
func (s *Service) UploadCredential(ctx context.Context, defenderID string, credType models.CredentialType, fileName, mimeType string, content []byte) (*models.Credential, error) {
	if !allowedMimeTypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedMediaType, mimeType)
	}
	if int64(len(content)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", models.ErrPayloadTooLarge, len(content))
	}

	defender, err := s.Defenders.FindOne(ctx, defenderID)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(content)
	sealed, err := s.Sealer.Seal(content)
	if err != nil {
		return nil, fmt.Errorf("seal credential payload: %w", err)
	}

	credential := &models.Credential{
		ID:          ids.New(),
		DefenderID:  defenderID,
		Type:        credType,
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   int64(len(content)),
		ContentHash: hex.EncodeToString(hash[:]),
		Payload:     sealed,
		CreatedAt:   time.Now(),
	}
	if err := s.Credentials.Insert(ctx, credential); err != nil {
		return nil, err
	}

	// Side effect only: a failed auto-submit never fails the upload.
	if defender.OnboardingStatus == models.OnboardingRegistered {
		complete, err := s.requiredTypesOnFile(ctx, defenderID)
		if err != nil {
			zap.S().Errorw("failed to check required credential types", "error", err, "defenderID", defenderID)
		} else if complete {
			if _, err := s.Onboarding.Transition(ctx, defenderID, models.EventSubmitCredentials, onboarding.Metadata{Actor: defenderID}); err != nil {
				zap.S().Errorw("failed to auto-submit credentials", "error", err, "defenderID", defenderID)
			}
		}
	}

	return credential, nil
}

// ProcessVerification approves or rejects everything a defender has on file.
// Only legal while the defender sits in CREDENTIALS_SUBMITTED.
func (s *Service) ProcessVerification(ctx context.Context, defenderID string, approved bool, reviewerID, reason string) (*models.DefenderProfile, error) {
	defender, err := s.Defenders.FindOne(ctx, defenderID)
	if err != nil {
		return nil, err
	}
	if defender.OnboardingStatus != models.OnboardingCredentialsSubmitted {
		return nil, fmt.Errorf("%w: verification requires CREDENTIALS_SUBMITTED, have %s",
			models.ErrIllegalState, defender.OnboardingStatus)
	}

	credentials, err := s.Credentials.FindByDefender(ctx, defenderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range credentials {
		c := &credentials[i]
		if c.Verified() {
			continue
		}
		if approved {
			c.VerifiedAt = &now
			c.VerifiedBy = reviewerID
			c.RejectionReason = ""
		} else {
			c.RejectionReason = reason
		}
		if err := s.Credentials.Update(ctx, c); err != nil {
			return nil, err
		}
	}

	event := models.EventVerifyCredentials
	if !approved {
		event = models.EventRejectCredentials
	}
	profile, err := s.Onboarding.Transition(ctx, defenderID, event, onboarding.Metadata{Actor: reviewerID, Reason: reason})
	if err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		go s.Mailer.SendVerificationOutcome(profile.Email, profile.FirstName, approved, reason)
	}
	return profile, nil
}

// DeleteCredential removes an unverified credential owned by the caller.
// Verified credentials are immutable.
func (s *Service) DeleteCredential(ctx context.Context, defenderID, credentialID string) error {
	credential, err := s.Credentials.FindOne(ctx, credentialID)
	if err != nil {
		return err
	}
	if credential.DefenderID != defenderID {
		return fmt.Errorf("%w: credential belongs to another defender", models.ErrForbidden)
	}
	if credential.Verified() {
		return fmt.Errorf("%w: verified credentials may not be deleted", models.ErrIllegalState)
	}
	return s.Credentials.Delete(ctx, credentialID)
}

// ListCredentials returns everything a defender has on file.
func (s *Service) ListCredentials(ctx context.Context, defenderID string) ([]models.Credential, error) {
	if _, err := s.Defenders.FindOne(ctx, defenderID); err != nil {
		return nil, err
	}
	return s.Credentials.FindByDefender(ctx, defenderID)
}

// requiredTypesOnFile reports whether every required credential type has at
// least one non-rejected upload.
func (s *Service) requiredTypesOnFile(ctx context.Context, defenderID string) (bool, error) {
	credentials, err := s.Credentials.FindByDefender(ctx, defenderID)
	if err != nil {
		return false, err
	}
	onFile := make(map[models.CredentialType]bool)
	for _, c := range credentials {
		if c.RejectionReason == "" {
			onFile[c.Type] = true
		}
	}
	for _, required := range models.RequiredCredentialTypes {
		if !onFile[required] {
			return false, nil
		}
	}
	return true, nil
}
