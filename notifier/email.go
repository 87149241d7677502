package notifier

import (
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	fromName    = "ClearSlate"
	fromAddress = "no-reply@clearslate.example.com"
)

// Email sends transactional mail through SendGrid. Callers invoke it from
// background goroutines; every method swallows failures after logging them.
type Email struct {
	// BaseURL prefixes consent links in outbound mail.
	BaseURL string

	// AddressFor resolves a party id to a deliverable address. When nil the
	// id itself is used, which suits tests and id-as-email deployments.
	AddressFor func(partyID string) (string, error)
}

// NewEmail returns a SendGrid-backed mailer.
func NewEmail(baseURL string) *Email {
	return &Email{BaseURL: baseURL}
}

// SendConsentRequest asks the debtor to accept or decline a proposed defender.
func (e *Email) SendConsentRequest(debtorID, defenderName, assignmentID, consentToken string, expiresAt time.Time) {
	defer logPanics("SendConsentRequest")

	address, err := e.resolve(debtorID)
	if err != nil {
		zap.S().Errorw("cannot resolve debtor address", "debtorID", debtorID, "error", err)
		return
	}

	link := fmt.Sprintf("%s/v1/assignments/%s/consent?token=%s", e.BaseURL, assignmentID, consentToken)
	plain := fmt.Sprintf(
		"%s has been proposed as your debt defender. Review and respond here: %s. This request expires on %s.",
		defenderName, link, expiresAt.Format("January 2, 2006"))
	html := fmt.Sprintf(
		`<p><strong>%s</strong> has been proposed as your debt defender.</p><p><a href="%s">Accept or decline</a> before %s.</p>`,
		defenderName, link, expiresAt.Format("January 2, 2006"))

	e.deliver(address, "A defender has been proposed for your case", plain, html)
}

// SendVerificationOutcome tells a defender how their credential review ended.
func (e *Email) SendVerificationOutcome(email, name string, approved bool, reason string) {
	defer logPanics("SendVerificationOutcome")

	subject := "Your defender credentials were approved"
	plain := fmt.Sprintf("Hi %s, your credentials were verified. You can continue onboarding now.", name)
	if !approved {
		subject = "Your defender credentials need attention"
		plain = fmt.Sprintf("Hi %s, your credentials were not approved: %s. You can resubmit corrected documents.", name, reason)
	}
	e.deliver(email, subject, plain, "<p>"+plain+"</p>")
}

func (e *Email) resolve(partyID string) (string, error) {
	if e.AddressFor == nil {
		return partyID, nil
	}
	return e.AddressFor(partyID)
}

func (e *Email) deliver(address, subject, plain, html string) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		zap.S().Errorw("SENDGRID_API_KEY not set, cannot send email", "to", address)
		return
	}

	from := mail.NewEmail(fromName, fromAddress)
	to := mail.NewEmail("", address)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send email", "to", address, "subject", subject, "error", err)
		return
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		zap.S().Infow("email sent", "to", address, "subject", subject, "statusCode", response.StatusCode)
	} else {
		zap.S().Errorw("email rejected", "to", address, "subject", subject, "statusCode", response.StatusCode, "body", response.Body)
	}
}

func logPanics(method string) {
	if r := recover(); r != nil {
		zap.S().Errorw("panic in mailer", "method", method, "panic", r)
	}
}
