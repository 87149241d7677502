// Package handlers wires the HTTP surface: one thin handler struct per
// resource, each delegating to a domain service and mapping its sentinel
// errors to status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/assignment"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/databases"
	"github.com/clearslate/defender-api/envelope"
	"github.com/clearslate/defender-api/messaging"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/notifier"
	"github.com/clearslate/defender-api/onboarding"
	"github.com/clearslate/defender-api/tone"
	"github.com/clearslate/defender-api/verification"
)

// App stores the router, config and wired services so they can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	dbHelper databases.DatabaseHelper

	Onboarding   *onboarding.Service
	Verification *verification.Service
	Assignments  *assignment.Service
	Messaging    *messaging.Service
	Hub          *notifier.Hub
	Accounts     databases.AccountDatabase
	SweepLocks   databases.SweepLockDatabase
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	m := api.MiddlewareDB{DB: a.Accounts}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	d := Defender{Onboarding: a.Onboarding, Accounts: a.Accounts}
	cred := Credential{Verification: a.Verification}
	asg := Assignment{Service: a.Assignments}
	msg := Message{Service: a.Messaging}
	att := Attachment{Service: a.Messaging, BaseURL: a.Config.BaseURL}

	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/defender", api.Middleware(http.HandlerFunc(d.CreateDefenderHandler))).Methods("POST")
	apiCreate.Handle("/defender/{defender_id}", api.Middleware(http.HandlerFunc(d.DefenderByIDHandler))).Methods("GET")
	apiCreate.Handle("/defender/{defender_id}/events", api.Middleware(http.HandlerFunc(d.TransitionHandler))).Methods("POST")

	apiCreate.Handle("/defender/{defender_id}/credentials", api.Middleware(http.HandlerFunc(cred.UploadCredentialHandler))).Methods("POST")
	apiCreate.Handle("/defender/{defender_id}/credentials", api.Middleware(http.HandlerFunc(cred.ListCredentialsHandler))).Methods("GET")
	apiCreate.Handle("/defender/{defender_id}/credentials/{credential_id}", api.Middleware(http.HandlerFunc(cred.DeleteCredentialHandler))).Methods("DELETE")
	apiCreate.Handle("/defender/{defender_id}/verification", api.Middleware(http.HandlerFunc(cred.ProcessVerificationHandler))).Methods("POST")

	apiCreate.Handle("/assignments", api.Middleware(http.HandlerFunc(asg.CreateAssignmentHandler))).Methods("POST")
	apiCreate.Handle("/assignments/{assignment_id}", api.Middleware(http.HandlerFunc(asg.AssignmentByIDHandler))).Methods("GET")
	apiCreate.Handle("/assignments/{assignment_id}/consent", api.Middleware(http.HandlerFunc(asg.ConsentHandler))).Methods("POST")
	apiCreate.Handle("/assignments/{assignment_id}/transfer", api.Middleware(http.HandlerFunc(asg.TransferHandler))).Methods("POST")
	apiCreate.Handle("/assignments/{assignment_id}/complete", api.Middleware(http.HandlerFunc(asg.CompleteHandler))).Methods("POST")
	apiCreate.Handle("/assignments/{assignment_id}/history", api.Middleware(http.HandlerFunc(asg.HistoryHandler))).Methods("GET")

	apiCreate.Handle("/assignments/{assignment_id}/messages", api.Middleware(http.HandlerFunc(msg.SendMessageHandler))).Methods("POST")
	apiCreate.Handle("/assignments/{assignment_id}/messages", api.Middleware(http.HandlerFunc(msg.GetMessagesHandler))).Methods("GET")
	apiCreate.Handle("/messages/{message_id}/tone", api.Middleware(http.HandlerFunc(msg.MessageToneHandler))).Methods("GET")
	apiCreate.Handle("/messages/{message_id}/read", api.Middleware(http.HandlerFunc(msg.MarkAsReadHandler))).Methods("PUT")
	apiCreate.Handle("/assignments/{assignment_id}/audit", api.Middleware(http.HandlerFunc(msg.AuditTrailHandler))).Methods("GET")

	apiCreate.Handle("/assignments/{assignment_id}/attachments", api.Middleware(http.HandlerFunc(att.UploadAttachmentHandler))).Methods("POST")
	apiCreate.Handle("/attachments/{attachment_id}", api.Middleware(http.HandlerFunc(att.DeleteAttachmentHandler))).Methods("DELETE")
	apiCreate.Handle("/attachments/{attachment_id}/download-url", api.Middleware(http.HandlerFunc(att.DownloadURLHandler))).Methods("GET")
	apiCreate.Handle("/attachments/download", api.Middleware(http.HandlerFunc(att.DownloadHandler))).Methods("GET")

	r.HandleFunc("/ws/notifications", a.Hub.HandleWebSocket)

	return r
}

// Initialize is invoked by main to connect with the database and wire the
// services behind the router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("defender-api has connected to the database")

	sealer, err := envelope.NewLocalKeyProvider(a.Config.EnvelopeMasterKey)
	if err != nil {
		zap.S().With(err).Error("envelope master key rejected")
		return err
	}

	var classifier tone.Classifier = tone.NewKeyword()
	if a.Config.ToneAPIURL != "" {
		classifier = tone.NewRemote(a.Config.ToneAPIURL, a.Config.ToneAPIKey, a.Config.ToneTimeout)
	}

	defenders := databases.NewDefenderDatabase(a.dbHelper)
	credentials := databases.NewCredentialDatabase(a.dbHelper)
	assignments := databases.NewAssignmentDatabase(a.dbHelper)
	history := databases.NewAssignmentHistoryDatabase(a.dbHelper)
	messages := databases.NewMessageDatabase(a.dbHelper)
	audits := databases.NewMessageAuditDatabase(a.dbHelper)
	attachments := databases.NewAttachmentDatabase(a.dbHelper)
	tones := databases.NewToneDatabase(a.dbHelper)

	a.Accounts = databases.NewAccountDatabase(a.dbHelper)
	a.SweepLocks = databases.NewSweepLockDatabase(a.dbHelper)
	a.Hub = notifier.NewHub()
	mailer := notifier.NewEmail(a.Config.BaseURL)

	a.Onboarding = onboarding.NewService(defenders)
	a.Verification = verification.NewService(defenders, credentials, a.Onboarding, sealer, mailer)
	a.Verification.MaxBytes = a.Config.MaxUploadBytes

	a.Assignments = assignment.NewService(defenders, assignments, history, mailer)
	a.Assignments.ConsentTTL = a.Config.ConsentTTL

	a.Messaging = messaging.NewService(assignments, messages, audits, attachments, tones, sealer, classifier, a.Hub)
	a.Messaging.MaxBytes = a.Config.MaxUploadBytes
	a.Messaging.ToneBlocksSend = a.Config.ToneBlocksSend
	a.Messaging.DownloadSigningKey = a.Config.DownloadSigningKey
	a.Messaging.DownloadTTL = a.Config.DownloadTTL

	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// statusFromError maps the domain sentinel errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrExpired):
		return http.StatusGone
	case errors.Is(err, models.ErrIllegalState),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrNoCapacity),
		errors.Is(err, models.ErrCaseloadUnderflow):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrUnsafeContent),
		errors.Is(err, models.ErrToneBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// serviceError logs and writes the mapped status for a domain error.
func serviceError(message string, w http.ResponseWriter, err error) {
	config.ErrorStatus(message, statusFromError(err), w, err)
}
