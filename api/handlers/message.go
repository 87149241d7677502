package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/messaging"
	"github.com/clearslate/defender-api/models"
)

// Message exported for testing purposes
type Message struct {
	Service *messaging.Service
}

type sendMessageRequest struct {
	Content      string `json:"content"`
	AttachmentID string `json:"attachmentID"`
}

// SendMessageHandler posts a message into the assignment's channel. The
// sender's role comes from their account, never from the request body.
func (m Message) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	senderID, accountRole := api.Caller(r)
	role := senderRole(accountRole)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sent, classification, err := m.Service.SendMessage(ctx, assignmentID, senderID, role, models.ContentText, req.Content, req.AttachmentID)
	if err != nil {
		serviceError("failed to send message", w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": sent,
		"tone":    classification,
	})
}

// GetMessagesHandler returns a page of channel messages, newest first
func (m Message) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	callerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messages, err := m.Service.GetMessages(ctx, assignmentID, callerID, limit, offset)
	if err != nil {
		serviceError("failed to get messages", w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.DecryptedMessage{}
	}

	b, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MessageToneHandler returns the tone classification of one of the caller's
// own messages
func (m Message) MessageToneHandler(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["message_id"]

	callerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	classification, err := m.Service.GetMessageTone(ctx, messageID, callerID)
	if err != nil {
		serviceError("failed to get message tone", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(classification)
}

// MarkAsReadHandler stamps the read receipt on a message
func (m Message) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["message_id"]

	callerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	marked, err := m.Service.MarkAsRead(ctx, messageID, callerID)
	if err != nil {
		serviceError("failed to mark message as read", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messageID": marked.ID,
		"readAt":    marked.ReadAt,
	})
}

// AuditTrailHandler returns the channel's compliance log
func (m Message) AuditTrailHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	trail, err := m.Service.GetAuditTrail(ctx, assignmentID)
	if err != nil {
		serviceError("failed to get audit trail", w, err)
		return
	}
	if len(trail) == 0 {
		trail = []models.MessageAudit{}
	}

	b, err := json.Marshal(trail)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// senderRole maps an account role onto the channel role it may speak as.
func senderRole(role models.AccountRole) models.SenderRole {
	switch role {
	case models.AccountDefender:
		return models.RoleDefender
	case models.AccountDebtor:
		return models.RoleDebtor
	default:
		return models.RoleCreditor
	}
}
