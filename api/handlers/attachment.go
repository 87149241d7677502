package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/messaging"
)

// Attachment exported for testing purposes
type Attachment struct {
	Service *messaging.Service
	BaseURL string
}

// UploadAttachmentHandler stages a file on the channel. The body is the raw
// file; name comes from a query param and the mime type from Content-Type.
func (a Attachment) UploadAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]
	fileName := r.URL.Query().Get("fileName")
	mimeType := r.Header.Get("Content-Type")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.Service.MaxBytes+1))
	if err != nil {
		config.ErrorStatus("failed to read upload body", http.StatusBadRequest, w, err)
		return
	}

	uploaderID, accountRole := api.Caller(r)
	role := senderRole(accountRole)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	attachment, err := a.Service.UploadAttachment(ctx, assignmentID, uploaderID, role, fileName, mimeType, payload)
	if err != nil {
		serviceError("failed to upload attachment", w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(attachment)
}

// DeleteAttachmentHandler removes an unsent attachment
func (a Attachment) DeleteAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	attachmentID := mux.Vars(r)["attachment_id"]

	callerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Service.DeleteAttachment(ctx, attachmentID, callerID); err != nil {
		serviceError("failed to delete attachment", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Attachment deleted successfully",
	})
}

// DownloadURLHandler mints a short-lived signed download locator
func (a Attachment) DownloadURLHandler(w http.ResponseWriter, r *http.Request) {
	attachmentID := mux.Vars(r)["attachment_id"]

	locator, err := a.Service.AttachmentDownloadURL(attachmentID)
	if err != nil {
		config.ErrorStatus("failed to sign download locator", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"url":       fmt.Sprintf("%s/api/v1/attachments/download?locator=%s", a.BaseURL, locator),
		"locator":   locator,
		"expiresIn": a.Service.DownloadTTL.String(),
	})
}

// DownloadHandler verifies a locator and streams the decrypted file
func (a Attachment) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	locator := r.URL.Query().Get("locator")

	callerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	payload, attachment, err := a.Service.DownloadAttachment(ctx, locator, callerID)
	if err != nil {
		serviceError("failed to download attachment", w, err)
		return
	}

	w.Header().Set("Content-Type", attachment.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, attachment.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}
