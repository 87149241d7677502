package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/models"
	"github.com/clearslate/defender-api/verification"
)

// Credential exported for testing purposes
type Credential struct {
	Verification *verification.Service
}

// UploadCredentialHandler accepts one credential document for review. The
// document body is the raw file; type and name come from query params and the
// mime type from the Content-Type header.
func (c Credential) UploadCredentialHandler(w http.ResponseWriter, r *http.Request) {
	defenderID := mux.Vars(r)["defender_id"]
	credType := models.CredentialType(r.URL.Query().Get("type"))
	fileName := r.URL.Query().Get("fileName")
	mimeType := r.Header.Get("Content-Type")

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.Verification.MaxBytes+1))
	if err != nil {
		config.ErrorStatus("failed to read upload body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	credential, err := c.Verification.UploadCredential(ctx, defenderID, credType, fileName, mimeType, content)
	if err != nil {
		serviceError("failed to upload credential", w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(credential)
}

// ListCredentialsHandler returns a defender's credentials. Payloads stay
// sealed; only metadata is returned.
func (c Credential) ListCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	defenderID := mux.Vars(r)["defender_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	credentials, err := c.Verification.ListCredentials(ctx, defenderID)
	if err != nil {
		serviceError("failed to list credentials", w, err)
		return
	}
	if len(credentials) == 0 {
		credentials = []models.Credential{}
	}

	b, err := json.Marshal(credentials)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteCredentialHandler removes an unverified credential owned by the defender
func (c Credential) DeleteCredentialHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Verification.DeleteCredential(ctx, vars["defender_id"], vars["credential_id"]); err != nil {
		serviceError("failed to delete credential", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Credential deleted successfully",
	})
}

type verificationRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ProcessVerificationHandler records the reviewer's decision on a defender's
// submitted credentials
func (c Credential) ProcessVerificationHandler(w http.ResponseWriter, r *http.Request) {
	defenderID := mux.Vars(r)["defender_id"]

	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	reviewerID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := c.Verification.ProcessVerification(ctx, defenderID, req.Approved, reviewerID, req.Reason)
	if err != nil {
		serviceError("failed to process verification", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(profile)
}
