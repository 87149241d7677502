package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/clearslate/defender-api/api"
	"github.com/clearslate/defender-api/assignment"
	"github.com/clearslate/defender-api/config"
	"github.com/clearslate/defender-api/models"
)

// Assignment exported for testing purposes
type Assignment struct {
	Service *assignment.Service
}

type createAssignmentRequest struct {
	DebtorID   string `json:"debtorID"`
	CaseID     string `json:"caseID"`
	DefenderID string `json:"defenderID"`
}

// CreateAssignmentHandler proposes a defender for a debtor's case. With no
// defenderID the least-loaded eligible defender is allocated.
func (a Assignment) CreateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	requestedBy, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := a.Service.CreateAssignment(ctx, req.DebtorID, req.CaseID, requestedBy, req.DefenderID)
	if err != nil {
		serviceError("failed to create assignment", w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// AssignmentByIDHandler returns an assignment by ID
func (a Assignment) AssignmentByIDHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := a.Service.GetAssignment(ctx, assignmentID)
	if err != nil {
		serviceError("failed to get assignment by ID", w, err)
		return
	}

	b, err := json.Marshal(found)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type consentRequest struct {
	Token   string `json:"token"`
	Consent bool   `json:"consent"`
	Reason  string `json:"reason"`
}

// ConsentHandler redeems or declines the debtor's consent grant
func (a Assignment) ConsentHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	debtorID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := a.Service.ProcessConsent(ctx, assignmentID, debtorID, req.Token, req.Consent, req.Reason)
	if err != nil {
		serviceError("failed to process consent", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(updated)
}

type transferRequest struct {
	TargetDefenderID string `json:"targetDefenderID"`
	Reason           string `json:"reason"`
}

// TransferHandler moves an active assignment to another defender
func (a Assignment) TransferHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	actorID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	successor, err := a.Service.TransferAssignment(ctx, assignmentID, req.TargetDefenderID, req.Reason, actorID)
	if err != nil {
		serviceError("failed to transfer assignment", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(successor)
}

type completeRequest struct {
	Reason string `json:"reason"`
}

// CompleteHandler closes an active assignment
func (a Assignment) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	actorID, _ := api.Caller(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	completed, err := a.Service.CompleteAssignment(ctx, assignmentID, req.Reason, actorID)
	if err != nil {
		serviceError("failed to complete assignment", w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(completed)
}

// HistoryHandler returns the assignment's transition log
func (a Assignment) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	assignmentID := mux.Vars(r)["assignment_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	history, err := a.Service.GetHistory(ctx, assignmentID)
	if err != nil {
		serviceError("failed to get assignment history", w, err)
		return
	}
	if len(history) == 0 {
		history = []models.AssignmentHistory{}
	}

	b, err := json.Marshal(history)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
