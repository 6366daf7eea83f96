package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// InvitationStore interface for dependency injection
type InvitationStore interface {
	CreateInvitation(ctx context.Context, senderID, email string) (*domain.Invitation, error)
	GetInvitation(ctx context.Context, userID, id string) (*domain.InvitationRecord, error)
	ListInvitations(ctx context.Context, userID, kind string) ([]domain.InvitationRecord, error)
	RespondInvitation(ctx context.Context, userID, id string, status domain.InvitationStatus) (*domain.Invitation, error)
	ListAcceptedConnections(ctx context.Context, userID string) ([]domain.UserRef, error)
}

// SharePropagator reacts to invitation acceptance. The backfill is
// best-effort and never affects the response.
type SharePropagator interface {
	OnAccepted(ctx context.Context, senderID, recipientID string)
}

// InvitationHandler handles the /api/invitations routes
type InvitationHandler struct {
	store      InvitationStore
	propagator SharePropagator
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(store InvitationStore, propagator SharePropagator) *InvitationHandler {
	return &InvitationHandler{store: store, propagator: propagator}
}

// Create handles POST /api/invitations {email}
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	inv, err := h.store.CreateInvitation(r.Context(), userID, req.Email)
	if err != nil {
		writeError(w, err, "Failed to create invitation")
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/invitations?type=sent|received|all
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	records, err := h.store.ListInvitations(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err, "Failed to fetch invitations")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Get handles GET /api/invitations/{id}
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	record, err := h.store.GetInvitation(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to fetch invitation")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Respond handles PATCH /api/invitations/{id} {status}. Acceptance triggers
// the share backfill after the status write; the two are deliberately
// independent so a backfill failure cannot roll back the acceptance.
func (h *InvitationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Status domain.InvitationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	inv, err := h.store.RespondInvitation(r.Context(), userID, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err, "Failed to respond to invitation")
		return
	}

	if inv.Status == domain.InvitationAccepted && h.propagator != nil {
		h.propagator.OnAccepted(r.Context(), inv.SenderID, inv.RecipientID)
	}

	writeJSON(w, http.StatusOK, inv)
}

// Connections handles GET /api/connections/accepted
func (h *InvitationHandler) Connections(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	refs, err := h.store.ListAcceptedConnections(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to fetch connections")
		return
	}

	writeJSON(w, http.StatusOK, refs)
}
