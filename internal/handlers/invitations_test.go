package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// mockInvitationStore implements InvitationStore for testing
type mockInvitationStore struct {
	invitation  *domain.Invitation
	record      *domain.InvitationRecord
	records     []domain.InvitationRecord
	connections []domain.UserRef
	listKind    string
	err         error
}

func (m *mockInvitationStore) CreateInvitation(ctx context.Context, senderID, email string) (*domain.Invitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invitation, nil
}

func (m *mockInvitationStore) GetInvitation(ctx context.Context, userID, id string) (*domain.InvitationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockInvitationStore) ListInvitations(ctx context.Context, userID, kind string) ([]domain.InvitationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.listKind = kind
	return m.records, nil
}

func (m *mockInvitationStore) RespondInvitation(ctx context.Context, userID, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	inv := *m.invitation
	inv.Status = status
	return &inv, nil
}

func (m *mockInvitationStore) ListAcceptedConnections(ctx context.Context, userID string) ([]domain.UserRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.connections, nil
}

// mockPropagator records acceptance notifications
type mockPropagator struct {
	senderID    string
	recipientID string
	calls       int
}

func (m *mockPropagator) OnAccepted(ctx context.Context, senderID, recipientID string) {
	m.calls++
	m.senderID = senderID
	m.recipientID = recipientID
}

// TestInvitationCreate_Success verifies a 201 with the stored invitation
func TestInvitationCreate_Success(t *testing.T) {
	mock := &mockInvitationStore{
		invitation: &domain.Invitation{ID: "inv-1", Email: "bob@example.com", Status: domain.InvitationPending, SenderID: "user-123"},
	}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("user-123", "POST", "/api/invitations", `{"email":"bob@example.com"}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var result domain.Invitation
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.ID != "inv-1" || result.Status != domain.InvitationPending {
		t.Errorf("Unexpected invitation: %+v", result)
	}
}

// TestInvitationCreate_SelfInvite verifies the validation mapping to 400
func TestInvitationCreate_SelfInvite(t *testing.T) {
	mock := &mockInvitationStore{err: fmt.Errorf("%w: cannot invite yourself", domain.ErrValidation)}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("user-123", "POST", "/api/invitations", `{"email":"me@example.com"}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestInvitationCreate_PendingExists verifies the duplicate mapping to 409
func TestInvitationCreate_PendingExists(t *testing.T) {
	mock := &mockInvitationStore{err: fmt.Errorf("%w: invitation already pending", domain.ErrDuplicate)}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("user-123", "POST", "/api/invitations", `{"email":"bob@example.com"}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

// TestInvitationList_PassesKind verifies the type query reaches the store
func TestInvitationList_PassesKind(t *testing.T) {
	mock := &mockInvitationStore{records: []domain.InvitationRecord{}}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("user-123", "GET", "/api/invitations?type=received", "")
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if mock.listKind != "received" {
		t.Errorf("Expected kind received, got %q", mock.listKind)
	}
}

// TestInvitationRespond_AcceptTriggersBackfill verifies acceptance notifies
// the propagator with the invitation's sender and recipient
func TestInvitationRespond_AcceptTriggersBackfill(t *testing.T) {
	mock := &mockInvitationStore{
		invitation: &domain.Invitation{ID: "inv-1", Email: "bob@example.com", SenderID: "alice", RecipientID: "bob"},
	}
	prop := &mockPropagator{}
	handler := NewInvitationHandler(mock, prop)
	req := requestWithAuth("bob", "PATCH", "/api/invitations/inv-1", `{"status":"accepted"}`)
	req.SetPathValue("id", "inv-1")
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if prop.calls != 1 {
		t.Fatalf("Expected 1 propagator call, got %d", prop.calls)
	}
	if prop.senderID != "alice" || prop.recipientID != "bob" {
		t.Errorf("Propagator called with (%s, %s), want (alice, bob)", prop.senderID, prop.recipientID)
	}
}

// TestInvitationRespond_RejectSkipsBackfill verifies rejection does not
// notify the propagator
func TestInvitationRespond_RejectSkipsBackfill(t *testing.T) {
	mock := &mockInvitationStore{
		invitation: &domain.Invitation{ID: "inv-1", SenderID: "alice", RecipientID: "bob"},
	}
	prop := &mockPropagator{}
	handler := NewInvitationHandler(mock, prop)
	req := requestWithAuth("bob", "PATCH", "/api/invitations/inv-1", `{"status":"rejected"}`)
	req.SetPathValue("id", "inv-1")
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if prop.calls != 0 {
		t.Errorf("Expected no propagator calls, got %d", prop.calls)
	}
}

// TestInvitationRespond_Forbidden verifies a non-party caller gets 403
func TestInvitationRespond_Forbidden(t *testing.T) {
	mock := &mockInvitationStore{err: fmt.Errorf("%w: not the recipient", domain.ErrForbidden)}
	handler := NewInvitationHandler(mock, &mockPropagator{})
	req := requestWithAuth("carol", "PATCH", "/api/invitations/inv-1", `{"status":"accepted"}`)
	req.SetPathValue("id", "inv-1")
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

// TestInvitationGet_Success verifies the record round-trips
func TestInvitationGet_Success(t *testing.T) {
	mock := &mockInvitationStore{
		record: &domain.InvitationRecord{
			Invitation: domain.Invitation{ID: "inv-1", SenderID: "alice"},
			Sender:     &domain.UserRef{ID: "alice", Name: "Alice"},
		},
	}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("alice", "GET", "/api/invitations/inv-1", "")
	req.SetPathValue("id", "inv-1")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result domain.InvitationRecord
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Sender == nil || result.Sender.Name != "Alice" {
		t.Errorf("Expected sender Alice attached, got %+v", result.Sender)
	}
}

// TestConnections_Success verifies the accepted connection list
func TestConnections_Success(t *testing.T) {
	mock := &mockInvitationStore{
		connections: []domain.UserRef{{ID: "bob", Name: "Bob", Email: "bob@example.com"}},
	}
	handler := NewInvitationHandler(mock, nil)
	req := requestWithAuth("alice", "GET", "/api/connections/accepted", "")
	w := httptest.NewRecorder()

	handler.Connections(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result []domain.UserRef
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0].ID != "bob" {
		t.Errorf("Expected connection bob, got %+v", result)
	}
}

// TestConnections_Unauthorized verifies 401 when userID missing
func TestConnections_Unauthorized(t *testing.T) {
	handler := NewInvitationHandler(&mockInvitationStore{}, nil)
	w := httptest.NewRecorder()

	handler.Connections(w, requestWithoutAuth())

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}
