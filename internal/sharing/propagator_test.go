package sharing

import (
	"context"
	"errors"
	"testing"
)

type mockBackfiller struct {
	calls int
	err   error
}

func (m *mockBackfiller) BackfillShares(ctx context.Context, sharedByID, sharedWithID string) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return 3, nil
}

func TestOnAccepted_RunsBackfill(t *testing.T) {
	mock := &mockBackfiller{}
	p := NewPropagator(mock)

	p.OnAccepted(context.Background(), "sender", "recipient")

	if mock.calls != 1 {
		t.Errorf("backfill calls = %d, want 1", mock.calls)
	}
}

func TestOnAccepted_SwallowsBackfillFailure(t *testing.T) {
	mock := &mockBackfiller{err: errors.New("disk full")}
	p := NewPropagator(mock)

	// Must not panic or propagate; the acceptance already happened
	p.OnAccepted(context.Background(), "sender", "recipient")

	if mock.calls != 1 {
		t.Errorf("backfill calls = %d, want 1", mock.calls)
	}
}
