// Package sharing propagates a user's transaction history to newly accepted
// sharing connections.
package sharing

import (
	"context"
	"log"
)

// Backfiller is the single store operation the propagator needs.
type Backfiller interface {
	BackfillShares(ctx context.Context, sharedByID, sharedWithID string) (int, error)
}

// Propagator runs the share backfill that follows an invitation acceptance.
type Propagator struct {
	store Backfiller
}

// NewPropagator returns a propagator backed by the given store.
func NewPropagator(store Backfiller) *Propagator {
	return &Propagator{store: store}
}

// OnAccepted backfills shares from the invitation sender to the recipient.
// The backfill is best-effort: a failure is logged and swallowed so the
// acceptance itself never rolls back. The store write is idempotent, so a
// later re-acceptance heals a failed backfill.
func (p *Propagator) OnAccepted(ctx context.Context, senderID, recipientID string) {
	created, err := p.store.BackfillShares(ctx, senderID, recipientID)
	if err != nil {
		log.Printf("ERROR: share backfill from %s to %s failed: %v", senderID, recipientID, err)
		return
	}
	log.Printf("INFO: backfilled %d shared transactions from %s to %s", created, senderID, recipientID)
}
