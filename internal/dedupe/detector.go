package dedupe

import (
	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// Stats summarizes the outcome of screening a batch.
type Stats struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Detector screens candidate transactions against a set of composite keys
// already present in the user's history. It is stateful: keys of accepted
// candidates join the set, so duplicates within a single batch are caught
// the same way duplicates of stored transactions are.
//
// Not safe for concurrent use; build one per import.
type Detector struct {
	seen map[string]bool
}

// NewDetector returns a detector seeded with the composite keys of the
// user's existing transactions.
func NewDetector(existing []string) *Detector {
	seen := make(map[string]bool, len(existing))
	for _, key := range existing {
		seen[key] = true
	}
	return &Detector{seen: seen}
}

// Screen filters a batch down to candidates worth storing. Candidates
// missing a required field (date, vendor, category, or transaction type) are dropped
// without being counted. Candidates whose composite key is already known
// count as skipped; the rest are accepted and their keys recorded.
func (d *Detector) Screen(batch []domain.Candidate) ([]domain.Candidate, Stats) {
	var stats Stats
	accepted := make([]domain.Candidate, 0, len(batch))

	for _, c := range batch {
		if !c.HasRequiredFields() {
			continue
		}
		stats.Total++

		key := c.Key()
		if d.seen[key] {
			stats.Skipped++
			continue
		}

		d.seen[key] = true
		accepted = append(accepted, c)
		stats.Created++
	}

	return accepted, stats
}
