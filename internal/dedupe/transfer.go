// Package dedupe removes transfer pairs and duplicate transactions from
// import batches before they reach storage.
package dedupe

import (
	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// FilterTransferPairs removes matched transfer pairs from a batch of
// candidates and returns the survivors plus the number of removed rows.
//
// A transfer pair is two rows both categorized as transfers, with equal
// amounts and opposite transaction types (one credit, one debit). These are
// internal money movements between the user's own accounts and would inflate
// spending totals if imported.
//
// Matching is greedy in input order: each transfer row pairs with the first
// later unmatched row that qualifies. An odd transfer out with no partner is
// kept. Survivors are returned with non-transfers first, then unmatched
// transfers, each group in input order.
func FilterTransferPairs(candidates []domain.Candidate) ([]domain.Candidate, int) {
	var transfers []domain.Candidate
	kept := make([]domain.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c.IsTransfer() {
			transfers = append(transfers, c)
		} else {
			kept = append(kept, c)
		}
	}

	matched := make(map[int]bool, len(transfers))
	for i := 0; i < len(transfers); i++ {
		if matched[i] {
			continue
		}
		for j := i + 1; j < len(transfers); j++ {
			if matched[j] {
				continue
			}
			if transfers[i].Amount == transfers[j].Amount && oppositeTypes(transfers[i], transfers[j]) {
				matched[i] = true
				matched[j] = true
				break
			}
		}
	}

	removed := 0
	for i, t := range transfers {
		if matched[i] {
			removed++
		} else {
			kept = append(kept, t)
		}
	}

	return kept, removed
}

// oppositeTypes reports whether exactly one of the two rows is a credit and
// the other a debit, in either order.
func oppositeTypes(a, b domain.Candidate) bool {
	return (a.TransactionType == domain.TypeCredit && b.TransactionType == domain.TypeDebit) ||
		(a.TransactionType == domain.TypeDebit && b.TransactionType == domain.TypeCredit)
}
