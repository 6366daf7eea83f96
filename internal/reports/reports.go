// Package reports computes spending summaries from transaction lists.
package reports

import (
	"sort"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// CategoryTotal is one category's spending and its share of the whole.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"`
}

// MonthlyTotal is one month's debit spending, keyed YYYY-MM.
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// Summary is the payload of the reports endpoint.
type Summary struct {
	Categories []CategoryTotal `json:"categories"`
	Monthly    []MonthlyTotal  `json:"monthly"`
}

// Summarize computes category and monthly totals over debit transactions.
// Credits are income, not spending, and are excluded from both views.
func Summarize(records []domain.TransactionRecord) Summary {
	return Summary{
		Categories: CategoryTotals(records),
		Monthly:    MonthlySpending(records),
	}
}

// CategoryTotals sums debit amounts per category and computes each
// category's share of the total, sorted by total descending.
func CategoryTotals(records []domain.TransactionRecord) []CategoryTotal {
	byCategory := make(map[string]float64)
	var total float64
	for _, r := range records {
		if r.TransactionType != domain.TypeDebit {
			continue
		}
		byCategory[r.Category] += r.Amount
		total += r.Amount
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, sum := range byCategory {
		share := 0.0
		if total != 0 {
			share = sum / total
		}
		totals = append(totals, CategoryTotal{Category: category, Total: sum, Share: share})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// MonthlySpending sums debit amounts per YYYY-MM month, sorted
// chronologically. Rows whose date is too short to carry a month are
// skipped.
func MonthlySpending(records []domain.TransactionRecord) []MonthlyTotal {
	byMonth := make(map[string]float64)
	for _, r := range records {
		if r.TransactionType != domain.TypeDebit || len(r.Date) < 7 {
			continue
		}
		byMonth[r.Date[:7]] += r.Amount
	}

	totals := make([]MonthlyTotal, 0, len(byMonth))
	for month, sum := range byMonth {
		totals = append(totals, MonthlyTotal{Month: month, Total: sum})
	}

	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Month < totals[j].Month
	})
	return totals
}
