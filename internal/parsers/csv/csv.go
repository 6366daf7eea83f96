// Package csv parses delimited bank exports into candidate transactions.
//
// The format is the common "register export": a discarded header line, then
// one transaction per line in the order date, vendor, amount, category,
// transactionType, with optional trailing columns (account name, labels,
// notes) that are ignored. Fields may be quoted; quotes are stripped and
// commas inside quotes do not split fields.
package csv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/parser"
)

// Parser implements register CSV parsing with a stateless design.
// The struct has no fields because parsing requires no configuration state,
// making the parser safe for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared CSV parser instance.
// Safe for concurrent use due to stateless design.
func NewParser() *Parser {
	return parserInstance
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "csv"
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if meta != nil && meta.FilePath() != "" {
		return fmt.Sprintf(" from %s", meta.FilePath())
	}
	return ""
}

// CanParse checks if this parser can handle the file based on extension and header
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		return false
	}

	// The header line must be delimited; anything else is not a register export
	firstLine, _, _ := strings.Cut(string(header), "\n")
	return strings.Contains(firstLine, ",")
}

// Parse extracts candidate transactions from a register CSV export.
// The first line is a header and is discarded. Rows with missing trailing
// fields are kept with those fields empty; required-field validation happens
// at import time, not here.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) ([]domain.Candidate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content%s: %w", getFileInfo(meta), err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return nil, fmt.Errorf("CSV file is empty%s", getFileInfo(meta))
	}

	// Skip the header line; everything after it is a transaction row
	candidates := make([]domain.Candidate, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidates = append(candidates, parseRow(splitLine(line)))
	}

	return candidates, nil
}

// splitLine splits a CSV line into trimmed fields with quote-aware scanning.
// A double quote toggles the in-quotes state and is dropped from the value;
// commas inside quotes are part of the field, not separators.
func splitLine(line string) []string {
	var fields []string
	var cell strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cell.String()))

	return fields
}

// parseRow maps the positional fields of one row onto a candidate.
// Field order: date, vendor, amount, category, transactionType; any further
// columns (account name, labels, notes) are ignored. Missing trailing fields
// default to empty strings.
func parseRow(fields []string) domain.Candidate {
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	return domain.Candidate{
		Date:            reformatDate(field(0)),
		Vendor:          field(1),
		Amount:          cleanAmount(field(2)),
		Category:        field(3),
		TransactionType: field(4),
	}
}

// reformatDate converts MM/DD/YYYY to YYYY-MM-DD with zero padding.
// Values not in that shape pass through untouched; they are caught later by
// required-field validation only if empty.
func reformatDate(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return date
	}

	month, day, year := parts[0], parts[1], parts[2]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

// cleanAmount strips everything but digits, '.', and '-' and parses the
// remainder. Missing or unparseable amounts default to 0.
func cleanAmount(raw string) float64 {
	if raw == "" {
		return 0
	}

	var cleaned strings.Builder
	for _, ch := range raw {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			cleaned.WriteRune(ch)
		}
	}

	amount, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil {
		return 0
	}
	return amount
}
