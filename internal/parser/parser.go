// Package parser defines the strategy interface shared by all bank export
// parsers and the metadata that travels with a file through an import.
package parser

import (
	"context"
	"io"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// Parser is the strategy interface for all export format parsers.
//
// Contract: Parse must return a non-nil slice when error is nil. An export
// with a header and no rows is a valid, empty result, not an error.
type Parser interface {
	// Name returns the parser identifier (e.g., "csv", "ofx")
	Name() string

	// CanParse checks if this parser can handle the file, based on the
	// path and the first bytes of content
	CanParse(path string, header []byte) bool

	// Parse extracts candidate transactions from the export
	Parse(ctx context.Context, r io.Reader, meta *Metadata) ([]domain.Candidate, error)
}
