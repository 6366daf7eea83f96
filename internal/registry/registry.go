package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/fintrack/internal/parser"
	"github.com/rumor-ml/commons.systems/fintrack/internal/parsers/csv"
	"github.com/rumor-ml/commons.systems/fintrack/internal/parsers/ofx"
)

// Registry holds all registered parsers
type Registry struct {
	parsers []parser.Parser
}

// New creates a registry with all built-in parsers
func New() *Registry {
	return &Registry{
		parsers: []parser.Parser{
			ofx.NewParser(),
			csv.NewParser(),
		},
	}
}

// Register adds a custom parser (for extensibility)
func (r *Registry) Register(p parser.Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser returns the best parser for this file.
// Reads first 512 bytes for format detection via header inspection.
// This is sufficient to detect magic numbers and headers in common financial formats (OFX, QFX, CSV).
func (r *Registry) FindParser(path string) (parser.Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		f.Close() // Best-effort close, ignore error since we're already failing
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// EOF is OK - some statement files (especially CSV or minimal test files) may be < 512 bytes.
	// Parsers receive whatever was read (0 to 512 bytes) and should handle variable header sizes.
	header = header[:n]

	for _, p := range r.parsers {
		if p.CanParse(path, header) {
			if err := f.Close(); err != nil {
				return nil, fmt.Errorf("failed to close file %s: %w", path, err)
			}
			return p, nil
		}
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return nil, fmt.Errorf("no parser found for file: %s", path)
}

// FindParserForContent returns the best parser given a filename and the raw
// content, for callers that hold the bytes in memory (uploads) rather than a
// file on disk.
func (r *Registry) FindParserForContent(name string, content []byte) (parser.Parser, error) {
	header := content
	if len(header) > 512 {
		header = header[:512]
	}

	for _, p := range r.parsers {
		if p.CanParse(name, header) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parser found for file: %s", name)
}

// ListParsers returns all registered parsers
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
