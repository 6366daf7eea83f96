package parser

import (
	"fmt"
	"time"
)

// Metadata carries context about the file being parsed. The bank name is
// inferred from the directory layout ~/exports/{bank}/file.ext when present.
//
// Create instances with NewMetadata, which validates the required fields.
// When Bank() returns an empty string the path did not match the expected
// layout; that is not an error, the import simply has no bank context.
type Metadata struct {
	filePath   string
	bank       string
	detectedAt time.Time
}

// NewMetadata creates a Metadata instance with validated required fields.
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{
		filePath:   filePath,
		detectedAt: detectedAt,
	}, nil
}

// FilePath returns the file path the metadata was built from.
func (m *Metadata) FilePath() string {
	return m.filePath
}

// Bank returns the bank name inferred from the directory layout.
// Empty when the path did not match the expected structure.
func (m *Metadata) Bank() string {
	return m.bank
}

// DetectedAt returns when the file was discovered.
func (m *Metadata) DetectedAt() time.Time {
	return m.detectedAt
}

// SetBank records the bank name inferred from the directory layout.
func (m *Metadata) SetBank(bank string) {
	m.bank = bank
}
