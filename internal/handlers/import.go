package handlers

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/rumor-ml/commons.systems/fintrack/internal/dedupe"
	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/parser"
	"github.com/rumor-ml/commons.systems/fintrack/internal/registry"
	"github.com/rumor-ml/commons.systems/fintrack/internal/rules"
)

// maxUploadBytes caps statement uploads at 10 MB.
const maxUploadBytes = 10 << 20

// ImportStore interface for dependency injection
type ImportStore interface {
	ExistingKeys(ctx context.Context, userID string) ([]string, error)
	ImportTransactions(ctx context.Context, userID string, candidates []domain.Candidate) (int, error)
}

// ImportSummary is the response body for a statement upload.
type ImportSummary struct {
	Created          int `json:"created"`
	Skipped          int `json:"skipped"`
	Total            int `json:"total"`
	RemovedTransfers int `json:"removedTransfers"`
}

// ImportHandler handles POST /api/import statement uploads
type ImportHandler struct {
	store    ImportStore
	registry *registry.Registry
	engine   *rules.Engine
}

// NewImportHandler creates a statement import handler
func NewImportHandler(store ImportStore, reg *registry.Registry, engine *rules.Engine) *ImportHandler {
	return &ImportHandler{store: store, registry: reg, engine: engine}
}

// Import handles POST /api/import with a multipart "file" field. The upload
// runs the same pipeline as the CLI importer: parse, drop matched transfer
// pairs, categorize uncategorized rows, then screen against existing
// transactions before inserting.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}
	if len(content) == 0 {
		http.Error(w, "Uploaded file is empty", http.StatusBadRequest)
		return
	}

	p, err := h.registry.FindParserForContent(header.Filename, content)
	if err != nil {
		http.Error(w, "Unsupported file format", http.StatusBadRequest)
		return
	}

	meta, err := parser.NewMetadata(header.Filename, time.Now())
	if err != nil {
		http.Error(w, "Missing file name", http.StatusBadRequest)
		return
	}

	candidates, err := p.Parse(r.Context(), bytes.NewReader(content), meta)
	if err != nil {
		log.Printf("ERROR: parsing upload %s with %s: %v", header.Filename, p.Name(), err)
		http.Error(w, "Failed to parse file", http.StatusBadRequest)
		return
	}

	candidates, removed := dedupe.FilterTransferPairs(candidates)
	h.engine.Categorize(candidates)

	existing, err := h.store.ExistingKeys(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to load existing transactions")
		return
	}

	accepted, stats := dedupe.NewDetector(existing).Screen(candidates)
	if stats.Total == 0 && removed == 0 {
		http.Error(w, "No valid transactions in file", http.StatusBadRequest)
		return
	}

	created, err := h.store.ImportTransactions(r.Context(), userID, accepted)
	if err != nil {
		writeError(w, err, "Failed to import transactions")
		return
	}

	writeJSON(w, http.StatusCreated, ImportSummary{
		Created:          created,
		Skipped:          stats.Skipped + (stats.Created - created),
		Total:            stats.Total,
		RemovedTransfers: removed,
	})
}
