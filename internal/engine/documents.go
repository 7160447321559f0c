package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/services"
)

// Search returns related sections for q.
func (e *Engine) Search(ctx context.Context, q model.SearchQuery) (*services.SearchResult, error) {
	start := time.Now()
	hits, err := e.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return &services.SearchResult{
		Hits:    hits,
		Total:   len(hits),
		Took:    time.Since(start).Milliseconds(),
		QueryId: uuid.New().String(),
	}, nil
}

// Sections returns the stored sections of docID.
func (e *Engine) Sections(docID string) (*model.SectionsMeta, error) {
	return e.meta.Sections(docID)
}

// Outline returns the stored outline of docID.
func (e *Engine) Outline(docID string) (*model.Outline, error) {
	return e.meta.Outline(docID)
}

// Blocklist returns the ids stored in the blocklist file.
func (e *Engine) Blocklist() []string {
	return e.blocklist.List()
}

// BlockDocuments adds ids to the blocklist and returns the new list.
func (e *Engine) BlockDocuments(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.NewValidationError("docIds", "provide at least one document id")
	}
	return e.blocklist.Add(ids...)
}

// UnblockDocuments removes ids from the blocklist and returns the new list.
func (e *Engine) UnblockDocuments(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.NewValidationError("docIds", "provide at least one document id")
	}
	return e.blocklist.Remove(ids...)
}

// ClearBlocklist empties the blocklist file.
func (e *Engine) ClearBlocklist() error {
	return e.blocklist.Clear()
}

// Health reports index readiness and basic counts.
func (e *Engine) Health() services.HealthStatus {
	status := services.HealthStatus{
		Status:         "ok",
		EmbeddingModel: e.embedder.ModelName(),
		ActiveJobs:     e.jobManager.GetCurrentWorkload(),
	}
	if m, err := e.vectors.Manifest(); err == nil {
		status.Vectors = m.Count
		status.IndexReady = m.Count > 0
	} else {
		e.log.Warn("Failed to read vector manifest", "error", err)
		status.Status = "degraded"
	}
	if ids, err := e.meta.DocumentIDs(); err == nil {
		status.Documents = len(ids)
	}
	return status
}
