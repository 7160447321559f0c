package services

import (
	"context"
	"io"

	"github.com/gcbaptista/prism/internal/jobs"
	"github.com/gcbaptista/prism/model"
)

// UploadFile is one file of a multi-file upload.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// SearchResult wraps the hits of one retrieval request.
type SearchResult struct {
	Hits    []model.Hit `json:"hits"`
	Total   int         `json:"total"`
	Took    int64       `json:"took"`     // milliseconds
	QueryId string      `json:"query_id"` // unique UUID for this search query
}

// HealthStatus reports whether the service can answer queries.
type HealthStatus struct {
	Status         string `json:"status"`
	IndexReady     bool   `json:"indexReady"`
	Documents      int    `json:"documents"`
	Vectors        int    `json:"vectors"`
	EmbeddingModel string `json:"embeddingModel"`
	ActiveJobs     int64  `json:"activeJobs"`
}

// Uploader accepts PDFs and schedules their indexing.
type Uploader interface {
	UploadPDF(name string, content io.Reader) (*model.UploadResult, error)
	UploadPDFs(files []UploadFile) ([]model.UploadResult, error)
	UploadZip(ctx context.Context, name string, content io.Reader) ([]model.UploadResult, error)
}

// JobTracker exposes background job state.
type JobTracker interface {
	JobStatus(jobID string) (*model.Job, error)
	CancelJob(jobID string) error
	JobMetrics() jobs.JobMetricsData
}

// Retriever answers related-content queries and serves document metadata.
type Retriever interface {
	Search(ctx context.Context, q model.SearchQuery) (*SearchResult, error)
	Sections(docID string) (*model.SectionsMeta, error)
	Outline(docID string) (*model.Outline, error)
}

// BlocklistManager administers the blocked document ids.
type BlocklistManager interface {
	Blocklist() []string
	BlockDocuments(ids []string) ([]string, error)
	UnblockDocuments(ids []string) ([]string, error)
	ClearBlocklist() error
}

// DocumentService is everything the HTTP layer needs from the engine.
type DocumentService interface {
	Uploader
	JobTracker
	Retriever
	BlocklistManager
	Health() HealthStatus
}
