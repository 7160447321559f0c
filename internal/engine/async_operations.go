package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/indexing"
	"github.com/gcbaptista/prism/internal/ingest"
	"github.com/gcbaptista/prism/internal/jobs"
	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/services"
)

// UploadPDF stores one uploaded PDF and schedules its indexing.
func (e *Engine) UploadPDF(name string, content io.Reader) (*model.UploadResult, error) {
	doc, err := e.ingester.SavePDF(name, content)
	if err != nil {
		return nil, err
	}
	res, err := e.submitIndexJob(*doc)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadPDFs stores several PDFs. Every name is checked before anything is
// stored, so a batch with a non-PDF name is rejected as a whole.
func (e *Engine) UploadPDFs(files []services.UploadFile) ([]model.UploadResult, error) {
	if len(files) == 0 {
		return nil, errors.NewValidationError("files", "provide at least one PDF")
	}
	for _, f := range files {
		if !ingest.HasPDFExt(f.Name) {
			return nil, errors.NewUploadError(f.Name, "only PDF files are accepted")
		}
	}

	results := make([]model.UploadResult, 0, len(files))
	for _, f := range files {
		res, err := e.UploadPDF(f.Name, f.Content)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// UploadZip stores the PDFs of an archive and schedules one job per PDF.
func (e *Engine) UploadZip(ctx context.Context, name string, content io.Reader) ([]model.UploadResult, error) {
	docs, err := e.ingester.SaveZip(ctx, name, content)
	if err != nil {
		return nil, err
	}
	results := make([]model.UploadResult, 0, len(docs))
	for _, doc := range docs {
		res, err := e.submitIndexJob(doc)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// submitIndexJob creates a queued job for a stored document and hands it to
// the job manager.
func (e *Engine) submitIndexJob(doc ingest.Document) (model.UploadResult, error) {
	job := e.jobManager.CreateJob(model.JobTypeIndexDocument, doc.DocID, map[string]string{
		"origName": doc.OrigName,
	})

	err := e.jobManager.ExecuteJob(job.ID, func(ctx context.Context, _ *model.Job, progress func(int, string)) error {
		return e.executeIndexJob(ctx, doc, progress)
	})
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("failed to start indexing job: %w", err)
	}

	return model.UploadResult{JobIDs: []string{job.ID}, DocID: doc.DocID}, nil
}

// executeIndexJob executes the index document job.
func (e *Engine) executeIndexJob(ctx context.Context, doc ingest.Document, progress func(int, string)) error {
	_, err := e.indexer.IndexDocument(ctx, indexing.IndexRequest{
		DocID:    doc.DocID,
		Path:     doc.Path,
		OrigName: doc.OrigName,
	}, progress)
	return err
}

// JobStatus returns the current state of a job.
func (e *Engine) JobStatus(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// CancelJob cancels a queued or running job.
func (e *Engine) CancelJob(jobID string) error {
	return e.jobManager.CancelJob(jobID)
}

// JobMetrics returns the job manager's counters.
func (e *Engine) JobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}
