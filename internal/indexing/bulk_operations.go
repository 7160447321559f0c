package indexing

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	WorkerCount      int // Number of documents indexed in parallel
	StopOnError      bool
	ProgressCallback func(processed, total int, message string) // Calls are serialised
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		WorkerCount: runtime.NumCPU(),
	}
}

// BulkResult is the outcome of one document of a bulk run.
type BulkResult struct {
	Request IndexRequest
	Result  *IndexResult
	Err     error
}

// BulkIndexer indexes many local documents with bounded parallelism. Vector
// appends are still serialised by the store.
type BulkIndexer struct {
	service *Service
	config  BulkIndexingConfig
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	return &BulkIndexer{service: service, config: config}
}

// IndexAll indexes reqs and returns one result per request, in request
// order. With StopOnError the first failure cancels the remaining work and
// is returned; otherwise failures are only reported in the results.
func (bi *BulkIndexer) IndexAll(ctx context.Context, reqs []IndexRequest) ([]BulkResult, error) {
	results := make([]BulkResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	bi.service.log.Info("Starting bulk indexing", "documents", len(reqs), "workers", bi.config.WorkerCount)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bi.config.WorkerCount)

	var mu sync.Mutex
	processed := 0
	for i, req := range reqs {
		g.Go(func() error {
			res, err := bi.service.IndexDocument(gctx, req, nil)
			results[i] = BulkResult{Request: req, Result: res, Err: err}

			mu.Lock()
			processed++
			if bi.config.ProgressCallback != nil {
				msg := req.OrigName
				if err != nil {
					msg = req.OrigName + ": " + err.Error()
				}
				bi.config.ProgressCallback(processed, len(reqs), msg)
			}
			mu.Unlock()

			if err != nil && bi.config.StopOnError {
				return err
			}
			return nil
		})
	}
	err := g.Wait()

	duration := time.Since(start)
	bi.service.log.Info("Bulk indexing completed",
		"documents", len(reqs),
		"took", duration,
		"docsPerSec", float64(len(reqs))/duration.Seconds())
	return results, err
}
