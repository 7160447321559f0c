package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/prism/internal/indexing"
	"github.com/gcbaptista/prism/internal/ingest"
	"github.com/gcbaptista/prism/internal/persistence"
	"github.com/gcbaptista/prism/internal/structure"
	"github.com/gcbaptista/prism/model"
)

// IndexFiles copies the local PDFs matched by patterns into the data
// directory and indexes them synchronously.
func (e *Engine) IndexFiles(ctx context.Context, patterns []string, cfg indexing.BulkIndexingConfig) ([]indexing.BulkResult, error) {
	files, err := ingest.ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return []indexing.BulkResult{}, nil
	}

	reqs := make([]indexing.IndexRequest, 0, len(files))
	for _, f := range files {
		doc, err := e.ingester.ImportFile(f)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, indexing.IndexRequest{DocID: doc.DocID, Path: doc.Path, OrigName: doc.OrigName})
	}
	return indexing.NewBulkIndexer(e.indexer, cfg).IndexAll(ctx, reqs)
}

// StructureOutcome is the result of structuring one local PDF.
type StructureOutcome struct {
	Input   string
	Output  string
	Outline model.Outline
	Err     error
}

// StructureFiles writes {stem}.json outlines into outDir for every PDF
// matched by patterns. A failing file is reported in its outcome and does
// not stop the others.
func (e *Engine) StructureFiles(ctx context.Context, patterns []string, outDir string, workers int) ([]StructureOutcome, error) {
	files, err := ingest.ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	outcomes := make([]StructureOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, f := range files {
		g.Go(func() error {
			out := StructureOutcome{Input: f, Output: filepath.Join(outDir, structure.Stem(f)+".json")}
			res, err := e.structurer.Run(gctx, f)
			switch {
			case err != nil:
				out.Err = err
			default:
				out.Outline = res.Outline
				out.Err = persistence.SaveJSON(out.Output, res.Outline)
			}
			if out.Err != nil {
				e.log.Warn("Structuring failed", "file", f, "error", out.Err)
			} else {
				e.log.Info("Wrote outline", "file", f, "output", out.Output, "headings", len(res.Outline.Outline))
			}
			outcomes[i] = out
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
