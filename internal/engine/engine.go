// Package engine wires the stores, the structuring pipeline, indexing,
// retrieval, ingestion and the job manager into one service.
package engine

import (
	"fmt"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/embedding"
	"github.com/gcbaptista/prism/internal/extract"
	"github.com/gcbaptista/prism/internal/indexing"
	"github.com/gcbaptista/prism/internal/ingest"
	"github.com/gcbaptista/prism/internal/jobs"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/search"
	"github.com/gcbaptista/prism/internal/structure"
	"github.com/gcbaptista/prism/store"
)

// Option overrides a collaborator of the engine.
type Option func(*options)

type options struct {
	structurer indexing.Structurer
	pages      indexing.PageTextSource
	docTitle   func(path string) string
	embedder   embedding.Embedder
}

// WithStructurer replaces the PDF structuring pipeline.
func WithStructurer(s indexing.Structurer) Option {
	return func(o *options) { o.structurer = s }
}

// WithPageTextSource replaces the raw page text reader used by the fallback.
func WithPageTextSource(p indexing.PageTextSource) Option {
	return func(o *options) { o.pages = p }
}

// WithDocTitle replaces the PDF metadata title lookup.
func WithDocTitle(f func(path string) string) Option {
	return func(o *options) { o.docTitle = f }
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// Engine is the document intelligence service.
// It implements the services.DocumentService interface.
type Engine struct {
	cfg *config.Config
	log logger.Logger

	meta      *store.MetadataStore
	vectors   *store.VectorStore
	blocklist *store.BlocklistStore
	embedder  embedding.Embedder

	structurer indexing.Structurer
	indexer    *indexing.Service
	searcher   *search.Service
	ingester   *ingest.Ingester
	jobManager *jobs.Manager
}

// New builds an engine over the data directory of cfg. Call Start before
// submitting uploads and Close on shutdown.
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	meta, err := store.NewMetadataStore(cfg.MetaDir(), cfg.Search.SentenceCacheSize)
	if err != nil {
		return nil, err
	}
	vectors, err := store.NewVectorStore(cfg.IndexDir(), log.With("component", "vectors"))
	if err != nil {
		return nil, err
	}
	blocklist := store.NewBlocklistStore(cfg.BlocklistPath(), cfg.Search.BlockDocs, log.With("component", "blocklist"))

	embedder := o.embedder
	if embedder == nil {
		embedder, err = embedding.New(cfg.Embedding, log.With("component", "embedding"))
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	extractor := extract.NewExtractor(cfg.Extract, log.With("component", "extract"))
	structurer := o.structurer
	if structurer == nil {
		pipeline, err := structure.NewPipeline(cfg.Structure, extractor, log.With("component", "structure"))
		if err != nil {
			return nil, fmt.Errorf("failed to create structuring pipeline: %w", err)
		}
		structurer = pipeline
	}
	pages := o.pages
	if pages == nil {
		pages = extractor
	}
	docTitle := o.docTitle
	if docTitle == nil {
		docTitle = extract.Title
	}

	indexer, err := indexing.NewService(cfg.Indexing, structurer, pages, docTitle, meta, vectors, embedder, log.With("component", "indexing"))
	if err != nil {
		return nil, fmt.Errorf("failed to create indexing service: %w", err)
	}
	searcher, err := search.NewService(cfg.Search, embedder, vectors, meta, blocklist, log.With("component", "search"))
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}
	ingester, err := ingest.NewIngester(cfg.DocsDir(), cfg.JobsDir(), cfg.Ingest.MaxPDFsPerZip, cfg.Ingest.MaxUploadBytes, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingester: %w", err)
	}
	jobManager, err := jobs.NewManager(cfg.Jobs.Workers, cfg.JobsDir(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create job manager: %w", err)
	}

	return &Engine{
		cfg:        cfg,
		log:        log,
		meta:       meta,
		vectors:    vectors,
		blocklist:  blocklist,
		embedder:   embedder,
		structurer: structurer,
		indexer:    indexer,
		searcher:   searcher,
		ingester:   ingester,
		jobManager: jobManager,
	}, nil
}

// Start starts the background job manager.
func (e *Engine) Start() {
	e.jobManager.Start(e.cfg.Jobs.Retention)
	e.log.Info("Engine started", "dataDir", e.cfg.Data.Dir, "embedding", e.embedder.ModelName())
}

// Close cancels running jobs and waits for them to stop.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}
