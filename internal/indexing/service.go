// Package indexing turns structured documents into sentence records and
// vectors: sections are split into sentences, embedded in one batch and
// appended to the vector store.
package indexing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/embedding"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/structure"
	"github.com/gcbaptista/prism/model"
)

// Structurer produces the sections of a PDF.
type Structurer interface {
	Run(ctx context.Context, path string) (*structure.Result, error)
}

// PageTextSource reads raw page text for the one-section-per-page fallback.
type PageTextSource interface {
	PageTexts(ctx context.Context, path string) ([]string, error)
}

// MetadataWriter persists per-document metadata.
type MetadataWriter interface {
	SaveSections(meta model.SectionsMeta) error
	SaveSentences(meta model.SentencesMeta) error
	SaveOutline(docID string, outline model.Outline) error
}

// VectorWriter appends vectors and their mapping rows.
type VectorWriter interface {
	Add(ctx context.Context, vectors [][]float32, rows []model.VectorRecord) ([]int, error)
}

// ProgressFunc receives job milestones (see the model.Progress constants).
type ProgressFunc func(progress int, message string)

// IndexRequest identifies one stored PDF to index.
type IndexRequest struct {
	DocID    string
	Path     string
	OrigName string
}

// IndexResult summarises an indexed document.
type IndexResult struct {
	DocID     string
	Title     string
	Sections  int
	Sentences int
	Fallback  bool
	Duration  time.Duration
}

// Service indexes documents. Each call works on its own document; the
// vector writer serialises appends.
type Service struct {
	cfg        config.IndexingConfig
	structurer Structurer
	pages      PageTextSource
	docTitle   func(path string) string
	meta       MetadataWriter
	vectors    VectorWriter
	embedder   embedding.Embedder
	log        logger.Logger
}

// NewService creates a new indexing Service. docTitle may be nil.
func NewService(
	cfg config.IndexingConfig,
	structurer Structurer,
	pages PageTextSource,
	docTitle func(path string) string,
	meta MetadataWriter,
	vectors VectorWriter,
	embedder embedding.Embedder,
	log logger.Logger,
) (*Service, error) {
	if structurer == nil {
		return nil, fmt.Errorf("structurer cannot be nil")
	}
	if pages == nil {
		return nil, fmt.Errorf("page text source cannot be nil")
	}
	if meta == nil {
		return nil, fmt.Errorf("metadata writer cannot be nil")
	}
	if vectors == nil {
		return nil, fmt.Errorf("vector writer cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if cfg.MinSentenceChars <= 0 {
		cfg.MinSentenceChars = DefaultMinSentenceChars
	}
	if cfg.MaxSentenceChars <= 0 {
		cfg.MaxSentenceChars = DefaultMaxSentenceChars
	}
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = DefaultMaxSentences
	}
	if docTitle == nil {
		docTitle = func(string) string { return "" }
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		cfg:        cfg,
		structurer: structurer,
		pages:      pages,
		docTitle:   docTitle,
		meta:       meta,
		vectors:    vectors,
		embedder:   embedder,
		log:        log,
	}, nil
}

// IndexDocument structures, splits, embeds and stores one document,
// reporting milestones through progress (which may be nil).
//
// Structuring failures fall back to one section per page. An embedding or
// vector store failure is returned; metadata written before it stays.
func (s *Service) IndexDocument(ctx context.Context, req IndexRequest, progress ProgressFunc) (*IndexResult, error) {
	startTime := time.Now()
	if progress == nil {
		progress = func(int, string) {}
	}
	if req.OrigName == "" {
		req.OrigName = filepath.Base(req.Path)
	}
	log := s.log.With("docId", req.DocID)

	title, sections, outline, fallback, err := s.structure(ctx, req.Path, log)
	if err != nil {
		return nil, err
	}

	if err := s.meta.SaveSections(model.SectionsMeta{
		DocID:    req.DocID,
		Title:    title,
		OrigName: req.OrigName,
		Sections: sections,
	}); err != nil {
		return nil, fmt.Errorf("saving sections: %w", err)
	}
	if err := s.meta.SaveOutline(req.DocID, outline); err != nil {
		return nil, fmt.Errorf("saving outline: %w", err)
	}
	progress(model.ProgressStructured, fmt.Sprintf("%d sections", len(sections)))

	sentences := BuildSentences(sections, s.cfg.MinSentenceChars, s.cfg.MaxSentenceChars, s.cfg.MaxSentences)
	if err := s.meta.SaveSentences(model.SentencesMeta{DocID: req.DocID, Sentences: sentences}); err != nil {
		return nil, fmt.Errorf("saving sentences: %w", err)
	}
	progress(model.ProgressSentences, fmt.Sprintf("%d sentences", len(sentences)))

	var vectors [][]float32
	if len(sentences) > 0 {
		texts := make([]string, len(sentences))
		for i, sent := range sentences {
			texts[i] = sent.Text
		}
		vectors, err = s.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding sentences: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedding sentences: got %d vectors for %d sentences", len(vectors), len(texts))
		}
	}
	progress(model.ProgressEmbedded, "embedded")

	sectionTitles := make(map[string]string, len(sections))
	for _, sec := range sections {
		sectionTitles[sec.SectionID] = sec.Title
	}
	rows := make([]model.VectorRecord, len(sentences))
	for i, sent := range sentences {
		rows[i] = model.VectorRecord{
			DocID:        req.DocID,
			DocTitle:     title,
			DocOrigName:  req.OrigName,
			SectionID:    sent.SectionID,
			SectionTitle: sectionTitles[sent.SectionID],
			SentIdx:      i,
			Page:         sent.Page,
			Y:            sent.Y,
		}
	}
	if _, err := s.vectors.Add(ctx, vectors, rows); err != nil {
		return nil, fmt.Errorf("storing vectors: %w", err)
	}
	progress(model.ProgressStored, "stored")

	result := &IndexResult{
		DocID:     req.DocID,
		Title:     title,
		Sections:  len(sections),
		Sentences: len(sentences),
		Fallback:  fallback,
		Duration:  time.Since(startTime),
	}
	log.Info("Indexed document",
		"title", title,
		"sections", result.Sections,
		"sentences", result.Sentences,
		"fallback", fallback,
		"took", result.Duration)
	return result, nil
}

// structure runs the structuring pipeline, falling back to page sections
// when it fails or finds nothing. Only an unreadable file is an error.
func (s *Service) structure(ctx context.Context, path string, log logger.Logger) (string, []model.Section, model.Outline, bool, error) {
	res, err := s.structurer.Run(ctx, path)
	if err == nil && len(res.Sections) > 0 {
		title := res.SectionsTitle(path)
		return title, res.Sections, res.Outline, false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", nil, model.Outline{}, false, ctxErr
	}
	if err != nil {
		log.Warn("Structuring failed, using page sections", "error", err)
	} else {
		log.Info("No sections found, using page sections")
	}

	texts, perr := s.pages.PageTexts(ctx, path)
	if perr != nil {
		return "", nil, model.Outline{}, false, fmt.Errorf("reading page text: %w", perr)
	}
	title := s.docTitle(path)
	if title == "" {
		title = structure.Stem(path)
	}
	outline := model.Outline{Title: title, Outline: []model.OutlineEntry{}}
	if err == nil && res != nil {
		outline = res.Outline
	}
	return title, FallbackPageSections(structure.Stem(path), texts), outline, true, nil
}
