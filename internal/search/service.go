// Package search implements hybrid retrieval over indexed section sentences:
// vector candidates are fused with BM25 relevance over their section text,
// optionally reweighted for a persona, and diversified with MMR.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/embedding"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/store"
)

// VectorIndex is the nearest-neighbour side of retrieval.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, topK int) ([]store.ScoredID, error)
	Resolve(ids []int) ([]model.VectorRecord, error)
}

// SentenceSource serves the per-document sentence metadata.
type SentenceSource interface {
	Sentences(docID string) ([]model.SentenceRecord, error)
	SectionText(docID, sectionID string, maxChars int) string
}

// Blocklist reports the document ids excluded from results.
type Blocklist interface {
	Blocked() map[string]struct{}
}

// Service answers related-content queries.
type Service struct {
	cfg       config.SearchConfig
	embedder  embedding.Embedder
	vectors   VectorIndex
	sentences SentenceSource
	blocklist Blocklist
	log       logger.Logger
}

// NewService creates a new search Service.
func NewService(cfg config.SearchConfig, embedder embedding.Embedder, vectors VectorIndex, sentences SentenceSource, blocklist Blocklist, log logger.Logger) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectors == nil {
		return nil, fmt.Errorf("vector index cannot be nil")
	}
	if sentences == nil {
		return nil, fmt.Errorf("sentence source cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		cfg:       cfg,
		embedder:  embedder,
		vectors:   vectors,
		sentences: sentences,
		blocklist: blocklist,
		log:       log,
	}, nil
}

// Search returns at most q.K hits for q, best first. It never pads the
// result: fewer candidates mean fewer hits, and no candidates an empty slice.
// An index without vectors yields errors.ErrIndexNotReady.
func (s *Service) Search(ctx context.Context, q model.SearchQuery) ([]model.Hit, error) {
	startTime := time.Now()

	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.NewValidationError("query", "cannot be empty")
	}
	k := q.K
	if k < 1 {
		k = 1
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	vectors, err := s.embedder.Embed(ctx, []string{q.Query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errors.NewEmbeddingError(s.embedder.ModelName(), fmt.Errorf("expected 1 query vector, got %d", len(vectors)))
	}

	topN := max(50, 10*k)
	scored, err := s.vectors.Search(ctx, vectors[0], topN)
	if err != nil {
		return nil, err
	}

	hits, err := s.candidates(scored, q.DocFilter)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		s.log.Debug("No candidates", "query", q.Query, "took", time.Since(startTime))
		return []model.Hit{}, nil
	}

	pool := s.fuse(hits, q.Query, max(40, 6*k))
	for i := range pool {
		pool[i].Snippet = s.snippet(pool[i])
	}

	persona := strings.TrimSpace(q.Persona)
	task := strings.TrimSpace(q.Task)
	if persona != "" || task != "" {
		pool = s.personaReweight(pool, q.Query, persona, task)
		if q.Deep {
			pool = s.deepReweight(pool, persona, task)
		}
	}

	results := mmr(pool, k, s.lambda())
	for i := range results {
		if results[i].SectionTitle == "" {
			results[i].SectionTitle = results[i].SectionID
		}
	}

	s.log.Debug("Search completed",
		"query", q.Query,
		"candidates", len(hits),
		"pool", len(pool),
		"hits", len(results),
		"deep", q.Deep,
		"took", time.Since(startTime))
	return results, nil
}

// candidates resolves the vector results and collapses them to the best
// sentence per (document, section), in vector-result order. Blocked and
// filtered-out documents are dropped.
func (s *Service) candidates(scored []store.ScoredID, docFilter []string) ([]model.Hit, error) {
	if len(scored) == 0 {
		return []model.Hit{}, nil
	}
	ids := make([]int, len(scored))
	scoreByID := make(map[int]float64, len(scored))
	for i, sc := range scored {
		ids[i] = sc.VecID
		scoreByID[sc.VecID] = sc.Score
	}
	rows, err := s.vectors.Resolve(ids)
	if err != nil {
		return nil, err
	}

	blocked := map[string]struct{}{}
	if s.blocklist != nil {
		blocked = s.blocklist.Blocked()
	}
	filter := docFilterSet(docFilter)

	type sectionKey struct{ doc, section string }
	position := make(map[sectionKey]int)
	hits := make([]model.Hit, 0, len(rows))
	for _, row := range rows {
		if _, ok := blocked[row.DocID]; ok {
			continue
		}
		if filter != nil {
			if _, ok := filter[row.DocID]; !ok {
				continue
			}
		}
		score := scoreByID[row.VecID]
		key := sectionKey{row.DocID, row.SectionID}
		if i, seen := position[key]; seen {
			if score > hits[i].VecScore {
				hits[i] = hitFromRow(row, score)
			}
			continue
		}
		position[key] = len(hits)
		hits = append(hits, hitFromRow(row, score))
	}
	return hits, nil
}

func hitFromRow(row model.VectorRecord, score float64) model.Hit {
	title := row.SectionTitle
	if title == "" {
		title = row.SectionID
	}
	return model.Hit{
		DocID:        row.DocID,
		DocTitle:     row.DocTitle,
		DocOrigName:  row.DocOrigName,
		SectionID:    row.SectionID,
		SectionTitle: title,
		SentIdx:      row.SentIdx,
		Page:         row.Page,
		Y:            row.Y,
		VecScore:     score,
	}
}

func (s *Service) snippet(h model.Hit) string {
	sents, err := s.sentences.Sentences(h.DocID)
	if err != nil {
		s.log.Warn("Failed to load sentences for snippet", "docId", h.DocID, "error", err)
		return ""
	}
	return Snippet(sents, h.SectionID, h.SentIdx, s.snippetMaxChars())
}

func (s *Service) lambda() float64 {
	if s.cfg.MMRLambda > 0 {
		return s.cfg.MMRLambda
	}
	return defaultLambda
}

func (s *Service) snippetMaxChars() int {
	if s.cfg.SnippetMaxChars > 0 {
		return s.cfg.SnippetMaxChars
	}
	return defaultSnippetChars
}

func (s *Service) sectionChars() int {
	if s.cfg.SectionTextChars > 0 {
		return s.cfg.SectionTextChars
	}
	return 1400
}

func (s *Service) deepChars() int {
	if s.cfg.DeepSectionChars > 0 {
		return s.cfg.DeepSectionChars
	}
	return 1800
}

// docFilterSet trims the requested document ids and drops blanks. It returns
// nil, meaning no filter, when no usable id is left.
func docFilterSet(ids []string) map[string]struct{} {
	var set map[string]struct{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(ids))
		}
		set[id] = struct{}{}
	}
	return set
}
