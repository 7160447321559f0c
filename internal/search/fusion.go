package search

import (
	"sort"

	"github.com/gcbaptista/prism/index"
	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

// minMax rescales values to [0, 1]. A constant (or single-valued) input maps
// to all ones.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi <= lo+1e-12 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo + 1e-12)
	}
	return out
}

// fuse scores the collapsed candidates lexically against query, blends the
// normalised vector and BM25 scores, applies the per-document repeat
// penalty in candidate order and returns the best poolSize hits.
func (s *Service) fuse(hits []model.Hit, query string, poolSize int) []model.Hit {
	corpus := make([][]string, len(hits))
	anyTokens := false
	for i, h := range hits {
		corpus[i] = tokenizer.Tokenize(s.sentences.SectionText(h.DocID, h.SectionID, s.sectionChars()))
		anyTokens = anyTokens || len(corpus[i]) > 0
	}

	lexical := make([]float64, len(hits))
	if anyTokens {
		lexical = index.NewInvertedIndex(corpus).Scores(tokenizer.Tokenize(query))
	}
	vec := make([]float64, len(hits))
	for i, h := range hits {
		vec[i] = h.VecScore
	}
	vecN, lexN := minMax(vec), minMax(lexical)

	alpha := s.cfg.VectorWeight
	if alpha <= 0 {
		alpha = 0.65
	}
	penalty := s.cfg.DocPenalty
	if penalty <= 0 {
		penalty = 0.15
	}

	seen := make(map[string]int)
	for i := range hits {
		h := &hits[i]
		h.LexScore = lexical[i]
		h.FusedScore = alpha*vecN[i] + (1-alpha)*lexN[i] - penalty*float64(seen[h.DocID])
		h.Score = h.FusedScore
		h.Tokens = tokenizer.Set(corpus[i])
		seen[h.DocID]++
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if a.DocID != b.DocID {
			return a.DocID < b.DocID
		}
		return a.SectionID < b.SectionID
	})
	if len(hits) > poolSize {
		hits = hits[:poolSize]
	}
	return hits
}

// sortByScore orders hits by Score, best first, keeping the current order
// among equal scores.
func sortByScore(hits []model.Hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
}
