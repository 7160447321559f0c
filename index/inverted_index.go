package index

import (
	"math"
	"sort"
)

// BM25 Okapi parameters.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// InvertedIndex maps a term to the corpus documents containing it. It is
// built once over a small tokenised corpus (the candidate sections of one
// query) and scored with BM25 Okapi; it is not safe for concurrent mutation.
type InvertedIndex struct {
	Index   map[string]PostingList
	DocLens []int

	K1      float64
	B       float64
	Epsilon float64

	avgDocLen float64
	idf       map[string]float64
}

// NewInvertedIndex indexes corpus, where corpus[i] holds the tokens of
// document i.
func NewInvertedIndex(corpus [][]string) *InvertedIndex {
	ii := &InvertedIndex{
		Index:   make(map[string]PostingList),
		DocLens: make([]int, len(corpus)),
		K1:      DefaultK1,
		B:       DefaultB,
		Epsilon: DefaultEpsilon,
	}

	total := 0
	for docID, tokens := range corpus {
		ii.DocLens[docID] = len(tokens)
		total += len(tokens)

		positions := make(map[string][]int)
		var order []string
		for pos, tok := range tokens {
			if _, seen := positions[tok]; !seen {
				order = append(order, tok)
			}
			positions[tok] = append(positions[tok], pos)
		}
		for _, tok := range order {
			ii.Index[tok] = append(ii.Index[tok], PostingEntry{
				DocID:     uint32(docID),
				Score:     float64(len(positions[tok])),
				Positions: positions[tok],
			})
		}
	}
	if len(corpus) > 0 {
		ii.avgDocLen = float64(total) / float64(len(corpus))
	}
	ii.computeIDF()
	return ii
}

// computeIDF fills the idf table. Terms occurring in more than half of the
// corpus get a negative raw idf; those are floored at Epsilon times the mean
// idf over all terms.
func (ii *InvertedIndex) computeIDF() {
	n := float64(len(ii.DocLens))
	ii.idf = make(map[string]float64, len(ii.Index))

	// Summed in term order so the floor is identical across runs.
	terms := make([]string, 0, len(ii.Index))
	for term := range ii.Index {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var sum float64
	var negative []string
	for _, term := range terms {
		df := float64(len(ii.Index[term]))
		idf := math.Log(n-df+0.5) - math.Log(df+0.5)
		ii.idf[term] = idf
		sum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	if len(ii.idf) == 0 {
		return
	}
	floor := ii.Epsilon * sum / float64(len(ii.idf))
	for _, term := range negative {
		ii.idf[term] = floor
	}
}

// Len returns the number of documents in the corpus.
func (ii *InvertedIndex) Len() int { return len(ii.DocLens) }

// IDF returns the (floored) inverse document frequency of term, 0 for
// unknown terms.
func (ii *InvertedIndex) IDF(term string) float64 { return ii.idf[term] }

// Scores returns the BM25 score of every document for the query tokens.
// Repeated query tokens contribute repeatedly. A corpus without any tokens
// scores all zeros.
func (ii *InvertedIndex) Scores(query []string) []float64 {
	scores := make([]float64, len(ii.DocLens))
	if ii.avgDocLen == 0 {
		return scores
	}
	for _, term := range query {
		idf, ok := ii.idf[term]
		if !ok {
			continue
		}
		for _, p := range ii.Index[term] {
			tf := p.Score
			dl := float64(ii.DocLens[p.DocID])
			norm := tf + ii.K1*(1-ii.B+ii.B*dl/ii.avgDocLen)
			scores[p.DocID] += idf * (tf * (ii.K1 + 1) / norm)
		}
	}
	return scores
}
