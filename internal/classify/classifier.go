package classify

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/prism/model"
)

const (
	defaultMinProbability = 0.45
	defaultMinFontZ       = 0.5
	defaultMaxLevels      = 4
	maxHeadingDepth       = 6
)

// Classifier picks heading spans and assigns their levels.
type Classifier struct {
	Scorer    HeadingScorer
	Clusterer Clusterer
	// MinProbability and MinFontZ are the keep thresholds; a span passing
	// either one is a candidate.
	MinProbability float64
	MinFontZ       float64
	MaxLevels      int
}

// NewClassifier returns a classifier with the stock scorer and clusterer.
func NewClassifier() *Classifier {
	return &Classifier{
		Scorer:         DefaultScorer(),
		Clusterer:      KMeans1D{},
		MinProbability: defaultMinProbability,
		MinFontZ:       defaultMinFontZ,
		MaxLevels:      defaultMaxLevels,
	}
}

// Predict returns the heading candidates among spans with a level set.
// Candidates kept by the model come first, followed by spans that were
// rejected but carry a dotted section number.
func (c *Classifier) Predict(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return []model.Span{}
	}

	features := Features(spans)
	cand := make([]model.Span, 0, len(spans))
	var rejected []model.Span
	for i, s := range spans {
		if c.Scorer.Probability(features[i]) >= c.MinProbability || features[i][0] >= c.MinFontZ {
			cand = append(cand, s)
		} else {
			rejected = append(rejected, s)
		}
	}
	for _, s := range rejected {
		if HasSectionNumber(s.Text) {
			cand = append(cand, s)
		}
	}
	if len(cand) == 0 {
		return []model.Span{}
	}

	sizes := make([]float64, len(cand))
	for i, s := range cand {
		sizes[i] = s.FontSize
	}
	k := min(c.MaxLevels, len(distinctSorted(sizes)))
	labels, _ := c.Clusterer.Cluster(sizes, k)
	levels := LevelMap(clusterMeans(sizes, labels))

	for i := range cand {
		if cand[i].Level != "" {
			continue
		}
		if i < len(labels) {
			if lvl, ok := levels[labels[i]]; ok {
				cand[i].Level = lvl
				continue
			}
		}
		cand[i].Level = depthLevel(cand[i].Text)
	}
	return cand
}

// clusterMeans returns the mean size of each non-empty cluster.
func clusterMeans(sizes []float64, labels []int) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, lab := range labels {
		sums[lab] += sizes[i]
		counts[lab]++
	}
	means := make(map[int]float64, len(sums))
	for lab, sum := range sums {
		means[lab] = sum / float64(counts[lab])
	}
	return means
}

// LevelMap maps clusters to heading levels from their mean font size.
// Clusters close to the largest mean are H1; every other cluster ranks below
// the non-H1 clusters with a larger mean.
func LevelMap(means map[int]float64) map[int]string {
	var maxMu float64
	for _, mu := range means {
		maxMu = max(maxMu, mu)
	}
	levels := make(map[int]string, len(means))
	for lab, mu := range means {
		if mu >= 0.88*maxMu || maxMu-mu <= 1.2 {
			levels[lab] = model.LevelH1
			continue
		}
		rank := 2
		for _, other := range means {
			if other > mu && other < 0.88*maxMu {
				rank++
			}
		}
		levels[lab] = fmt.Sprintf("H%d", min(rank, maxHeadingDepth))
	}
	return levels
}

// depthLevel derives a level from the dots in the first token ("2.3.1" is H3).
func depthLevel(text string) string {
	first, _, _ := strings.Cut(text, " ")
	return fmt.Sprintf("H%d", min(strings.Count(first, ".")+1, maxHeadingDepth))
}
