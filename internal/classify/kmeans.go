package classify

import (
	"math"
	"sort"
)

// Clusterer groups font sizes into at most k clusters. Labels index into the
// returned centers.
type Clusterer interface {
	Cluster(values []float64, k int) (labels []int, centers []float64)
}

// KMeans1D is a deterministic one-dimensional k-means. Centers are seeded at
// evenly spaced quantiles of the distinct values, so equal input always
// yields equal clusters.
type KMeans1D struct {
	MaxIter int
}

// Cluster runs Lloyd iterations until assignments stop changing.
func (km KMeans1D) Cluster(values []float64, k int) ([]int, []float64) {
	if len(values) == 0 || k <= 0 {
		return nil, nil
	}
	distinct := distinctSorted(values)
	k = min(k, len(distinct))

	centers := make([]float64, k)
	for i := range centers {
		idx := 0
		if k > 1 {
			idx = i * (len(distinct) - 1) / (k - 1)
		}
		centers[i] = distinct[idx]
	}

	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	labels := make([]int, len(values))
	for iter := 0; iter < maxIter; iter++ {
		changed := iter == 0
		for i, v := range values {
			best := nearest(centers, v)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]float64, k)
		counts := make([]int, k)
		for i, v := range values {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = sums[c] / float64(counts[c])
			}
		}
	}
	return labels, centers
}

// nearest returns the index of the closest center; ties go to the lower index.
func nearest(centers []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, mu := range centers {
		if d := math.Abs(v - mu); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func distinctSorted(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
