package search

import (
	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

const (
	defaultLambda = 0.78
	// mmrSimScale amplifies token-set similarity so it competes with scores.
	mmrSimScale = 3.0
)

// mmr greedily selects up to k hits maximising
// lambda*score - (1-lambda)*3*max Jaccard(tokens, selected tokens).
// The earliest hit wins ties.
func mmr(pool []model.Hit, k int, lambda float64) []model.Hit {
	remaining := make([]model.Hit, len(pool))
	copy(remaining, pool)
	selected := make([]model.Hit, 0, min(k, len(pool)))

	for len(remaining) > 0 && len(selected) < k {
		best := -1
		bestVal := -1e9
		for i, c := range remaining {
			penalty := 0.0
			if len(selected) > 0 {
				var sim float64
				for _, sel := range selected {
					sim = max(sim, tokenizer.JaccardSorted(c.Tokens, sel.Tokens))
				}
				penalty = (1 - lambda) * mmrSimScale * sim
			}
			if val := lambda*c.Score - penalty; val > bestVal {
				best, bestVal = i, val
			}
		}
		if best < 0 {
			// every remaining value is below the floor; take them in order
			best = 0
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}
