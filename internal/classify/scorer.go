package classify

import "math"

// HeadingScorer estimates the probability that a span is a heading.
type HeadingScorer interface {
	Probability(f FeatureVector) float64
}

// LinearScorer is a logistic model over the feature vector.
type LinearScorer struct {
	Weights FeatureVector
	Bias    float64
}

// DefaultScorer returns the stock heading model.
func DefaultScorer() LinearScorer {
	return LinearScorer{
		Weights: FeatureVector{2.1, 1.3, 0.4, -0.5, 1.7, 2.4},
		Bias:    -2.0,
	}
}

// Probability returns sigmoid(w·f + b).
func (l LinearScorer) Probability(f FeatureVector) float64 {
	logit := l.Bias
	for i, w := range l.Weights {
		logit += w * f[i]
	}
	return 1 / (1 + math.Exp(-logit))
}
