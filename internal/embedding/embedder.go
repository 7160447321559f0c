// Package embedding provides the text embedding collaborators used for
// indexing and retrieval.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/logger"
)

// Embedder turns texts into L2-normalised vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// Provider names accepted in configuration.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

// New builds the configured embedder, wrapped in an LRU cache when
// cfg.CacheSize is positive.
func New(cfg config.EmbeddingConfig, log logger.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case ProviderHashing, "":
		base = NewHashingEmbedder(cfg.Dimensions)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider %q requires an API key", cfg.Provider)
		}
		base = NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	log.Info("Embedding provider ready", "provider", cfg.Provider, "model", base.ModelName(), "dimensions", base.Dimensions())
	if cfg.CacheSize <= 0 {
		return base, nil
	}
	return NewCachedEmbedder(base, cfg.CacheSize)
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Dot returns the inner product of a and b over their common length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := 0; i < len(a) && i < len(b); i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
