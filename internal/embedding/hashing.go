package embedding

import (
	"context"
	"hash/fnv"

	"github.com/gcbaptista/prism/internal/tokenizer"
)

// HashingEmbedder is a deterministic, dependency-free embedder: unigrams and
// bigrams of the lexical tokens are hashed into a signed bag of features.
// Texts sharing vocabulary get a positive inner product, which is enough for
// local use and tests.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder returns a hashing embedder producing dims-sized vectors.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &HashingEmbedder{dims: dims}
}

// Embed never fails except on a cancelled context.
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	tokens := tokenizer.Tokenize(text)
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return Normalize(v)
}

func (h *HashingEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Dimensions returns the vector size.
func (h *HashingEmbedder) Dimensions() int { return h.dims }

// ModelName identifies the hashing scheme.
func (h *HashingEmbedder) ModelName() string { return "hashing-fnv64a" }
