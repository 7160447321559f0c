package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-resty/resty/v2"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/errors"
)

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
// Requests are not retried: failures are surfaced to the caller.
type OpenAIEmbedder struct {
	client    *resty.Client
	model     string
	dims      int
	batchSize int
}

// NewOpenAIEmbedder builds an embedder for cfg.BaseURL.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 128
	}
	return &OpenAIEmbedder{
		client:    client,
		model:     cfg.Model,
		dims:      cfg.Dimensions,
		batchSize: batch,
	}
}

// Embed sends texts in batches and returns normalised vectors in input order.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.batchSize {
		end := min(start+o.batchSize, len(texts))
		vectors, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, errors.NewEmbeddingError(ProviderOpenAI, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (o *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var result embeddingResponse
	var apiErr apiErrorResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: o.model, Input: batch, Dimensions: o.dims}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode())
	}
	if len(result.Data) != len(batch) {
		return nil, fmt.Errorf("received %d embeddings for %d texts", len(result.Data), len(batch))
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	vectors := make([][]float32, len(batch))
	for i, d := range result.Data {
		if o.dims > 0 && len(d.Embedding) != o.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(d.Embedding), o.dims)
		}
		vectors[i] = Normalize(d.Embedding)
	}
	return vectors, nil
}

// Dimensions returns the configured vector size.
func (o *OpenAIEmbedder) Dimensions() int { return o.dims }

// ModelName returns the remote model name.
func (o *OpenAIEmbedder) ModelName() string { return o.model }
