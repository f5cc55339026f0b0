package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return vectors[0], nil
}

// EmbedBatch returns embeddings for multiple texts in one call. Results come
// back in input order, one vector per text; a blank text is rejected up front
// so the result always maps 1:1 onto the input. The caller is responsible for
// keeping batches within the provider's size limit.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts for embedding")
	}
	trimmed := make([]string, len(texts))
	for i, t := range texts {
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, fmt.Errorf("blank text at index %d", i)
		}
		trimmed[i] = s
	}

	reqBody := map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": trimmed,
	}
	raw, err := c.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}
	if len(parsed.Data) != len(trimmed) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(trimmed))
	}

	result := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(result) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		result[d.Index] = d.Embedding
	}
	for i, v := range result {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
	}
	return result, nil
}
