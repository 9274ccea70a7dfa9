package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client embeds documents through any OpenAI-compatible embeddings endpoint.
type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

const maxBatchSize = 256

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))
		batch := texts[start:end]

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: c.model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings (batch %d-%d): %w", start, end, err)
		}

		for _, emb := range resp.Data {
			if emb.Index < 0 || emb.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range for batch %d-%d", emb.Index, start, end)
			}
			vectors[start+emb.Index] = emb.Embedding
		}
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("no embedding returned for document %d", i)
		}
	}
	return vectors, nil
}
