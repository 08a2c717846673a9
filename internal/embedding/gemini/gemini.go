package gemini

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"askly/internal/domain"
)

// Client embeds text with the Gemini embedding API.
type Client struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
}

// Config configures the Gemini embeddings client.
type Config struct {
	APIKeyEnv  string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, dimension: cfg.Dimensions, timeout: cfg.Timeout}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Dimension() int { return c.dimension }

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if c.dimension > 0 {
		dim := int32(c.dimension)
		cfg.OutputDimensionality = &dim
	}
	result, err := c.client.Models.EmbedContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embeddings: %v", domain.ErrEmbedding, err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned an unexpected number of embeddings", domain.ErrEmbedding)
	}
	vectors := make([][]float32, len(texts))
	for i, e := range result.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: gemini returned an empty embedding", domain.ErrEmbedding)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
