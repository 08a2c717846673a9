package main

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"askly/internal/chunker"
	"askly/internal/config"
	"askly/internal/domain"
	"askly/internal/embedding/gemini"
	"askly/internal/embedding/openai"
	"askly/internal/extractor"
	"askly/internal/llm/anthropic"
	llmgemini "askly/internal/llm/gemini"
	llmopenai "askly/internal/llm/openai"
	"askly/internal/logger"
	"askly/internal/service"
	"askly/internal/tagger"
	"askly/internal/vectorstore"
	"askly/internal/vectorstore/memory"
	"askly/internal/vectorstore/qdrant"
)

// app holds the components every command shares. Provider clients are
// built on demand so commands that never embed or generate need no keys.
type app struct {
	cfg     *config.AppConfig
	logger  *log.Logger
	gateway *vectorstore.Gateway
}

func loadConfig() (*config.AppConfig, string, error) {
	if cfgPath == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(cfgPath)
	return cfg, cfgPath, err
}

func newApp(logger *log.Logger) (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logger == nil {
		logger = newLogger(cfg)
	}
	st, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	gw := vectorstore.NewGateway(st, cfg.Embedder.Dimensions, cfg.VectorStore.UpsertBatchSize, logger)
	return &app{cfg: cfg, logger: logger, gateway: gw}, nil
}

func newLogger(cfg *config.AppConfig) *log.Logger {
	return logger.New(cfg.Log)
}

func buildStorage(cfg *config.AppConfig, logger *log.Logger) (vectorstore.Storage, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant", "":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    secs(q.TimeoutSecs),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "":
		p := cfg.Embedder.OpenAI
		if p == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    p.BaseURL,
			APIKeyEnv:  p.APIKeyEnv,
			Model:      p.Model,
			Dimensions: cfg.Embedder.Dimensions,
			Timeout:    secs(p.TimeoutSecs),
			MaxRetries: p.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "gemini":
		p := cfg.Embedder.Gemini
		if p == nil {
			return nil, fmt.Errorf("gemini embedder config missing")
		}
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKeyEnv:  p.APIKeyEnv,
			Model:      p.Model,
			Dimensions: cfg.Embedder.Dimensions,
			Timeout:    secs(p.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildModel(ctx context.Context, cfg *config.AppConfig) (domain.LanguageModel, error) {
	l := cfg.LLM
	switch l.Type {
	case "openai", "":
		if l.OpenAI == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		client, err := llmopenai.NewClient(llmopenai.Config{
			BaseURL:     l.OpenAI.BaseURL,
			APIKeyEnv:   l.OpenAI.APIKeyEnv,
			Model:       l.OpenAI.Model,
			Temperature: l.Temperature,
			MaxTokens:   l.MaxTokens,
			Timeout:     secs(l.OpenAI.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("openai llm init failed: %w", err)
		}
		return client, nil
	case "anthropic":
		if l.Anthropic == nil {
			return nil, fmt.Errorf("anthropic llm config missing")
		}
		client, err := anthropic.NewClient(anthropic.Config{
			BaseURL:     l.Anthropic.BaseURL,
			APIKeyEnv:   l.Anthropic.APIKeyEnv,
			Model:       l.Anthropic.Model,
			Temperature: l.Temperature,
			MaxTokens:   l.MaxTokens,
			Timeout:     secs(l.Anthropic.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic llm init failed: %w", err)
		}
		return client, nil
	case "gemini":
		if l.Gemini == nil {
			return nil, fmt.Errorf("gemini llm config missing")
		}
		client, err := llmgemini.NewClient(ctx, llmgemini.Config{
			APIKeyEnv:   l.Gemini.APIKeyEnv,
			Model:       l.Gemini.Model,
			Temperature: l.Temperature,
			MaxTokens:   l.MaxTokens,
			Timeout:     secs(l.Gemini.TimeoutSecs),
		})
		if err != nil {
			return nil, fmt.Errorf("gemini llm init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm: %s", l.Type)
	}
}

func (a *app) indexingService(ctx context.Context) (*service.IndexingService, error) {
	emb, err := buildEmbedder(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	ex := extractor.New(extractor.Config{
		Timeout:      secs(a.cfg.Extractor.TimeoutSecs),
		UserAgent:    a.cfg.Extractor.UserAgent,
		MaxBodyBytes: int64(a.cfg.Extractor.MaxBodyMB) << 20,
		YouTubeURL:   a.cfg.Extractor.YouTubeURL,
	})
	ch := chunker.NewRecursiveChunker(a.cfg.Chunker.ChunkSize, a.cfg.Chunker.ChunkOverlap)
	return service.NewIndexingService(ex, ch, tagger.New(), emb, a.gateway, service.IndexingOptions{
		EmbedBatchSize:   a.cfg.Embedder.BatchSize,
		EmbedConcurrency: a.cfg.Embedder.Concurrency,
		BatchConcurrency: a.cfg.Ingest.BatchConcurrency,
		BatchRate:        a.cfg.Ingest.BatchRate,
	}, a.logger), nil
}

func (a *app) queryService(ctx context.Context) (*service.QueryService, error) {
	emb, err := buildEmbedder(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	model, err := buildModel(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	return service.NewQueryService(emb, model, a.gateway, service.QueryOptions{
		TopK:            a.cfg.Retrieval.TopK,
		HistoryMessages: a.cfg.Retrieval.HistoryMessages,
	}, a.logger), nil
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
