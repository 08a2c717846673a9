package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string `yaml:"addr" validate:"required"`
	UserHeader       string `yaml:"user_header" validate:"required"`
	MaxUploadMB      int    `yaml:"max_upload_mb" validate:"gt=0"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs" validate:"gte=0"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs" validate:"gte=0"`
}

// ProviderConfig holds connection details for a hosted model API. Secrets
// are referenced by environment variable name.
type ProviderConfig struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries,omitempty" validate:"gte=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string          `yaml:"type" validate:"oneof=openai gemini"`
	Dimensions  int             `yaml:"dimensions" validate:"gt=0"`
	BatchSize   int             `yaml:"batch_size" validate:"gt=0"`
	Concurrency int             `yaml:"concurrency" validate:"gt=0"`
	OpenAI      *ProviderConfig `yaml:"openai,omitempty"`
	Gemini      *ProviderConfig `yaml:"gemini,omitempty"`
}

// LLMConfig selects and configures the language model.
type LLMConfig struct {
	Type        string          `yaml:"type" validate:"oneof=openai anthropic gemini"`
	Temperature *float64        `yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int             `yaml:"max_tokens" validate:"gt=0"`
	OpenAI      *ProviderConfig `yaml:"openai,omitempty"`
	Anthropic   *ProviderConfig `yaml:"anthropic,omitempty"`
	Gemini      *ProviderConfig `yaml:"gemini,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type            string        `yaml:"type" validate:"oneof=qdrant memory"`
	UpsertBatchSize int           `yaml:"upsert_batch_size" validate:"gt=0"`
	Qdrant          *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" validate:"required,url"`
	APIKey      string `yaml:"api_key,omitempty"`
	Collection  string `yaml:"collection" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// ExtractorConfig configures remote source fetching.
type ExtractorConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gt=0"`
	UserAgent   string `yaml:"user_agent"`
	MaxBodyMB   int    `yaml:"max_body_mb" validate:"gt=0"`
	YouTubeURL  string `yaml:"youtube_url,omitempty"`
}

// RetrievalConfig tunes question answering.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k" validate:"gt=0,lte=100"`
	HistoryMessages int `yaml:"history_messages" validate:"gte=0"`
}

// IngestConfig tunes batch ingestion.
type IngestConfig struct {
	BatchConcurrency int     `yaml:"batch_concurrency" validate:"gt=0"`
	BatchRate        float64 `yaml:"batch_rate" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied and the result is validated.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return finish(cfg)
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return finish(&cfg)
}

// LoadDefault tries ./config.yaml first, then ~/.config/askly/config.yaml.
// If neither exists, it writes defaults to ~/.config/askly/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	cfg, err = finish(cfg)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks field constraints and provider sections.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant == nil {
		return errors.New("invalid config: vector_store.qdrant section missing")
	}
	return nil
}

func finish(cfg *AppConfig) (*AppConfig, error) {
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{Collection: "askly-documents"}
		}
		cfg.VectorStore.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" && cfg.VectorStore.Qdrant != nil {
		cfg.VectorStore.Qdrant.APIKey = v
	}
	if v := os.Getenv("ASKLY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "askly", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type:   "openai",
			OpenAI: &ProviderConfig{},
		},
		LLM: LLMConfig{
			Type:   "openai",
			OpenAI: &ProviderConfig{},
		},
		VectorStore: VectorStoreConfig{
			Type:   "qdrant",
			Qdrant: &QdrantConfig{URL: "http://localhost:6333"},
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.UserHeader == "" {
		cfg.Server.UserHeader = "X-User-ID"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 60
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 300
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Dimensions == 0 {
		cfg.Embedder.Dimensions = 3072
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.Embedder.Concurrency == 0 {
		cfg.Embedder.Concurrency = 4
	}
	switch cfg.Embedder.Type {
	case "openai":
		cfg.Embedder.OpenAI = providerDefaults(cfg.Embedder.OpenAI, "https://api.openai.com/v1", "OPENAI_API_KEY", "text-embedding-3-large", 30)
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 3
		}
	case "gemini":
		cfg.Embedder.Gemini = providerDefaults(cfg.Embedder.Gemini, "", "GEMINI_API_KEY", "gemini-embedding-001", 30)
	}

	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	switch cfg.LLM.Type {
	case "openai":
		cfg.LLM.OpenAI = providerDefaults(cfg.LLM.OpenAI, "https://api.openai.com/v1", "OPENAI_API_KEY", "gpt-4o-mini", 60)
	case "anthropic":
		cfg.LLM.Anthropic = providerDefaults(cfg.LLM.Anthropic, "", "ANTHROPIC_API_KEY", "claude-3-5-haiku-latest", 60)
	case "gemini":
		cfg.LLM.Gemini = providerDefaults(cfg.LLM.Gemini, "", "GEMINI_API_KEY", "gemini-2.0-flash", 60)
	}

	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
		if cfg.Chunker.ChunkOverlap == 0 {
			cfg.Chunker.ChunkOverlap = 200
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.UpsertBatchSize == 0 {
		cfg.VectorStore.UpsertBatchSize = 256
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "askly-documents"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}

	if cfg.Extractor.TimeoutSecs == 0 {
		cfg.Extractor.TimeoutSecs = 10
	}
	if cfg.Extractor.UserAgent == "" {
		cfg.Extractor.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if cfg.Extractor.MaxBodyMB == 0 {
		cfg.Extractor.MaxBodyMB = 10
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 8
	}
	if cfg.Retrieval.HistoryMessages == 0 {
		cfg.Retrieval.HistoryMessages = 6
	}
	if cfg.Ingest.BatchConcurrency == 0 {
		cfg.Ingest.BatchConcurrency = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func providerDefaults(p *ProviderConfig, baseURL, keyEnv, model string, timeoutSecs int) *ProviderConfig {
	if p == nil {
		p = &ProviderConfig{}
	}
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = keyEnv
	}
	if p.Model == "" {
		p.Model = model
	}
	if p.TimeoutSecs == 0 {
		p.TimeoutSecs = timeoutSecs
	}
	return p
}
