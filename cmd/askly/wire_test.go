package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askly/internal/config"
	"askly/internal/logger"
	"askly/internal/vectorstore/memory"
	"askly/internal/vectorstore/qdrant"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	return cfg
}

func TestBuildStorage(t *testing.T) {
	cfg := testConfig(t)

	st, err := buildStorage(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Storage{}, st)

	cfg.VectorStore.Type = "memory"
	st, err = buildStorage(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, st)

	cfg.VectorStore.Type = "pinecone"
	_, err = buildStorage(cfg, logger.Discard())
	assert.ErrorContains(t, err, "unknown vector store")
}

func TestBuildProvidersNeedKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embedder.OpenAI.APIKeyEnv = "ASKLY_TEST_UNSET_KEY"
	cfg.LLM.OpenAI.APIKeyEnv = "ASKLY_TEST_UNSET_KEY"
	t.Setenv("ASKLY_TEST_UNSET_KEY", "")

	_, err := buildEmbedder(context.Background(), cfg)
	assert.ErrorContains(t, err, "ASKLY_TEST_UNSET_KEY")
	_, err = buildModel(context.Background(), cfg)
	assert.ErrorContains(t, err, "ASKLY_TEST_UNSET_KEY")

	t.Setenv("ASKLY_TEST_KEY", "sk-test")
	cfg.Embedder.OpenAI.APIKeyEnv = "ASKLY_TEST_KEY"
	cfg.LLM.OpenAI.APIKeyEnv = "ASKLY_TEST_KEY"
	emb, err := buildEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Embedder.Dimensions, emb.Dimension())
	model, err := buildModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", model.Name())

	cfg.LLM.Type = "mystery"
	_, err = buildModel(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown llm")
}
