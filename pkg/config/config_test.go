package config

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadha/pkg/inference"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KADHA_PROVIDER", " Gemini ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "kadha.db", cfg.DatabaseURL)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, 1100, cfg.TargetWords)
	assert.Equal(t, 400, cfg.ChunkWords)
	assert.Equal(t, 500*time.Millisecond, cfg.Pace)
	assert.Zero(t, cfg.Retries)
	assert.Equal(t, 2, cfg.BatchConcurrency)
	assert.Equal(t, 50, cfg.TotalParts)
	assert.Equal(t, 5, cfg.SummaryPage)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("PACE", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidateCredentials(t *testing.T) {
	for _, provider := range []string{ProviderGemini, ProviderOpenAI, ProviderMoonshot, ProviderKimi} {
		t.Run(provider, func(t *testing.T) {
			t.Setenv("KADHA_PROVIDER", provider)
			cfg, err := Load()
			require.NoError(t, err)
			cfg.GeminiAPIKey, cfg.OpenAIAPIKey, cfg.MoonshotAPIKey, cfg.KimiAPIKey = "", "", "", ""
			assert.ErrorIs(t, cfg.Validate(), ErrMissingCredentials)
		})
	}

	t.Setenv("KADHA_PROVIDER", ProviderLocal)
	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidateSettings(t *testing.T) {
	t.Setenv("KADHA_PROVIDER", ProviderLocal)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.ChunkWords = 0
	assert.ErrorContains(t, cfg.Validate(), "CHUNK_WORDS")

	cfg.ChunkWords = 400
	cfg.BatchConcurrency = 0
	assert.ErrorContains(t, cfg.Validate(), "BATCH_CONCURRENCY")

	cfg.BatchConcurrency = 1
	cfg.Provider = "bard"
	assert.ErrorContains(t, cfg.Validate(), "unknown provider")
}

func TestLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, log.DebugLevel, cfg.Level())
	cfg.LogLevel = "loud"
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestNewGenerator(t *testing.T) {
	cfg := &Config{Provider: ProviderKimi, KimiAPIKey: "k"}
	gen, err := cfg.NewGenerator(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kimi-for-coding", gen.(*inference.OpenAIGenerator).Model())

	cfg = &Config{Provider: ProviderLocal, OpenAIBaseURL: "http://localhost:1234/v1"}
	gen, err = cfg.NewGenerator(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gen.(*inference.OpenAIGenerator).Model())

	cfg = &Config{Provider: ProviderOpenAI, OpenAIAPIKey: "k", OpenAIModel: "gpt-4.1"}
	gen, err = cfg.NewGenerator(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", gen.(*inference.OpenAIGenerator).Model())
}
