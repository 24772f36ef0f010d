// Package config loads service settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"kadha/pkg/inference"
	"kadha/pkg/narrative"
)

var ErrMissingCredentials = errors.New("missing generation service credentials")

const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderMoonshot = "moonshot"
	ProviderKimi     = "kimi"
	// ProviderLocal talks to an OpenAI compatible server that needs no key, such as LM Studio.
	ProviderLocal = "local"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"kadha.db"`

	Provider string `env:"KADHA_PROVIDER" envDefault:"gemini"`

	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"GEMINI_MODEL"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel    string `env:"OPENAI_MODEL"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL" envDefault:"http://localhost:1234/v1"`
	MoonshotAPIKey string `env:"MOONSHOT_API_KEY"`
	MoonshotModel  string `env:"MOONSHOT_MODEL"`
	KimiAPIKey     string `env:"KIMI_API_KEY"`
	KimiModel      string `env:"KIMI_MODEL"`

	TargetWords      int           `env:"TARGET_WORDS" envDefault:"1100"`
	ChunkWords       int           `env:"CHUNK_WORDS" envDefault:"400"`
	Pace             time.Duration `env:"PACE" envDefault:"500ms"`
	Retries          int           `env:"CHUNK_RETRIES" envDefault:"0"`
	BatchConcurrency int           `env:"BATCH_CONCURRENCY" envDefault:"2"`
	TotalParts       int           `env:"TOTAL_PARTS" envDefault:"50"`
	SummaryPage      int           `env:"SUMMARY_PAGE" envDefault:"5"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

// Validate fails fast on settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingCredentials)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required", ErrMissingCredentials)
		}
	case ProviderMoonshot:
		if c.MoonshotAPIKey == "" {
			return fmt.Errorf("%w: MOONSHOT_API_KEY is required", ErrMissingCredentials)
		}
	case ProviderKimi:
		if c.KimiAPIKey == "" {
			return fmt.Errorf("%w: KIMI_API_KEY is required", ErrMissingCredentials)
		}
	case ProviderLocal:
		if c.OpenAIBaseURL == "" {
			return errors.New("OPENAI_BASE_URL is required for the local provider")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch {
	case c.TargetWords < 0:
		return errors.New("TARGET_WORDS must not be negative")
	case c.ChunkWords <= 0:
		return errors.New("CHUNK_WORDS must be positive")
	case c.Pace < 0:
		return errors.New("PACE must not be negative")
	case c.Retries < 0:
		return errors.New("CHUNK_RETRIES must not be negative")
	case c.BatchConcurrency <= 0:
		return errors.New("BATCH_CONCURRENCY must be positive")
	case c.TotalParts <= 0:
		return errors.New("TOTAL_PARTS must be positive")
	case c.SummaryPage <= 0:
		return errors.New("SUMMARY_PAGE must be positive")
	}
	return nil
}

// Level maps LOG_LEVEL onto a logger level, defaulting to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Narrative returns the loop options for the configured pacing and retries.
func (c *Config) Narrative() narrative.Options {
	return narrative.Options{
		Pacer:   narrative.Delay(c.Pace),
		Retries: c.Retries,
	}
}

// NewGenerator builds the backend selected by KADHA_PROVIDER.
func (c *Config) NewGenerator(ctx context.Context) (inference.Generator, error) {
	switch c.Provider {
	case ProviderGemini:
		return inference.NewGeminiGenerator(ctx, c.GeminiAPIKey, c.GeminiModel)
	case ProviderOpenAI:
		return inference.NewOpenAIGenerator(c.OpenAIAPIKey, c.OpenAIModel), nil
	case ProviderMoonshot:
		return inference.NewMoonshotGenerator(c.MoonshotAPIKey, c.MoonshotModel), nil
	case ProviderKimi:
		return inference.NewKimiGenerator(c.KimiAPIKey, c.KimiModel), nil
	case ProviderLocal:
		gen := inference.NewOpenAIGenerator("", c.OpenAIModel)
		gen.ChangeBaseURL(c.OpenAIBaseURL)
		if c.OpenAIModel == "" {
			gen.SetModel("")
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}
}
