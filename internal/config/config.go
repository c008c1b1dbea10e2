// Package config loads Mother's runtime configuration from environment
// variables, following vanducng-goclaw's env-first configuration style.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ModelPricing is one MODELS_JSON entry: the context window a model's usage
// ratio is computed against, plus its per-million-token pricing for cost
// accumulation.
type ModelPricing struct {
	ContextWindow     int     `json:"context_window"`
	InputCostPerMTok  float64 `json:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `json:"output_cost_per_mtok"`
}

// Config holds every setting Mother reads from its environment.
type Config struct {
	BotToken string
	GuildID  string

	ModelProvider string // "anthropic" or "openai"
	ModelID       string
	LLMURL        string // base URL for openai-compatible backends
	APIKey        string
	Models        map[string]ModelPricing // from MODELS_JSON, keyed by model id

	AllowedPaths    []string // extra path-guard prefixes, beyond workspace and /tmp
	AllowedCommands string   // raw ±prefixed env value, applied to the command guard

	DelegateBinary string
}

// Load reads Config from the process environment, applying the defaults
// vanducng-goclaw's cmd layer uses for an unset MODEL_PROVIDER/MODEL_ID.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		GuildID:         os.Getenv("GUILD_ID"),
		ModelProvider:   envDefault("MODEL_PROVIDER", "anthropic"),
		ModelID:         envDefault("MODEL_ID", "claude-sonnet-4-5"),
		LLMURL:          os.Getenv("LLM_URL"),
		APIKey:          os.Getenv("API_KEY"),
		AllowedCommands: os.Getenv("ALLOWED_COMMANDS"),
		DelegateBinary:  envDefault("DELEGATE_BINARY", "claude"),
	}

	if paths := os.Getenv("ALLOWED_PATHS"); paths != "" {
		cfg.AllowedPaths = strings.Split(paths, ":")
	}

	if raw := os.Getenv("MODELS_JSON"); raw != "" {
		var models map[string]ModelPricing
		if err := json.Unmarshal([]byte(raw), &models); err != nil {
			return nil, fmt.Errorf("parse MODELS_JSON: %w", err)
		}
		cfg.Models = models
	}

	if cfg.ModelProvider == "openai" && cfg.LLMURL == "" {
		return nil, fmt.Errorf("LLM_URL is required when MODEL_PROVIDER=openai")
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
