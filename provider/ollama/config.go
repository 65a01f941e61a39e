// Package ollama provides embedding and generation services backed by a
// local or remote Ollama server.
package ollama

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/siherrmann/paperrag/helper"
)

// Default configuration values.
const (
	DefaultBaseURL      = "http://localhost:11434"
	DefaultEmbedModel   = "nomic-embed-text"
	DefaultEmbedDim     = 768
	DefaultLLMModel     = "llama3.2"
	DefaultEmbedTimeout = 30 * time.Second
	DefaultLLMTimeout   = 120 * time.Second
)

// Config holds configuration for the Ollama services.
// Read from OLLAMA_* environment variables.
type Config struct {
	BaseURL      string        `envconfig:"URL" default:"http://localhost:11434"`
	EmbedModel   string        `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`
	EmbedDim     int           `envconfig:"EMBED_DIM" default:"768"`
	LLMModel     string        `envconfig:"LLM_MODEL" default:"llama3.2"`
	EmbedTimeout time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	LLMTimeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
}

// NewConfigFromEnv loads the Ollama configuration from the environment.
// A .env file in the working directory is honored when present.
func NewConfigFromEnv() (*Config, error) {
	_ = godotenv.Load(".env")

	config := &Config{}
	err := envconfig.Process("ollama", config)
	if err != nil {
		return nil, helper.NewError("process env config", err)
	}

	return config, nil
}
