package domain

import (
	"fmt"
	"time"
)

// EmbeddingProvider names an embedding backend
type EmbeddingProvider string

const (
	// EmbeddingProviderHash is the local deterministic feature-hashing embedder
	EmbeddingProviderHash EmbeddingProvider = "hash"
	// EmbeddingProviderOpenAI is any OpenAI-compatible /embeddings endpoint
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// EmbeddingSettings configures the embedder
type EmbeddingSettings struct {
	Provider   EmbeddingProvider `yaml:"provider"`
	Model      string            `yaml:"model"`
	BaseURL    string            `yaml:"base_url"`
	APIKey     string            `yaml:"api_key"`
	Dimensions int               `yaml:"dimensions"`
	BatchSize  int               `yaml:"batch_size"`
	Timeout    time.Duration     `yaml:"timeout"`
}

// DefaultEmbeddingSettings returns the local hashing embedder
func DefaultEmbeddingSettings() EmbeddingSettings {
	return EmbeddingSettings{
		Provider:   EmbeddingProviderHash,
		Dimensions: 256,
		BatchSize:  64,
		Timeout:    30 * time.Second,
	}
}

// Validate checks the settings are usable
func (s *EmbeddingSettings) Validate() error {
	switch s.Provider {
	case EmbeddingProviderHash:
		if s.Dimensions < 8 {
			return fmt.Errorf("%w: hash embedder needs at least 8 dimensions", ErrInvalidInput)
		}
	case EmbeddingProviderOpenAI:
		if s.APIKey == "" && s.BaseURL == "" {
			return fmt.Errorf("%w: openai embedder needs an api key or a base url", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, s.Provider)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	return nil
}
