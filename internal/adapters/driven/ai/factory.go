package ai

import (
	"fmt"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are required", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.EmbeddingProviderHash:
		return NewHashingEmbedding(settings.Dimensions, settings.BatchSize)
	case domain.EmbeddingProviderOpenAI:
		return NewOpenAIEmbedding(OpenAIConfig{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			BaseURL:    settings.BaseURL,
			Dimensions: settings.Dimensions,
			BatchSize:  settings.BatchSize,
			Timeout:    settings.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
