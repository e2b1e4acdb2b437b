package ai

import (
	"errors"
	"testing"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

func TestFactory_CreateEmbeddingService_NilSettings(t *testing.T) {
	_, err := NewFactory().CreateEmbeddingService(nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFactory_CreateEmbeddingService_Hash(t *testing.T) {
	settings := domain.DefaultEmbeddingSettings()

	svc, err := NewFactory().CreateEmbeddingService(&settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*HashingEmbedding); !ok {
		t.Fatalf("expected *HashingEmbedding, got %T", svc)
	}
	if svc.Model() != "hash-v1-256" {
		t.Errorf("unexpected model %s", svc.Model())
	}
}

func TestFactory_CreateEmbeddingService_OpenAI(t *testing.T) {
	settings := &domain.EmbeddingSettings{
		Provider:  domain.EmbeddingProviderOpenAI,
		APIKey:    "sk-test",
		Model:     "text-embedding-3-large",
		BatchSize: 32,
	}

	svc, err := NewFactory().CreateEmbeddingService(settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "text-embedding-3-large" || svc.MaxBatchSize() != 32 {
		t.Errorf("unexpected service: model=%s batch=%d", svc.Model(), svc.MaxBatchSize())
	}
}

func TestFactory_CreateEmbeddingService_OpenAIMissingKey(t *testing.T) {
	settings := &domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOpenAI, BatchSize: 8}

	_, err := NewFactory().CreateEmbeddingService(settings)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFactory_CreateEmbeddingService_InvalidProvider(t *testing.T) {
	settings := &domain.EmbeddingSettings{Provider: "cohere", BatchSize: 8}

	_, err := NewFactory().CreateEmbeddingService(settings)
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestFactory_ImplementsInterface(t *testing.T) {
	var _ driven.AIServiceFactory = NewFactory()
}
