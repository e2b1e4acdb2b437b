package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// Services holds the active embedding service so it can be swapped (for
// example after a model change) without rebuilding the services that use it.
// Safe for concurrent use.
type Services struct {
	mu sync.RWMutex

	config           *domain.RuntimeConfig
	embeddingService driven.EmbeddingService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// SetEmbeddingService replaces the embedding service, closing the old one,
// and records the new embedding space.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
	if svc != nil {
		s.config.SetEmbeddingSpace(domain.EmbeddingSpace{Model: svc.Model(), Dimension: svc.Dimensions()})
	} else {
		s.config.SetEmbeddingSpace(domain.EmbeddingSpace{})
	}
}

// CheckHealth pings the current embedding service and updates the
// availability flag. It returns the health check error, if any.
func (s *Services) CheckHealth(ctx context.Context) error {
	svc := s.EmbeddingService()
	if svc == nil {
		s.config.SetEmbeddingAvailable(false)
		return domain.ErrServiceUnavailable
	}
	err := svc.HealthCheck(ctx)
	s.config.SetEmbeddingAvailable(err == nil)
	return err
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	s.config.SetEmbeddingAvailable(false)
	return nil
}
