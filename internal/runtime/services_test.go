package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven/mocks"
)

func newTestServices() *Services {
	return NewServices(domain.NewRuntimeConfig("postgres", "postgres", "memory"))
}

func TestServices_SetEmbeddingService(t *testing.T) {
	s := newTestServices()
	assert.Nil(t, s.EmbeddingService())

	emb := mocks.NewMockEmbeddingService()
	s.SetEmbeddingService(emb)

	assert.Same(t, emb, s.EmbeddingService())
	assert.True(t, s.Config().EmbeddingAvailable())
	assert.Equal(t, domain.EmbeddingSpace{Model: "mock-embedding-model", Dimension: 64}, s.Config().EmbeddingSpace())

	s.SetEmbeddingService(nil)
	assert.False(t, s.Config().EmbeddingAvailable())
	assert.Equal(t, domain.EmbeddingSpace{}, s.Config().EmbeddingSpace())
}

func TestServices_CheckHealth(t *testing.T) {
	s := newTestServices()
	ctx := context.Background()

	assert.ErrorIs(t, s.CheckHealth(ctx), domain.ErrServiceUnavailable)

	emb := mocks.NewMockEmbeddingService()
	s.SetEmbeddingService(emb)
	assert.NoError(t, s.CheckHealth(ctx))
	assert.True(t, s.Config().EmbeddingAvailable())

	emb.FailNext(1)
	assert.Error(t, s.CheckHealth(ctx))
	assert.False(t, s.Config().EmbeddingAvailable())
}

func TestServices_Close(t *testing.T) {
	s := newTestServices()
	s.SetEmbeddingService(mocks.NewMockEmbeddingService())

	require.NoError(t, s.Close())
	assert.Nil(t, s.EmbeddingService())
	assert.False(t, s.Config().EmbeddingAvailable())
}
