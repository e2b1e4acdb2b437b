package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingSettings_Validate(t *testing.T) {
	def := DefaultEmbeddingSettings()
	assert.NoError(t, def.Validate())

	tests := []struct {
		name    string
		mutate  func(s *EmbeddingSettings)
		wantErr error
	}{
		{"unknown provider", func(s *EmbeddingSettings) { s.Provider = "cohere" }, ErrInvalidProvider},
		{"tiny hash dimension", func(s *EmbeddingSettings) { s.Dimensions = 4 }, ErrInvalidInput},
		{"zero batch", func(s *EmbeddingSettings) { s.BatchSize = 0 }, ErrInvalidInput},
		{"openai without key", func(s *EmbeddingSettings) { s.Provider = EmbeddingProviderOpenAI }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultEmbeddingSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.wantErr)
		})
	}

	openai := DefaultEmbeddingSettings()
	openai.Provider = EmbeddingProviderOpenAI
	openai.APIKey = "sk-test"
	assert.NoError(t, openai.Validate())
}
