package mocks

import (
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	NormaliseFn func(content string, mimeType string) string
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(content string, mimeType string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(content, mimeType)
	}
	return content
}

func (m *MockNormaliser) SupportedTypes() []string {
	return []string{"*/*"}
}

func (m *MockNormaliser) Priority() int {
	return 1
}

// MockNormaliserRegistry returns one normaliser for every MIME type
type MockNormaliserRegistry struct {
	normaliser driven.Normaliser
}

func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{normaliser: NewMockNormaliser()}
}

func (m *MockNormaliserRegistry) Get(mimeType string) driven.Normaliser {
	return m.normaliser
}

func (m *MockNormaliserRegistry) Register(normaliser driven.Normaliser) {
	m.normaliser = normaliser
}

func (m *MockNormaliserRegistry) List() []string {
	if m.normaliser == nil {
		return nil
	}
	return m.normaliser.SupportedTypes()
}
