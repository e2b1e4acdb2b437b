package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

var _ driven.MaterialStore = (*MockMaterialStore)(nil)

// MockMaterialStore is an in-memory MaterialStore for testing
type MockMaterialStore struct {
	mu        sync.RWMutex
	materials map[string]*domain.Material
}

// NewMockMaterialStore creates a new MockMaterialStore
func NewMockMaterialStore() *MockMaterialStore {
	return &MockMaterialStore{
		materials: make(map[string]*domain.Material),
	}
}

func (m *MockMaterialStore) Save(ctx context.Context, material *domain.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *material
	m.materials[material.ID] = &cp
	return nil
}

func (m *MockMaterialStore) Get(ctx context.Context, id string) (*domain.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	material, ok := m.materials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *material
	return &cp, nil
}

func (m *MockMaterialStore) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error) {
	return m.filter(func(mat *domain.Material) bool { return mat.SubmissionID == submissionID }), nil
}

func (m *MockMaterialStore) ListByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error) {
	return m.filter(func(mat *domain.Material) bool { return mat.OwnerType == ownerType }), nil
}

func (m *MockMaterialStore) ListByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error) {
	return m.filter(func(mat *domain.Material) bool { return mat.CourseID == courseID && hasOwnerType(mat, ownerTypes) }), nil
}

func (m *MockMaterialStore) ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Material, error) {
	out := m.filter(func(mat *domain.Material) bool { return mat.Status == status })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockMaterialStore) Delete(ctx context.Context, id string) (*domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	material, ok := m.materials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.materials, id)
	return material, nil
}

func (m *MockMaterialStore) DeleteByCourse(ctx context.Context, courseID string, ownerTypes ...domain.OwnerType) ([]*domain.Material, error) {
	return m.remove(func(mat *domain.Material) bool { return mat.CourseID == courseID && hasOwnerType(mat, ownerTypes) }), nil
}

func (m *MockMaterialStore) DeleteBySubmission(ctx context.Context, submissionID string) ([]*domain.Material, error) {
	return m.remove(func(mat *domain.Material) bool { return mat.SubmissionID == submissionID }), nil
}

func (m *MockMaterialStore) DeleteByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.Material, error) {
	return m.remove(func(mat *domain.Material) bool { return mat.OwnerType == ownerType }), nil
}

func (m *MockMaterialStore) filter(keep func(*domain.Material) bool) []*domain.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Material
	for _, mat := range m.materials {
		if keep(mat) {
			cp := *mat
			out = append(out, &cp)
		}
	}
	sortMaterials(out)
	return out
}

func (m *MockMaterialStore) remove(match func(*domain.Material) bool) []*domain.Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Material
	for id, mat := range m.materials {
		if match(mat) {
			out = append(out, mat)
			delete(m.materials, id)
		}
	}
	sortMaterials(out)
	return out
}

func hasOwnerType(mat *domain.Material, ownerTypes []domain.OwnerType) bool {
	for _, o := range ownerTypes {
		if mat.OwnerType == o {
			return true
		}
	}
	return false
}

func sortMaterials(ms []*domain.Material) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].UploadedAt.Equal(ms[j].UploadedAt) {
			return ms[i].UploadedAt.Before(ms[j].UploadedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}
