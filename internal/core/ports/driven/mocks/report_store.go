package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driven"
)

var _ driven.ReportStore = (*MockReportStore)(nil)

// MockReportStore is an in-memory ReportStore keyed by submission id
type MockReportStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
	upserts int

	UpsertErr error
}

// NewMockReportStore creates a new MockReportStore
func NewMockReportStore() *MockReportStore {
	return &MockReportStore{
		reports: make(map[string]*domain.Report),
	}
}

func (m *MockReportStore) Upsert(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *report
	now := time.Now()
	if existing, ok := m.reports[report.SubmissionID]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		if cp.ID == "" {
			cp.ID = domain.NewID()
		}
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.reports[report.SubmissionID] = &cp
	m.upserts++

	out := cp
	return &out, nil
}

func (m *MockReportStore) Get(ctx context.Context, submissionID string) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[submissionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockReportStore) DeleteBySubmissions(ctx context.Context, submissionIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range submissionIDs {
		if _, ok := m.reports[id]; ok {
			delete(m.reports, id)
			n++
		}
	}
	return n, nil
}

func (m *MockReportStore) DeleteAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.reports)
	m.reports = make(map[string]*domain.Report)
	return n, nil
}

// Count returns the number of stored reports (for test assertions)
func (m *MockReportStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

// Upserts returns how many upserts succeeded (for test assertions)
func (m *MockReportStore) Upserts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upserts
}
