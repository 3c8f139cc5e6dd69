package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver for tests. It enforces
// the same duplicate-ID and filter semantics as the real drivers.
type MockVectorDriver struct {
	// Documents holds everything added so far.
	Documents []vector.Document

	// Results, when set, is returned by Query (clipped to topK) instead
	// of computing anything from Documents.
	Results []vector.QueryResult

	// Error injection per operation.
	AddErr    error
	QueryErr  error
	GetErr    error
	DeleteErr error
	CountErr  error

	// AddCalls counts Add invocations, including failed ones.
	AddCalls int
}

var _ vector.Driver = (*MockVectorDriver)(nil)

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}

	for _, doc := range docs {
		for _, existing := range m.Documents {
			if existing.ID == doc.ID {
				return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
			}
		}
		m.Documents = append(m.Documents, doc)
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, filter vector.Filter) ([]vector.Document, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	matched := make([]vector.Document, 0)
	for _, doc := range m.Documents {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, filter vector.Filter) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	kept := m.Documents[:0]
	for _, doc := range m.Documents {
		if !matchesFilter(doc, filter) {
			kept = append(kept, doc)
		}
	}
	m.Documents = kept
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return len(m.Documents), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

func matchesFilter(doc vector.Document, filter vector.Filter) bool {
	for k, v := range filter.Metadata {
		if doc.Metadata[k] != v {
			return false
		}
	}
	if filter.TextContains != "" && !strings.Contains(doc.Text, filter.TextContains) {
		return false
	}
	return true
}
