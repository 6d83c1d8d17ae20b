package stubs

import (
	"context"
	"slices"
	"sync"
	"time"

	"unilib/internal/models"
	"unilib/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu   sync.RWMutex
	data models.Snapshot
}

// NewMockDB creates an empty mock database
func NewMockDB() *MockDB {
	return &MockDB{}
}

// NewMockDBWith creates a mock database holding a copy of snap
func NewMockDBWith(snap *models.Snapshot) *MockDB {
	m := &MockDB{}
	if snap != nil {
		m.data = cloneSnapshot(snap)
	}
	return m
}

// Initialize loads the demo ledger when the database is empty
func (m *MockDB) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.data.Patrons) > 0 || len(m.data.Books) > 0 {
		return nil
	}
	m.data = DemoSnapshot()
	return nil
}

// Snapshot returns a copy of the stored ledger clipped to asOf
func (m *MockDB) Snapshot(ctx context.Context, asOf time.Time) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	snap := cloneSnapshot(&m.data)
	m.mu.RUnlock()

	storage.ClipToInstant(&snap, asOf)
	return &snap, nil
}

// PutLoan inserts or replaces a loan by id
func (m *MockDB) PutLoan(loan models.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.IndexFunc(m.data.Loans, func(l models.Loan) bool { return l.ID == loan.ID }); i >= 0 {
		m.data.Loans[i] = loan
		return
	}
	m.data.Loans = append(m.data.Loans, loan)
}

// PutFine inserts or replaces a fine by id
func (m *MockDB) PutFine(fine models.Fine) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.IndexFunc(m.data.Fines, func(f models.Fine) bool { return f.ID == fine.ID }); i >= 0 {
		m.data.Fines[i] = fine
		return
	}
	m.data.Fines = append(m.data.Fines, fine)
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

// cloneSnapshot copies every collection so callers can't alias stored rows
func cloneSnapshot(s *models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		AsOf:         s.AsOf,
		Patrons:      slices.Clone(s.Patrons),
		Books:        slices.Clone(s.Books),
		Publishers:   slices.Clone(s.Publishers),
		Copies:       slices.Clone(s.Copies),
		Loans:        slices.Clone(s.Loans),
		Fines:        slices.Clone(s.Fines),
		FineReasons:  slices.Clone(s.FineReasons),
		Branches:     slices.Clone(s.Branches),
		Subjects:     slices.Clone(s.Subjects),
		Authors:      slices.Clone(s.Authors),
		BookSubjects: slices.Clone(s.BookSubjects),
		BookAuthors:  slices.Clone(s.BookAuthors),
		Reservations: slices.Clone(s.Reservations),
	}
	for i, loan := range out.Loans {
		if loan.ReturnedAt != nil {
			ret := *loan.ReturnedAt
			out.Loans[i].ReturnedAt = &ret
		}
	}
	for i, b := range out.Books {
		if b.PublisherID != nil {
			id := *b.PublisherID
			out.Books[i].PublisherID = &id
		}
	}
	return out
}
