package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

// InMemoryStore implements CatalogStore with in-memory storage.
// Records keep their insertion order, which is the store's default order.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    []models.Medicine
	byID       map[string]int
	byMedicine map[string]int
}

// NewInMemoryStore creates an empty in-memory catalog.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[string]int),
		byMedicine: make(map[string]int),
	}
}

// Create appends a record.
func (s *InMemoryStore) Create(ctx context.Context, m *models.Medicine) error {
	if err := ctx.Err(); err != nil {
		return writeErr("create", err)
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[m.ID]; exists {
		return writeErr("create", errDuplicate("id", m.ID))
	}
	if _, exists := s.byMedicine[m.MedicineID]; exists {
		return writeErr("create", errDuplicate("medicineid", m.MedicineID))
	}

	s.records = append(s.records, *m)
	s.byID[m.ID] = len(s.records) - 1
	s.byMedicine[m.MedicineID] = len(s.records) - 1
	return nil
}

// GetByMedicineID returns a record by its business identifier
func (s *InMemoryStore) GetByMedicineID(ctx context.Context, medicineID string) (*models.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byMedicine[medicineID]
	if !exists {
		return nil, ErrMedicineNotFound
	}
	m := s.records[idx]
	return &m, nil
}

// ListPage returns one page of records in insertion order
func (s *InMemoryStore) ListPage(ctx context.Context, page, pageSize int) ([]models.Medicine, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, readErr("list", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := offset(page, pageSize)
	if start >= len(s.records) {
		return []models.Medicine{}, nil
	}
	end := min(start+pageSize, len(s.records))

	out := make([]models.Medicine, end-start)
	copy(out, s.records[start:end])
	return out, nil
}

// SearchByName returns every record whose name contains term, ignoring case
func (s *InMemoryStore) SearchByName(ctx context.Context, term string) ([]models.Medicine, error) {
	lower := strings.ToLower(term)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Medicine, 0)
	for _, m := range s.records {
		if matchesName(m.Name, lower) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Delete removes a single record by store ID
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return ErrMedicineNotFound
	}
	s.removeAt(idx)
	return nil
}

// DeleteAll removes records one by one, checking ctx between deletions.
func (s *InMemoryStore) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return deleted, writeErr("delete all", err)
		}

		s.mu.Lock()
		if len(s.records) == 0 {
			s.mu.Unlock()
			return deleted, nil
		}
		s.removeAt(len(s.records) - 1)
		s.mu.Unlock()

		deleted++
	}
}

// Ping always succeeds for the in-memory store.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Count returns the number of stored records.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// removeAt deletes records[idx] and reindexes. Caller holds the write lock.
func (s *InMemoryStore) removeAt(idx int) {
	m := s.records[idx]
	delete(s.byID, m.ID)
	delete(s.byMedicine, m.MedicineID)

	s.records = append(s.records[:idx], s.records[idx+1:]...)
	for i := idx; i < len(s.records); i++ {
		s.byID[s.records[i].ID] = i
		s.byMedicine[s.records[i].MedicineID] = i
	}
}
