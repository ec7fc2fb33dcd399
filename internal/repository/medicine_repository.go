package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrStoreWrite       = errors.New("store write failed")
	ErrStoreRead        = errors.New("store read failed")
)

// CatalogStore defines the interface for medicine catalog data access.
// Implementations rely only on per-record atomicity; nothing here is
// transactional across records.
type CatalogStore interface {
	// Create stores a new record, assigning ID when empty. Not idempotent.
	Create(ctx context.Context, m *models.Medicine) error
	// GetByMedicineID returns ErrMedicineNotFound for unknown ids.
	GetByMedicineID(ctx context.Context, medicineID string) (*models.Medicine, error)
	// ListPage returns records [(page-1)*pageSize, page*pageSize) in store order.
	ListPage(ctx context.Context, page, pageSize int) ([]models.Medicine, error)
	// SearchByName matches a case-insensitive substring of the name.
	SearchByName(ctx context.Context, term string) ([]models.Medicine, error)
	// Delete removes one record by its store ID.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes records one at a time and returns how many went.
	// An interrupted call leaves the catalog partially emptied.
	DeleteAll(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

func writeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, op, err)
}

func readErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreRead, op, err)
}

func offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

func validatePage(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return fmt.Errorf("invalid page %d or page size %d", page, pageSize)
	}
	return nil
}

func matchesName(name, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(name), lowerTerm)
}

func errDuplicate(field, value string) error {
	return fmt.Errorf("duplicate %s %q", field, value)
}
