package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
)

// ErrInvalidQuery is returned when paging or lookup arguments are malformed.
var ErrInvalidQuery = errors.New("invalid query")

// MedicineService handles read-side business logic for the catalog
type MedicineService struct {
	repo repository.CatalogStore
}

// NewMedicineService creates a new medicine service
func NewMedicineService(repo repository.CatalogStore) *MedicineService {
	return &MedicineService{
		repo: repo,
	}
}

// ListMedicines returns one page of the catalog in store order
func (s *MedicineService) ListMedicines(ctx context.Context, page, pageSize int) ([]models.Medicine, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidQuery, page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: pageSize must be >= 1, got %d", ErrInvalidQuery, pageSize)
	}
	return s.repo.ListPage(ctx, page, pageSize)
}

// SearchMedicines returns every record whose name contains term, ignoring case.
// A blank term matches nothing.
func (s *MedicineService) SearchMedicines(ctx context.Context, term string) ([]models.Medicine, error) {
	if strings.TrimSpace(term) == "" {
		return []models.Medicine{}, nil
	}
	return s.repo.SearchByName(ctx, term)
}

// GetMedicine returns a record by its medicine id
func (s *MedicineService) GetMedicine(ctx context.Context, medicineID string) (*models.Medicine, error) {
	if strings.TrimSpace(medicineID) == "" {
		return nil, fmt.Errorf("%w: medicine id is required", ErrInvalidQuery)
	}
	return s.repo.GetByMedicineID(ctx, medicineID)
}

// DeleteMedicine removes the record with the given medicine id
func (s *MedicineService) DeleteMedicine(ctx context.Context, medicineID string) error {
	m, err := s.GetMedicine(ctx, medicineID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, m.ID)
}
