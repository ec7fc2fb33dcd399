package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
)

func seededService(t *testing.T, names ...string) (*MedicineService, []models.Medicine) {
	t.Helper()

	repo := repository.NewInMemoryStore()
	out := make([]models.Medicine, 0, len(names))
	for _, name := range names {
		m := models.Medicine{
			MedicineID: uuid.NewString(),
			Name:       name,
			Price:      decimal.RequireFromString("42.5"),
		}
		if err := repo.Create(context.Background(), &m); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		out = append(out, m)
	}
	return NewMedicineService(repo), out
}

func TestMedicineService_ListMedicines(t *testing.T) {
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("Drug %02d", i)
	}
	svc, _ := seededService(t, names...)

	tests := []struct {
		name     string
		page     int
		pageSize int
		wantLen  int
		wantErr  error
	}{
		{name: "first page", page: 1, pageSize: 10, wantLen: 10},
		{name: "last partial page", page: 3, pageSize: 10, wantLen: 5},
		{name: "past the end", page: 4, pageSize: 10, wantLen: 0},
		{name: "single item pages", page: 25, pageSize: 1, wantLen: 1},
		{name: "zero page", page: 0, pageSize: 10, wantErr: ErrInvalidQuery},
		{name: "negative page", page: -1, pageSize: 10, wantErr: ErrInvalidQuery},
		{name: "zero page size", page: 1, pageSize: 0, wantErr: ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListMedicines(context.Background(), tt.page, tt.pageSize)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestMedicineService_SearchMedicines(t *testing.T) {
	svc, _ := seededService(t, "Aspirin 100 mg", "ASPIRIN Forte", "Ibuprofen")

	tests := []struct {
		name    string
		term    string
		wantLen int
	}{
		{name: "lower case", term: "aspirin", wantLen: 2},
		{name: "upper case", term: "IBUPROFEN", wantLen: 1},
		{name: "no match", term: "morphine", wantLen: 0},
		{name: "empty term", term: "", wantLen: 0},
		{name: "blank term", term: "   ", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SearchMedicines(context.Background(), tt.term)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestMedicineService_GetMedicine(t *testing.T) {
	svc, seeded := seededService(t, "Paracetamol")

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "existing", id: seeded[0].MedicineID},
		{name: "unknown", id: uuid.NewString(), wantErr: repository.ErrMedicineNotFound},
		{name: "empty", id: "", wantErr: ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetMedicine(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got.Name != "Paracetamol" {
				t.Errorf("name = %s, want Paracetamol", got.Name)
			}
		})
	}
}

func TestMedicineService_DeleteMedicine(t *testing.T) {
	svc, seeded := seededService(t, "Majezik")

	if err := svc.DeleteMedicine(context.Background(), ""); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if err := svc.DeleteMedicine(context.Background(), seeded[0].MedicineID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetMedicine(context.Background(), seeded[0].MedicineID); !errors.Is(err, repository.ErrMedicineNotFound) {
		t.Errorf("expected record to be gone, got %v", err)
	}
	if err := svc.DeleteMedicine(context.Background(), seeded[0].MedicineID); !errors.Is(err, repository.ErrMedicineNotFound) {
		t.Errorf("expected ErrMedicineNotFound on second delete, got %v", err)
	}
}
