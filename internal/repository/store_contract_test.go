package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

// storeContract runs the behaviour every CatalogStore backend must share.
// newStore must return an empty store.
func storeContract(t *testing.T, newStore func(t *testing.T) CatalogStore) {
	t.Helper()

	t.Run("delete all on empty catalog", func(t *testing.T) {
		s := newStore(t)
		n, err := s.DeleteAll(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if n != 0 {
			t.Errorf("deleted = %d, want 0", n)
		}
		page, err := s.ListPage(context.Background(), 1, 10)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(page) != 0 {
			t.Errorf("expected empty catalog, got %d records", len(page))
		}
	})

	t.Run("create assigns id and get by medicine id", func(t *testing.T) {
		s := newStore(t)
		m := medicine("Paracetamol")
		if err := s.Create(context.Background(), &m); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if m.ID == "" {
			t.Fatal("expected store id to be assigned")
		}
		if m.ID == m.MedicineID {
			t.Error("expected store id to differ from medicine id")
		}

		got, err := s.GetByMedicineID(context.Background(), m.MedicineID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != "Paracetamol" || got.ID != m.ID {
			t.Errorf("unexpected record: %+v", got)
		}
		if !got.Price.Equal(m.Price) {
			t.Errorf("price = %s, want %s", got.Price, m.Price)
		}
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByMedicineID(context.Background(), uuid.NewString())
		if !errors.Is(err, ErrMedicineNotFound) {
			t.Errorf("expected ErrMedicineNotFound, got %v", err)
		}
		if errors.Is(err, ErrStoreRead) {
			t.Error("not found must not be reported as a store error")
		}
	})

	t.Run("duplicate medicine id is rejected", func(t *testing.T) {
		s := newStore(t)
		a := medicine("Aspirin")
		if err := s.Create(context.Background(), &a); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		b := medicine("Aspirin")
		b.MedicineID = a.MedicineID
		if err := s.Create(context.Background(), &b); !errors.Is(err, ErrStoreWrite) {
			t.Errorf("expected ErrStoreWrite, got %v", err)
		}
	})

	t.Run("same name twice creates two records", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 2; i++ {
			m := medicine("Parol")
			if err := s.Create(context.Background(), &m); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}
		got, err := s.SearchByName(context.Background(), "parol")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 records, got %d", len(got))
		}
	})

	t.Run("pages are disjoint", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 15)

		first, err := s.ListPage(context.Background(), 1, 10)
		if err != nil {
			t.Fatalf("list page 1 failed: %v", err)
		}
		second, err := s.ListPage(context.Background(), 2, 10)
		if err != nil {
			t.Fatalf("list page 2 failed: %v", err)
		}
		if len(first) != 10 || len(second) != 5 {
			t.Fatalf("page sizes = %d, %d; want 10, 5", len(first), len(second))
		}

		seen := make(map[string]bool)
		for _, m := range append(first, second...) {
			if seen[m.MedicineID] {
				t.Errorf("record %s appears on both pages", m.MedicineID)
			}
			seen[m.MedicineID] = true
		}
		if len(seen) != 15 {
			t.Errorf("expected 15 distinct records, got %d", len(seen))
		}

		third, err := s.ListPage(context.Background(), 3, 10)
		if err != nil {
			t.Fatalf("list page 3 failed: %v", err)
		}
		if len(third) != 0 {
			t.Errorf("expected empty page past the end, got %d", len(third))
		}
	})

	t.Run("search is case insensitive substring", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"Aspirin 100 mg", "ASPIRIN Forte", "Coraspin", "Ibuprofen", "100% Pure_Ext"} {
			m := medicine(name)
			if err := s.Create(context.Background(), &m); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		lower, err := s.SearchByName(context.Background(), "aspirin")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		upper, err := s.SearchByName(context.Background(), "ASPIRIN")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(lower) != 2 {
			t.Errorf("expected 2 matches, got %d", len(lower))
		}
		if !sameIDs(lower, upper) {
			t.Error("expected identical results regardless of case")
		}

		partial, err := s.SearchByName(context.Background(), "asp")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(partial) != 3 {
			t.Errorf("expected 3 substring matches, got %d", len(partial))
		}

		literal, err := s.SearchByName(context.Background(), "0% p")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(literal) != 1 {
			t.Errorf("expected wildcard characters to match literally, got %d", len(literal))
		}
	})

	t.Run("delete single record", func(t *testing.T) {
		s := newStore(t)
		m := medicine("Majezik")
		if err := s.Create(context.Background(), &m); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := s.Delete(context.Background(), m.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := s.GetByMedicineID(context.Background(), m.MedicineID); !errors.Is(err, ErrMedicineNotFound) {
			t.Errorf("expected deleted record to be gone, got %v", err)
		}
		if err := s.Delete(context.Background(), m.ID); !errors.Is(err, ErrMedicineNotFound) {
			t.Errorf("expected ErrMedicineNotFound on second delete, got %v", err)
		}
	})

	t.Run("delete all removes everything", func(t *testing.T) {
		s := newStore(t)
		seeded := seed(t, s, 7)

		n, err := s.DeleteAll(context.Background())
		if err != nil {
			t.Fatalf("delete all failed: %v", err)
		}
		if n != 7 {
			t.Errorf("deleted = %d, want 7", n)
		}
		for _, m := range seeded {
			if _, err := s.GetByMedicineID(context.Background(), m.MedicineID); !errors.Is(err, ErrMedicineNotFound) {
				t.Errorf("expected %s to be gone, got %v", m.MedicineID, err)
			}
		}
	})
}

func medicine(name string) models.Medicine {
	return models.Medicine{
		MedicineID: uuid.NewString(),
		Name:       name,
		Price:      decimal.RequireFromString("123.456"),
	}
}

func seed(t *testing.T, s CatalogStore, n int) []models.Medicine {
	t.Helper()
	out := make([]models.Medicine, 0, n)
	for i := 0; i < n; i++ {
		m := medicine(fmt.Sprintf("Drug %02d", i))
		if err := s.Create(context.Background(), &m); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func sameIDs(a, b []models.Medicine) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]bool, len(a))
	for _, m := range a {
		ids[m.ID] = true
	}
	for _, m := range b {
		if !ids[m.ID] {
			return false
		}
	}
	return true
}
