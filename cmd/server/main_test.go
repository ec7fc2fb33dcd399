package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lixing-Zhang/medicine-catalog/internal/config"
	"github.com/Lixing-Zhang/medicine-catalog/internal/handlers"
	"github.com/Lixing-Zhang/medicine-catalog/internal/ingestion"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
	"github.com/Lixing-Zhang/medicine-catalog/internal/service"
	"github.com/Lixing-Zhang/medicine-catalog/pkg/logger"
)

func TestRouter(t *testing.T) {
	log := logger.Discard()
	store := repository.NewInMemoryStore()
	coordinator := ingestion.NewCoordinator(store, nil, log)

	r := newRouter(
		config.ServerConfig{CORSAllowedOrigins: []string{"https://catalog.example"}},
		log,
		handlers.NewHealthHandler(store, version, log),
		handlers.NewMedicineHandler(service.NewMedicineService(store), log),
		handlers.NewRefreshHandler(coordinator, "http://registry.test", time.Minute, log),
	)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"list", http.MethodGet, "/medicines", http.StatusOK},
		{"list with paging", http.MethodGet, "/medicines?page=2&pageSize=5", http.StatusOK},
		{"search", http.MethodGet, "/medicines/search?searchTerm=asp", http.StatusOK},
		{"refresh status before any run", http.MethodGet, "/medicines/refresh/status", http.StatusNotFound},
		{"unknown medicine", http.MethodGet, "/medicines/00000000-0000-0000-0000-000000000000", http.StatusNotFound},
		{"delete unknown medicine", http.MethodDelete, "/medicines/00000000-0000-0000-0000-000000000000", http.StatusNotFound},
		{"unsupported method", http.MethodPut, "/medicines", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	log := logger.Discard()
	store := repository.NewInMemoryStore()

	r := newRouter(
		config.ServerConfig{CORSAllowedOrigins: []string{"https://catalog.example"}},
		log,
		handlers.NewHealthHandler(store, version, log),
		handlers.NewMedicineHandler(service.NewMedicineService(store), log),
		handlers.NewRefreshHandler(ingestion.NewCoordinator(store, nil, log), "http://registry.test", time.Minute, log),
	)

	req := httptest.NewRequest(http.MethodOptions, "/medicines", nil)
	req.Header.Set("Origin", "https://catalog.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://catalog.example" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeStore, err := openStore(config.StoreConfig{Driver: "memory"}, logger.Discard())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if _, ok := store.(*repository.InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", store)
	}
	if err := closeStore(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	store, closeStore, err := openStore(config.StoreConfig{
		Driver: "sqlite",
		DSN:    "file:open_store_test?mode=memory&cache=shared",
	}, logger.Discard())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*repository.GormStore); !ok {
		t.Errorf("expected gorm store, got %T", store)
	}
}
