package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
	"github.com/Lixing-Zhang/medicine-catalog/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// MedicineHandler handles catalog read requests and administrative deletes
type MedicineHandler struct {
	service *service.MedicineService
	logger  *slog.Logger
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(service *service.MedicineService, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{
		service: service,
		logger:  logger,
	}
}

// ListMedicines handles GET /medicines?page=&pageSize=
// - 200: one page of the catalog, possibly empty
// - 400: page or pageSize is not a positive integer
// - 500: store failure
func (h *MedicineHandler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		h.logger.Warn("invalid page parameter", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid paging parameters", err.Error(), h.logger)
		return
	}
	pageSize, err := queryInt(r, "pageSize", defaultPageSize)
	if err != nil {
		h.logger.Warn("invalid pageSize parameter", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid paging parameters", err.Error(), h.logger)
		return
	}

	medicines, err := h.service.ListMedicines(r.Context(), page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuery) {
			WriteError(w, http.StatusBadRequest, "Invalid paging parameters", err.Error(), h.logger)
			return
		}
		h.logger.Error("failed to list medicines", "page", page, "pageSize", pageSize, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list medicines", err.Error(), h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, medicines, h.logger)
}

// SearchMedicines handles GET /medicines/search?searchTerm=
func (h *MedicineHandler) SearchMedicines(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("searchTerm")

	medicines, err := h.service.SearchMedicines(r.Context(), term)
	if err != nil {
		h.logger.Error("failed to search medicines", "searchTerm", term, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to search medicines", err.Error(), h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, medicines, h.logger)
}

// GetMedicine handles GET /medicines/{medicineId}
// - 200: the record
// - 404: no record has that medicine id
// - 500: store failure
func (h *MedicineHandler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "medicineId")

	medicine, err := h.service.GetMedicine(r.Context(), medicineID)
	if err != nil {
		h.writeLookupError(w, medicineID, "get", err)
		return
	}

	WriteJSON(w, http.StatusOK, medicine, h.logger)
}

// DeleteMedicine handles DELETE /medicines/{medicineId}
func (h *MedicineHandler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "medicineId")

	if err := h.service.DeleteMedicine(r.Context(), medicineID); err != nil {
		h.writeLookupError(w, medicineID, "delete", err)
		return
	}

	h.logger.Info("medicine deleted", "medicineId", medicineID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MedicineHandler) writeLookupError(w http.ResponseWriter, medicineID, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrMedicineNotFound):
		h.logger.Info("medicine not found", "medicineId", medicineID)
		WriteError(w, http.StatusNotFound, "Medicine not found", "", h.logger)
	case errors.Is(err, service.ErrInvalidQuery):
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", err.Error(), h.logger)
	default:
		h.logger.Error("failed to "+op+" medicine", "medicineId", medicineID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error(), h.logger)
	}
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}
