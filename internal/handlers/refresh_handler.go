package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
)

// RefreshCoordinator wipes and reloads the catalog. *ingestion.Coordinator
// implements it.
type RefreshCoordinator interface {
	Refresh(ctx context.Context, landingPageURL string) (models.RunSummary, error)
	LastRun() (models.RunSummary, bool)
}

// RefreshErrorResponse is returned when a refresh fails. Summary reports
// what was deleted and written before the failure.
type RefreshErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details"`
	Summary models.RunSummary `json:"summary"`
}

// RefreshHandler triggers and reports catalog refreshes
type RefreshHandler struct {
	coordinator    RefreshCoordinator
	landingPageURL string
	timeout        time.Duration
	logger         *slog.Logger
}

// NewRefreshHandler creates a new refresh handler. timeout bounds each
// refresh; zero means no limit.
func NewRefreshHandler(coordinator RefreshCoordinator, landingPageURL string, timeout time.Duration, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{
		coordinator:    coordinator,
		landingPageURL: landingPageURL,
		timeout:        timeout,
		logger:         logger,
	}
}

// Refresh handles POST /medicines/refresh
// - 200: RunSummary of a completed run
// - 500: {error, details, summary}
//
// The run keeps going if the client disconnects.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()

		// The server write timeout is far shorter than a full run.
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Now().Add(h.timeout + 30*time.Second)); err != nil {
			h.logger.Debug("could not extend write deadline", "error", err)
		}
	}

	summary, err := h.coordinator.Refresh(ctx, h.landingPageURL)
	if err != nil {
		h.logger.Error("refresh request failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, RefreshErrorResponse{
			Error:   "Refresh failed",
			Details: err.Error(),
			Summary: summary,
		}, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Status handles GET /medicines/refresh/status
func (h *RefreshHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.coordinator.LastRun()
	if !ok {
		WriteError(w, http.StatusNotFound, "No refresh has run yet", "", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}
