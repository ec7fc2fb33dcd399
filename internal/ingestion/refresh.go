package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
)

// Runner runs one ingestion. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, landingPageURL string) (models.RunSummary, error)
}

// Coordinator replaces the whole catalog: delete everything, then ingest.
//
// Refresh is not transactional. Readers may see an empty or partially
// loaded catalog while it runs, and two concurrent refreshes can interleave
// their deletes and writes. Nothing here serializes them.
type Coordinator struct {
	store  repository.CatalogStore
	runner Runner
	log    *slog.Logger

	mu   sync.RWMutex
	last *models.RunSummary
}

// NewCoordinator creates a refresh coordinator.
func NewCoordinator(store repository.CatalogStore, runner Runner, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		runner: runner,
		log:    log.With("component", "refresh"),
	}
}

// Refresh deletes every record and re-runs ingestion from landingPageURL.
// If the delete step fails the run is not attempted. If the run fails the
// catalog is left empty or partially populated and the error says so.
func (c *Coordinator) Refresh(ctx context.Context, landingPageURL string) (models.RunSummary, error) {
	started := time.Now().UTC()
	c.log.Info("refresh started", "landing_page_url", landingPageURL)

	deleted, err := c.store.DeleteAll(ctx)
	if err != nil {
		summary := models.RunSummary{
			RecordsDeleted: deleted,
			State:          models.StateFailed,
			FailedIn:       models.StateIdle,
			StartedAt:      started,
			FinishedAt:     time.Now().UTC(),
			Error:          err.Error(),
		}
		c.remember(summary)
		c.log.Error("refresh aborted: clearing catalog failed", "deleted", deleted, "error", err)
		return summary, fmt.Errorf("clear catalog: %w", err)
	}
	c.log.Info("catalog cleared", "deleted", deleted)

	summary, err := c.runner.Run(ctx, landingPageURL)
	summary.RecordsDeleted = deleted
	summary.StartedAt = started
	c.remember(summary)

	if err != nil {
		c.log.Warn("refresh failed after clearing catalog; catalog is empty or partial",
			"records_written", summary.RecordsWritten,
			"error", err,
		)
		return summary, err
	}

	c.log.Info("refresh completed",
		"deleted", deleted,
		"records_written", summary.RecordsWritten,
		"records_skipped", summary.RecordsSkipped,
	)
	return summary, nil
}

// LastRun returns the summary of the most recent refresh, if any.
func (c *Coordinator) LastRun() (models.RunSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return models.RunSummary{}, false
	}
	return *c.last, true
}

func (c *Coordinator) remember(summary models.RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &summary
}
