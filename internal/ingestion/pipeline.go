// Package ingestion loads the registry spreadsheet into the catalog.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
	"github.com/Lixing-Zhang/medicine-catalog/internal/source"
)

const tracerName = "github.com/Lixing-Zhang/medicine-catalog/internal/ingestion"

// Transformer turns a raw spreadsheet cell into a catalog record.
type Transformer interface {
	Transform(rawName string) (models.Medicine, error)
}

// RunError is the fatal failure of a run, tagged with the state it happened in.
type RunError struct {
	State models.RunState
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("ingestion failed while %s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Pipeline runs locate, download, parse, transform and write in sequence.
// Each name is written before the next is read; there is no retry.
type Pipeline struct {
	locator     *source.Locator
	parser      *source.Parser
	transformer Transformer
	store       repository.CatalogStore
	log         *slog.Logger
	tracer      trace.Tracer
}

// NewPipeline wires a pipeline.
func NewPipeline(locator *source.Locator, parser *source.Parser, transformer Transformer, store repository.CatalogStore, log *slog.Logger) *Pipeline {
	return &Pipeline{
		locator:     locator,
		parser:      parser,
		transformer: transformer,
		store:       store,
		log:         log.With("component", "ingestion"),
		tracer:      otel.Tracer(tracerName),
	}
}

// run tracks one execution of the state machine.
type run struct {
	summary models.RunSummary
	log     *slog.Logger
	span    trace.Span
}

func (r *run) transition(state models.RunState) {
	r.summary.State = state
	r.span.AddEvent("state", trace.WithAttributes(attribute.String("state", string(state))))
	r.log.Debug("ingestion state changed", "state", state)
}

func (r *run) fail(err error) (models.RunSummary, error) {
	runErr := &RunError{State: r.summary.State, Err: err}

	r.summary.FailedIn = r.summary.State
	r.summary.Error = err.Error()
	r.summary.FinishedAt = time.Now().UTC()
	r.transition(models.StateFailed)

	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, runErr.Error())
	r.log.Error("ingestion failed",
		"failed_in", r.summary.FailedIn,
		"records_written", r.summary.RecordsWritten,
		"records_skipped", r.summary.RecordsSkipped,
		"error", err,
	)
	return r.summary, runErr
}

// Run ingests the spreadsheet linked from landingPageURL. On a fatal error the
// returned summary still reports what was written before the failure.
func (p *Pipeline) Run(ctx context.Context, landingPageURL string) (models.RunSummary, error) {
	ctx, span := p.tracer.Start(ctx, "ingestion.run",
		trace.WithAttributes(attribute.String("landing_page_url", landingPageURL)))
	defer span.End()

	r := &run{
		summary: models.RunSummary{State: models.StateIdle, StartedAt: time.Now().UTC()},
		log:     p.log,
		span:    span,
	}

	r.transition(models.StateLocating)
	downloadURL, err := p.locator.Locate(ctx, landingPageURL)
	if err != nil {
		return r.fail(err)
	}
	r.summary.DownloadURL = downloadURL
	p.log.Info("spreadsheet located", "download_url", downloadURL)

	r.transition(models.StateFetching)
	data, err := p.parser.Download(ctx, downloadURL)
	if err != nil {
		return r.fail(err)
	}

	r.transition(models.StateParsing)
	names, err := p.parser.Open(bytes.NewReader(data))
	if err != nil {
		return r.fail(err)
	}
	defer names.Close()

	r.transition(models.StateWriting)
	seen := bloom.NewWithEstimates(20000, 0.001)

	for names.Next() {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}

		rec, err := p.transformer.Transform(names.Name())
		if err != nil {
			r.summary.RecordsSkipped++
			p.log.Debug("skipping row", "row", names.Row(), "reason", err)
			continue
		}

		if seen.TestAndAddString(strings.ToLower(rec.Name)) {
			r.summary.DuplicateNames++
		}

		if err := p.store.Create(ctx, &rec); err != nil {
			return r.fail(err)
		}
		r.summary.RecordsWritten++
	}
	if err := names.Err(); err != nil {
		return r.fail(err)
	}

	r.summary.FinishedAt = time.Now().UTC()
	r.transition(models.StateCompleted)

	span.SetAttributes(
		attribute.Int("records_written", r.summary.RecordsWritten),
		attribute.Int("records_skipped", r.summary.RecordsSkipped),
	)
	p.log.Info("ingestion completed",
		"records_written", r.summary.RecordsWritten,
		"records_skipped", r.summary.RecordsSkipped,
		"duplicate_names", r.summary.DuplicateNames,
		"duration_ms", r.summary.FinishedAt.Sub(r.summary.StartedAt).Milliseconds(),
	)
	return r.summary, nil
}
