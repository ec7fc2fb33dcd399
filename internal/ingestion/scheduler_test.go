package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Lixing-Zhang/medicine-catalog/internal/models"
	"github.com/Lixing-Zhang/medicine-catalog/pkg/logger"
)

type countingRefresher struct {
	mu       sync.Mutex
	urls     []string
	deadline bool
	err      error
}

func (r *countingRefresher) Refresh(ctx context.Context, url string) (models.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	_, r.deadline = ctx.Deadline()
	return models.RunSummary{State: models.StateCompleted}, r.err
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.urls)
}

func TestScheduler_StartupOnly(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, SchedulerOptions{
		LandingPageURL: "http://registry.test/43",
		OnStartup:      true,
		Timeout:        time.Minute,
	}, logger.Discard())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if r.count() != 1 {
		t.Fatalf("expected one refresh, got %d", r.count())
	}
	if r.urls[0] != "http://registry.test/43" {
		t.Errorf("url = %s", r.urls[0])
	}
	if !r.deadline {
		t.Error("expected refresh context to carry the timeout")
	}
}

func TestScheduler_Disabled(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, SchedulerOptions{LandingPageURL: "http://registry.test/43"}, logger.Discard())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if r.count() != 0 {
		t.Errorf("expected no refresh, got %d", r.count())
	}
}

func TestScheduler_Interval(t *testing.T) {
	r := &countingRefresher{err: errors.New("registry down")}
	s := NewScheduler(r, SchedulerOptions{
		LandingPageURL: "http://registry.test/43",
		Interval:       10 * time.Millisecond,
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for r.count() < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("expected at least 3 refreshes, got %d", r.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error on shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
