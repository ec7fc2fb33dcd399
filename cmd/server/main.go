package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/medicine-catalog/internal/catalog"
	"github.com/Lixing-Zhang/medicine-catalog/internal/config"
	"github.com/Lixing-Zhang/medicine-catalog/internal/handlers"
	"github.com/Lixing-Zhang/medicine-catalog/internal/ingestion"
	"github.com/Lixing-Zhang/medicine-catalog/internal/middleware"
	"github.com/Lixing-Zhang/medicine-catalog/internal/observability"
	"github.com/Lixing-Zhang/medicine-catalog/internal/repository"
	"github.com/Lixing-Zhang/medicine-catalog/internal/service"
	"github.com/Lixing-Zhang/medicine-catalog/internal/source"
	"github.com/Lixing-Zhang/medicine-catalog/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting medicine catalog server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store_driver", cfg.Store.Driver,
		"log_level", cfg.LogLevel,
		"version", version,
	)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, version, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Initialize store
	store, closeStore, err := openStore(cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("store close failed", "error", err)
		}
	}()

	// Initialize ingestion
	client := source.NewHTTPClient(cfg.Source.HTTPTimeout, source.WithRateLimit(cfg.Source.RateLimit))
	parser, err := source.NewParser(client, source.ParserOptions{
		Column:   cfg.Source.NameColumn,
		StartRow: cfg.Source.StartRow,
		MaxBytes: cfg.Source.MaxDownloadBytes,
	})
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}
	pipeline := ingestion.NewPipeline(
		source.NewLocator(client, cfg.Source.TableID),
		parser,
		catalog.NewTransformer(),
		store,
		log,
	)
	coordinator := ingestion.NewCoordinator(store, pipeline, log)
	scheduler := ingestion.NewScheduler(coordinator, ingestion.SchedulerOptions{
		LandingPageURL: cfg.Source.LandingPageURL,
		Interval:       cfg.Refresh.Interval,
		OnStartup:      cfg.Refresh.OnStartup,
		Timeout:        cfg.Refresh.Timeout,
	}, log)

	// Initialize services and handlers
	medicineService := service.NewMedicineService(store)
	healthHandler := handlers.NewHealthHandler(store, version, log)
	medicineHandler := handlers.NewMedicineHandler(medicineService, log)
	refreshHandler := handlers.NewRefreshHandler(coordinator, cfg.Source.LandingPageURL, cfg.Refresh.Timeout, log)

	r := newRouter(cfg.Server, log, healthHandler, medicineHandler, refreshHandler)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newRouter(
	cfg config.ServerConfig,
	log *slog.Logger,
	health *handlers.HealthHandler,
	medicines *handlers.MedicineHandler,
	refresh *handlers.RefreshHandler,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", health.ServeHTTP)

	r.Route("/medicines", func(r chi.Router) {
		// Refresh runs under its own REFRESH_TIMEOUT, not the request timeout.
		r.Post("/refresh", refresh.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))

			r.Get("/", medicines.ListMedicines)
			r.Get("/search", medicines.SearchMedicines)
			r.Get("/refresh/status", refresh.Status)
			r.Get("/{medicineId}", medicines.GetMedicine)
			r.Delete("/{medicineId}", medicines.DeleteMedicine)
		})
	})

	return r
}

// openStore returns the configured catalog backend and a func releasing it.
func openStore(cfg config.StoreConfig, log *slog.Logger) (repository.CatalogStore, func() error, error) {
	switch cfg.Driver {
	case "sqlite", "postgres":
		s, err := repository.OpenGormStore(cfg.Driver, cfg.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s, err := repository.OpenRedisStore(repository.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return repository.NewInMemoryStore(), func() error { return nil }, nil
	}
}
