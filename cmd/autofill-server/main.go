package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/hanwei-dev/listing-autofill/internal/api"
	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/browser"
	"github.com/hanwei-dev/listing-autofill/internal/config"
	"github.com/hanwei-dev/listing-autofill/internal/extractor"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
	"github.com/hanwei-dev/listing-autofill/internal/pipeline"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
	"github.com/hanwei-dev/listing-autofill/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rules, err := mapping.Load(cfg.Mapping.RulesPath)
	if err != nil {
		logger.Error("failed to load mapping rules", "path", cfg.Mapping.RulesPath, "error", err)
		os.Exit(1)
	}
	logger.Info("mapping rules loaded", "path", cfg.Mapping.RulesPath, "rules", rules.Len())

	db, err := audit.NewDB(ctx, audit.DBConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := audit.NewStore(db, logger)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	relay := audit.NewRelay(db, redisClient, logger, audit.RelayConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("relay stopped with error", "error", err)
		}
	}()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	source := browser.NewPageSource(b, cfg.Browser.MaxRetries, logger)
	defer source.Close()

	formPage, err := b.NewPage()
	if err != nil {
		logger.Error("failed to open form page", "error", err)
		os.Exit(1)
	}
	if cfg.Mapping.FormURL != "" {
		if err := b.NavigateWithRetry(formPage, cfg.Mapping.FormURL, cfg.Browser.MaxRetries); err != nil {
			logger.Error("failed to open destination form", "url", cfg.Mapping.FormURL, "error", err)
			os.Exit(1)
		}
	}
	writer := form.NewPageWriter(formPage, logger)

	var exOpts []extractor.Option
	exOpts = append(exOpts, extractor.WithAuditSink(store))
	exOpts = append(exOpts, extractor.WithDefaultWeight(cfg.Mapping.DefaultWeightLb))
	if cfg.Mapping.ConvertDimensionsToCM {
		exOpts = append(exOpts, extractor.WithMetricDimensions())
	}

	limiter := ratelimit.NewBackoffPacer(cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay)

	p := pipeline.New(
		source,
		extractor.New(logger, exOpts...),
		rules,
		form.NewProjector(writer, logger, store),
		logger,
		pipeline.WithRunStore(store),
		pipeline.WithLimiter(limiter),
	)

	jobs := queue.NewInMemoryQueue()
	defer jobs.Close()

	go func() {
		if _, err := p.Drain(ctx, jobs); err != nil && err != context.Canceled {
			logger.Error("job worker stopped with error", "error", err)
		}
	}()

	handlers := api.NewHandlers(p, jobs, store, writer, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"pending": jobs.Size(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/autofill", handlers.Autofill)
		r.Post("/autofill/batch", handlers.CreateBatch)
		r.Get("/runs", handlers.ListRuns)
		r.Get("/runs/{runID}", handlers.GetRun)
		r.Get("/form/fields", handlers.InspectForm)
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
