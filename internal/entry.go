// Package internal provides the main application initialization and runtime logic.
package internal

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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wormbox/internal/analysis"
	"github.com/starford/wormbox/internal/api"
	"github.com/starford/wormbox/internal/index"
	"github.com/starford/wormbox/internal/mcpserver"
	"github.com/starford/wormbox/internal/prompt"
	"github.com/starford/wormbox/internal/storage"
)

// ErrHistoryDisabled is returned by modes that need the run history when
// sqlite.enabled is false.
var ErrHistoryDisabled = errors.New("run history is disabled (set sqlite.enabled)")

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeAnalyze, stdout: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logs go to stderr; stdout carries results and the MCP transport.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("mode", string(app.mode)),
		slog.String("data_folder", cfg.Data.Folder),
		slog.String("suffix", cfg.Data.Suffix),
		slog.String("aspects_file", cfg.Aspects.File),
		slog.Bool("sqlite_enabled", cfg.SQLite.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Data.Folder)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var runs index.RunIndex
	if cfg.SQLite.Enabled {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()
		runs = db
	}

	svc := analysis.NewService(store, runs, logger)

	switch app.mode {
	case ModeAnalyze:
		return app.analyze(ctx, svc)
	case ModeWatch:
		return app.watch(ctx, svc, logger)
	case ModeServe:
		return app.serve(ctx, svc, logger)
	case ModeMCP:
		logger.Info("MCP server starting on stdio")
		return mcpserver.New(svc, logger).ServeStdio()
	case ModeRuns:
		return app.listRuns(svc)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

func (a *application) request() analysis.Request {
	return analysis.Request{
		Suffix:               a.config.Data.Suffix,
		AspectsFile:          a.config.Aspects.File,
		Output:               a.config.Output.Name,
		AllowAbsoluteAspects: true,
	}
}

// analyze runs the pipeline once, prompting for the aspects file and the
// output name when the session is interactive.
func (a *application) analyze(ctx context.Context, svc *analysis.Service) error {
	p := prompt.New(a.config.Output.Interactive)

	req := a.request()
	aspects, err := p.AspectsFile(ctx, svc.Folder(), req.AspectsFile)
	if err != nil {
		return err
	}
	req.AspectsFile = aspects
	req.NameOutput = p.OutputName

	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	printResult(a.stdout, res)
	return nil
}

// rerun returns the watcher callback. Failures are logged and the watcher
// keeps going so that a fixed input file triggers the next run.
func (a *application) rerun(svc *analysis.Service, logger *slog.Logger) index.RerunCallback {
	return func(ctx context.Context, changed []string) {
		req := a.request()
		req.SkipUnchanged = true
		res, err := svc.Run(ctx, req)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("re-run failed",
					slog.Any("changed", changed),
					slog.String("error", err.Error()))
			}
			return
		}
		if !res.Skipped {
			logger.Info("re-run complete",
				slog.Any("changed", changed),
				slog.String("output", res.Output),
				slog.String("run_id", res.RunID))
		}
	}
}

func (a *application) watchOptions(svc *analysis.Service) index.WatchOptions {
	return index.WatchOptions{
		Folder:      svc.Folder(),
		Suffix:      a.config.Data.Suffix,
		AspectsFile: a.config.Aspects.File,
		Debounce:    a.config.Watch.Debounce,
	}
}

// watch runs once, then again whenever the inputs change, until a signal
// arrives.
func (a *application) watch(ctx context.Context, svc *analysis.Service, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cb := a.rerun(svc, logger)
	cb(ctx, nil)
	return index.Watch(ctx, a.watchOptions(svc), logger, cb)
}

// serve runs the HTTP API and the folder watcher until a signal arrives.
func (a *application) serve(ctx context.Context, svc *analysis.Service, logger *slog.Logger) error {
	cfg := a.config

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(svc.Folder()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"data folder unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, a.watchOptions(svc), logger, a.rerun(svc, logger))
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// listRuns prints the recorded runs of the data folder.
func (a *application) listRuns(svc *analysis.Service) error {
	if svc.Runs() == nil {
		return ErrHistoryDisabled
	}
	rows, err := svc.Runs().ListRuns(svc.Folder(), a.limit)
	if err != nil {
		return err
	}
	return printRuns(a.stdout, rows)
}
