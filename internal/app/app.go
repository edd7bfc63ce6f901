package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"LinkSynth/internal/analyze"
	"LinkSynth/internal/config"
	"LinkSynth/internal/infrastructure/httpapi"
	"LinkSynth/internal/infrastructure/objectstore"
	"LinkSynth/internal/infrastructure/scheduler"
	"LinkSynth/internal/infrastructure/storage"
	"LinkSynth/internal/logging"
	"LinkSynth/internal/rules"
	"LinkSynth/internal/scrape"
	"LinkSynth/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	server *httpapi.Server
	poller *usecase.Poller
}

// New builds a runnable application instance: storage, adapters, use cases,
// HTTP surface.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, err := objectstore.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	queue := storage.NewQueueRepository(db)
	items := storage.NewItemRepository(db)
	assets := storage.NewAssetRepository(db)
	projects := storage.NewProjectRepository(db)

	registry := rules.NewRegistry()
	scraper := scrape.NewExecutor(cfg.Browser, registry, logging.Component(baseLogger, "scraper"))
	gemini := analyze.NewGeminiClient(cfg.Gemini, logging.Component(baseLogger, "gemini"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Queue:    queue,
		Items:    items,
		Assets:   assets,
		Store:    store,
		Scraper:  scraper,
		Analyzer: gemini,
		Logger:   logging.Component(baseLogger, "pipeline"),
	})

	synthesizer := usecase.NewProjectSynthesizer(usecase.SynthesizerDeps{
		Projects: projects,
		Items:    items,
		Analyzer: gemini,
		Logger:   logging.Component(baseLogger, "synthesis"),
	})

	var poller *usecase.Poller
	if cfg.Worker.PollerEnabled() {
		driver := scheduler.NewIntervalScheduler(cfg.Worker.PollInterval)
		poller = usecase.NewPoller(driver, pipeline, logging.Component(baseLogger, "poller"))
	}

	server := httpapi.NewServer(cfg.Server.Addr, pipeline, synthesizer, queue, projects, logging.Component(baseLogger, "http"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		server: server,
		poller: poller,
	}, nil
}

// Run starts the poller and HTTP server and blocks until the context is
// cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	if a.poller != nil {
		if err := a.poller.Start(ctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		serveErr <- a.server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.poller != nil {
		if err := a.poller.Stop(shutdownCtx); err != nil {
			a.logger.Warn("stop poller", "error", err)
		}
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("shutdown http server", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
	return nil
}
