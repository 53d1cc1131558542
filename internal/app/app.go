package app

import (
	"context"
	"fmt"
	"log/slog"

	"coinpress/internal/config"
	"coinpress/internal/dedup"
	"coinpress/internal/infrastructure/github"
	"coinpress/internal/infrastructure/hugo"
	"coinpress/internal/infrastructure/llm"
	"coinpress/internal/infrastructure/scheduler"
	"coinpress/internal/infrastructure/storage"
	"coinpress/internal/infrastructure/telegram"
	"coinpress/internal/infrastructure/twitter"
	"coinpress/internal/logging"
	"coinpress/internal/ports"
	"coinpress/internal/source"
	"coinpress/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	store    ports.LedgerStore
	closer   func() error
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, closer, err := NewLedgerStore(cfg.Ledger)
	if err != nil {
		return nil, err
	}

	detector := NewDetector(store, cfg.Dedup, baseLogger.With("component", "detector"))

	registry := source.NewRegistry()
	registry.Register(twitter.NewClient(cfg.Twitter.BearerToken, cfg.Twitter.Query, nil))
	registry.Register(github.NewTrendingScanner(cfg.GitHub.TrendingURL, nil))

	sources, err := registry.ResolveAll(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("resolve sources: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:       sources,
		Store:         store,
		Detector:      detector,
		Translator:    llm.NewTranslator(cfg.LLM),
		Renderer:      hugo.NewRenderer(cfg.Hugo.ContentDir),
		Builder:       hugo.NewBuilder(cfg.Hugo.BinPath, cfg.Hugo.SiteDir, baseLogger.With("component", "hugo")),
		Notifier:      notifier,
		Logger:        baseLogger.With("component", "pipeline"),
		BatchSize:     cfg.Pipeline.BatchSize,
		RetentionDays: cfg.Ledger.RetentionDays,
		RetryAttempts: cfg.Pipeline.RetryAttempts,
		RetryDelay:    cfg.Pipeline.RetryDelay.Std(),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		store:    store,
		closer:   closer,
	}, nil
}

// NewLedgerStore builds the configured ledger backend. The returned closer
// releases backend resources (a no-op for the file store).
func NewLedgerStore(cfg config.LedgerConfig) (ports.LedgerStore, func() error, error) {
	switch cfg.Backend {
	case "", "file":
		return storage.NewFileStore(cfg.Path), func() error { return nil }, nil
	case "sqlite":
		store, err := storage.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// NewDetector builds a duplicate detector over the given store with the
// configured matching options.
func NewDetector(store ports.LedgerStore, cfg config.DedupConfig, log *slog.Logger) *dedup.Detector {
	return dedup.NewDetector(store, dedup.Options{
		Threshold:      cfg.SimilarityThreshold,
		ExtraStopwords: cfg.ExtraStopwords,
	}, log)
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// RunDaemon ticks the pipeline on the configured interval until the context
// is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Pipeline.Interval.Std())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases backend resources.
func (a *Application) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
