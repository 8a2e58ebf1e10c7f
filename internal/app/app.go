package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"VaultXIngest/internal/classify"
	"VaultXIngest/internal/config"
	"VaultXIngest/internal/dedupe"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/infrastructure/httpapi"
	"VaultXIngest/internal/infrastructure/report"
	"VaultXIngest/internal/infrastructure/scheduler"
	"VaultXIngest/internal/infrastructure/sources"
	"VaultXIngest/internal/infrastructure/storage"
	"VaultXIngest/internal/infrastructure/telegram"
	"VaultXIngest/internal/logging"
	"VaultXIngest/internal/normalize"
	"VaultXIngest/internal/ports"
	"VaultXIngest/internal/usecase"
)

// repository is what every store backend offers.
type repository interface {
	ports.NewsRepository
	ports.ToolRepository
	ports.RunLocker
	httpapi.Counter
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	repo         repository
	orchestrator *usecase.Orchestrator
	close        func() error
}

// New validates configuration and builds every collaborator. Setup errors
// are returned before any network or store work begins.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := classify.LoadRules(cfg.Pipeline.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}
	policy, err := dedupe.ParsePolicy(cfg.Pipeline.DuplicatePolicy)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Pipeline.SourceTimeout}
	registry, newsNames, toolNames, err := sources.Build(cfg.Sources, client)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	collector := sources.NewCollector(registry, newsNames, toolNames, sources.CollectorOptions{
		Timeout:    cfg.Pipeline.SourceTimeout,
		Sequential: cfg.Pipeline.SequentialSources,
	}, baseLogger.With("component", "collector"))

	repo, closeRepo, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	normalizer := normalize.New(classify.New(rules), normalize.Options{
		NewsIDMaxLength:  cfg.Pipeline.NewsIDMaxLength,
		ToolIDMaxLength:  cfg.Pipeline.ToolIDMaxLength,
		ContentMaxLength: cfg.Pipeline.ContentMaxLength,
	})

	deps := usecase.PipelineDeps{
		NewsCollector:  collector,
		ToolCollector:  collector,
		NewsRepository: repo,
		ToolRepository: repo,
		Normalizer:     normalizer,
		Policy:         policy,
		MaxNews:        cfg.Pipeline.MaxNewsPerRun,
		MaxTools:       cfg.Pipeline.MaxToolsPerRun,
		Logger:         baseLogger.With("component", "pipeline"),
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Tools:    usecase.NewToolPipeline(deps),
		News:     usecase.NewNewsPipeline(deps),
		Locker:   repo,
		LockTTL:  cfg.Scheduler.LockTTL,
		Reports:  report.NewFileWriter(cfg.Report.Dir),
		Notifier: notifier,
		Logger:   baseLogger.With("component", "orchestrator"),
	})

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		repo:         repo,
		orchestrator: orchestrator,
		close:        closeRepo,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository, func() error, error) {
	tables := storage.Tables{News: cfg.NewsTable, Tools: cfg.ToolsTable}
	switch cfg.Driver {
	case config.DriverSupabase:
		repo := storage.NewSupabaseRepository(cfg.URL, cfg.ServiceKey, tables, nil)
		return repo, func() error { return nil }, nil
	case config.DriverPostgres, config.DriverSQLite:
		repo, err := storage.OpenSQL(ctx, cfg.Driver, cfg.DSN, tables)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// RunTools performs one tools-only pass.
func (a *Application) RunTools(ctx context.Context) (domain.RunReport, error) {
	return a.orchestrator.RunTools(ctx)
}

// RunNews performs one news-only pass.
func (a *Application) RunNews(ctx context.Context) (domain.RunReport, error) {
	return a.orchestrator.RunNews(ctx)
}

// RunAll performs the combined pass.
func (a *Application) RunAll(ctx context.Context) (domain.RunReport, error) {
	return a.orchestrator.RunAll(ctx)
}

// Serve starts the daily scheduler and status server and blocks until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger,
	)
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.orchestrator, a.logger.With("component", "scheduler"))

	g, gctx := errgroup.WithContext(ctx)
	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if addr := a.cfg.Scheduler.StatusAddr; addr != "" {
		srv := httpapi.New(addr, sched, a.repo, a.logger.With("component", "status"))
		g.Go(func() error { return srv.ListenAndServe(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
