package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"VaultXIngest/internal/dedupe"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/normalize"
	"VaultXIngest/internal/ports"
	"VaultXIngest/internal/scanner"
)

const (
	warnAllSourcesFailed = "every source failed"
	warnAllWritesFailed  = "every write failed"
)

// PipelineDeps wires the driven adapters shared by the news and tools pipelines.
type PipelineDeps struct {
	NewsCollector  ports.NewsCollector
	ToolCollector  ports.ToolCollector
	NewsRepository ports.NewsRepository
	ToolRepository ports.ToolRepository
	Normalizer     *normalize.Normalizer
	Policy         dedupe.Policy
	MaxNews        int
	MaxTools       int
	Now            func() time.Time
	Logger         *slog.Logger
}

func (d *PipelineDeps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Policy == "" {
		d.Policy = dedupe.KeepFirst
	}
}

// NewsPipeline collects, normalizes, dedupes and stores news.
type NewsPipeline struct {
	deps PipelineDeps
}

func NewNewsPipeline(deps PipelineDeps) *NewsPipeline {
	deps.defaults()
	return &NewsPipeline{deps: deps}
}

// Run executes one pass and returns its report. Source and item failures
// leave the run completed with warnings; only ctx ending fails it.
func (p *NewsPipeline) Run(ctx context.Context) *domain.PipelineReport {
	d := p.deps
	return stage[domain.RawNews, domain.NewsItem]{
		name:      "news",
		collect:   d.NewsCollector.CollectNews,
		normalize: d.Normalizer.News,
		key:       func(n domain.NewsItem) string { return n.ID },
		label:     func(n domain.NewsItem) string { return n.Title },
		stamp: func(n *domain.NewsItem, at time.Time) {
			n.CreatedAt, n.UpdatedAt = at, at
		},
		tally: func(r *domain.PipelineReport, n domain.NewsItem) {
			r.BySource[n.Source]++
			r.ByCategory[n.Category]++
			r.BySentiment[string(n.Sentiment)]++
		},
		store: store[domain.NewsItem]{
			exists: d.NewsRepository.NewsExists,
			insert: d.NewsRepository.InsertNews,
			update: d.NewsRepository.UpdateNews,
		},
		max: d.MaxNews,
	}.run(ctx, d)
}

// ToolPipeline collects, normalizes, dedupes and stores tools.
type ToolPipeline struct {
	deps PipelineDeps
}

func NewToolPipeline(deps PipelineDeps) *ToolPipeline {
	deps.defaults()
	return &ToolPipeline{deps: deps}
}

func (p *ToolPipeline) Run(ctx context.Context) *domain.PipelineReport {
	d := p.deps
	return stage[domain.RawTool, domain.ToolItem]{
		name:      "tools",
		collect:   d.ToolCollector.CollectTools,
		normalize: d.Normalizer.Tool,
		key:       func(t domain.ToolItem) string { return t.ID },
		label:     func(t domain.ToolItem) string { return t.Name },
		stamp: func(t *domain.ToolItem, at time.Time) {
			t.CreatedAt, t.UpdatedAt = at, at
		},
		tally: func(r *domain.PipelineReport, t domain.ToolItem) {
			r.BySource[t.Source]++
			r.ByCategory[t.Category]++
		},
		store: store[domain.ToolItem]{
			exists: d.ToolRepository.ToolExists,
			insert: d.ToolRepository.InsertTool,
			update: d.ToolRepository.UpdateTool,
		},
		max: d.MaxTools,
	}.run(ctx, d)
}

type stage[R, T any] struct {
	name      string
	collect   func(context.Context) ([]R, []scanner.Outcome)
	normalize func(R) (T, error)
	key       func(T) string
	label     func(T) string
	stamp     func(*T, time.Time)
	tally     func(*domain.PipelineReport, T)
	store     store[T]
	max       int
}

func (s stage[R, T]) run(ctx context.Context, d PipelineDeps) *domain.PipelineReport {
	log := d.Logger.With("pipeline", s.name)
	report := domain.NewPipelineReport(s.name)
	if s.name == "news" {
		report.BySentiment = map[string]int{}
	}
	report.Status = domain.StatusRunning
	report.StartedAt = d.Now()

	fail := func(err error) *domain.PipelineReport {
		report.Status = domain.StatusFailed
		report.Error = err.Error()
		report.FinishedAt = d.Now()
		log.Error("pipeline failed", "error", err)
		return report
	}

	raw, outcomes := s.collect(ctx)
	report.Fetched = len(raw)
	failedSources, skippedSources := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			skippedSources++
			if report.Skipped == nil {
				report.Skipped = map[string]string{}
			}
			report.Skipped[o.Source] = reason(o.Err)
		case o.Err != nil:
			failedSources++
			if report.SourceErrors == nil {
				report.SourceErrors = map[string]string{}
			}
			report.SourceErrors[o.Source] = o.Err.Error()
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("collect: %w", err))
	}
	if failedSources > 0 && failedSources+skippedSources == len(outcomes) {
		report.Warnings = append(report.Warnings, warnAllSourcesFailed)
		log.Warn(warnAllSourcesFailed, "sources", failedSources)
	}

	items := make([]T, 0, len(raw))
	for _, r := range raw {
		item, err := s.normalize(r)
		if err != nil {
			report.Malformed++
			log.Debug("dropped malformed item", "error", err)
			continue
		}
		items = append(items, item)
	}

	batch := dedupe.Apply(items, s.key, d.Policy, s.max)
	report.Duplicates = batch.Duplicates
	report.Truncated = batch.Truncated
	report.Total = len(batch.Items)

	now := d.Now().UTC()
	for i := range batch.Items {
		s.stamp(&batch.Items[i], now)
		s.tally(report, batch.Items[i])
	}

	log.Info("batch ready",
		"fetched", report.Fetched,
		"malformed", report.Malformed,
		"duplicates", report.Duplicates,
		"truncated", report.Truncated,
		"total", report.Total,
	)

	stats, err := persist(ctx, batch.Items, s.store, s.key, s.label, log)
	report.Written = stats
	if err != nil {
		return fail(fmt.Errorf("persist: %w", err))
	}
	if stats.Failed > 0 && stats.Inserted+stats.Updated == 0 {
		report.Warnings = append(report.Warnings, warnAllWritesFailed)
		log.Error(warnAllWritesFailed, "failed", stats.Failed)
	}

	report.Status = domain.StatusCompleted
	report.FinishedAt = d.Now()
	log.Info("pipeline completed",
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"took", report.FinishedAt.Sub(report.StartedAt),
	)
	return report
}

func reason(err error) string {
	if err == nil {
		return "skipped"
	}
	return err.Error()
}
