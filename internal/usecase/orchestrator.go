package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/ports"
)

// LockName is the run lock shared by every entry point.
const LockName = "vaultx-ingest"

var (
	// ErrRunInProgress means another process or trigger holds the run lock.
	ErrRunInProgress = errors.New("another ingestion run is in progress")
	// ErrPipelineFailed means at least one sub-pipeline ended in the failed state.
	ErrPipelineFailed = errors.New("pipeline failed")
)

// Runner executes one sub-pipeline pass.
type Runner interface {
	Run(ctx context.Context) *domain.PipelineReport
}

// OrchestratorDeps wires sub-pipelines with run-level collaborators.
type OrchestratorDeps struct {
	Tools    Runner
	News     Runner
	Locker   ports.RunLocker
	LockTTL  time.Duration
	Reports  ports.ReportWriter
	Notifier ports.Notifier
	NewID    func() string
	Now      func() time.Time
	Logger   *slog.Logger
}

// Orchestrator runs tools and news pipelines under the run lock and records the outcome.
type Orchestrator struct {
	deps OrchestratorDeps

	mu   sync.RWMutex
	last *domain.RunReport
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 2 * time.Hour
	}
	return &Orchestrator{deps: deps}
}

// RunTools executes the tools pipeline alone and writes tools-report.json.
func (o *Orchestrator) RunTools(ctx context.Context) (domain.RunReport, error) {
	return o.run(ctx, "tools", true, false)
}

// RunNews executes the news pipeline alone and writes news-report.json.
func (o *Orchestrator) RunNews(ctx context.Context) (domain.RunReport, error) {
	return o.run(ctx, "news", false, true)
}

// RunAll executes tools then news. Each is independent: a failure in one
// is recorded and the other still runs. Writes automation-report.json.
func (o *Orchestrator) RunAll(ctx context.Context) (domain.RunReport, error) {
	return o.run(ctx, "automation", true, true)
}

// LastReport returns the most recent finished run, if any.
func (o *Orchestrator) LastReport() (domain.RunReport, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return domain.RunReport{}, false
	}
	return *o.last, true
}

func (o *Orchestrator) run(ctx context.Context, name string, tools, news bool) (domain.RunReport, error) {
	runID := o.deps.NewID()
	log := o.deps.Logger.With("run", runID, "mode", name)

	if o.deps.Locker != nil {
		ok, err := o.deps.Locker.TryLock(ctx, LockName, runID, o.deps.LockTTL)
		if err != nil {
			return domain.RunReport{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			log.Warn("run skipped, lock held")
			return domain.RunReport{}, ErrRunInProgress
		}
		defer func() {
			unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := o.deps.Locker.Unlock(unlockCtx, LockName, runID); err != nil {
				log.Error("release run lock", "error", err)
			}
		}()
	}

	log.Info("run started")
	report := domain.RunReport{RunID: runID}
	if tools {
		report.Tools = o.guard(ctx, "tools", o.deps.Tools, log)
	}
	if news {
		report.News = o.guard(ctx, "news", o.deps.News, log)
	}
	report.Timestamp = o.deps.Now().UTC()

	if o.deps.Reports != nil {
		if path, err := o.deps.Reports.Write(ctx, name, report); err != nil {
			log.Error("write report", "error", err)
		} else {
			log.Info("report written", "path", path)
		}
	}

	if o.deps.Notifier != nil {
		if err := o.deps.Notifier.PublishDigest(ctx, Summary(report)); err != nil {
			log.Warn("notify", "error", err)
		}
	}

	o.mu.Lock()
	o.last = &report
	o.mu.Unlock()

	if report.Failed() {
		log.Error("run finished with failures")
		return report, ErrPipelineFailed
	}
	log.Info("run finished")
	return report, nil
}

// guard runs one sub-pipeline and turns a panic into a failed report.
func (o *Orchestrator) guard(ctx context.Context, name string, r Runner, log *slog.Logger) (report *domain.PipelineReport) {
	if r == nil {
		report = domain.NewPipelineReport(name)
		report.Status = domain.StatusFailed
		report.Error = "pipeline not configured"
		return report
	}

	started := o.deps.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("pipeline panicked", "pipeline", name, "panic", rec)
			report = domain.NewPipelineReport(name)
			report.Status = domain.StatusFailed
			report.StartedAt = started
			report.FinishedAt = o.deps.Now()
			report.Error = fmt.Sprintf("panic: %v", rec)
		}
	}()
	return r.Run(ctx)
}

// Summary renders a plain-text digest of a run; the first line is a title.
func Summary(r domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "VaultX ingest %s\n", r.RunID)
	for _, p := range []*domain.PipelineReport{r.Tools, r.News} {
		if p == nil {
			continue
		}
		fmt.Fprintf(&b, "%s: %s, %d total (%d new, %d updated, %d failed)",
			p.Pipeline, p.Status, p.Total, p.Written.Inserted, p.Written.Updated, p.Written.Failed)
		if p.Error != "" {
			fmt.Fprintf(&b, " error: %s", p.Error)
		}
		if n := len(p.SourceErrors); n > 0 {
			fmt.Fprintf(&b, ", %d source(s) down", n)
		}
		if n := len(p.Skipped); n > 0 {
			fmt.Fprintf(&b, ", %d skipped", n)
		}
		if len(p.Warnings) > 0 {
			fmt.Fprintf(&b, " warning: %s", strings.Join(p.Warnings, "; "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
