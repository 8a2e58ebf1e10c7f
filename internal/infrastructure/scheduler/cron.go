package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"VaultXIngest/internal/ports"
	"VaultXIngest/pkg/logger"
)

// CronScheduler runs one job on a standard five-field cron expression.
// Overlapping triggers are skipped and panics are recovered.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	stopped context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates the expression up front.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) (*CronScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return &CronScheduler{spec: spec, location: loc, logger: log}, nil
}

// Start registers the job and begins ticking. The caller owns shutdown via Stop.
func (c *CronScheduler) Start(_ context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil || c.stopped != nil {
		return nil
	}

	cl := logger.Cron(c.logger, "scheduler")
	cr := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.location)) })
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	cr.Start()
	c.cron, c.entry = cr, id
	return nil
}

// Stop halts scheduling and waits for a running job to finish or ctx to end.
// Every caller waits on the same running job, not only the first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron != nil {
		c.stopped = c.cron.Stop()
		c.cron = nil
	}
	done := c.stopped
	c.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun reports the next activation; zero before Start.
func (c *CronScheduler) NextRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entry).Next
}
