package ports

import (
	"context"
	"time"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

// NewsCollector pulls raw news from every configured upstream.
// Per-source failures are reported in the outcomes, never returned.
type NewsCollector interface {
	CollectNews(ctx context.Context) ([]domain.RawNews, []scanner.Outcome)
}

// ToolCollector pulls raw tool listings from every configured upstream.
type ToolCollector interface {
	CollectTools(ctx context.Context) ([]domain.RawTool, []scanner.Outcome)
}

// NewsRepository stores normalized news keyed by id.
type NewsRepository interface {
	NewsExists(ctx context.Context, id string) (bool, error)
	InsertNews(ctx context.Context, item domain.NewsItem) error
	// UpdateNews overwrites every column except created_at.
	UpdateNews(ctx context.Context, item domain.NewsItem) error
}

// ToolRepository stores normalized tools keyed by id.
type ToolRepository interface {
	ToolExists(ctx context.Context, id string) (bool, error)
	InsertTool(ctx context.Context, item domain.ToolItem) error
	UpdateTool(ctx context.Context, item domain.ToolItem) error
}

// RunLocker guards against overlapping runs across processes.
// A lock older than ttl is considered abandoned and may be taken over.
type RunLocker interface {
	TryLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name, holder string) error
}

// ReportWriter persists a run summary under a short name such as "news".
type ReportWriter interface {
	Write(ctx context.Context, name string, report any) (string, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
	NextRun() time.Time
}
