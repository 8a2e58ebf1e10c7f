package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/ports"
	"VaultXIngest/internal/scanner"
)

const defaultSourceTimeout = 30 * time.Second

// Collector runs the configured adapters and merges their output in
// configured order. A failing adapter contributes zero items.
type Collector struct {
	registry   *scanner.Registry
	news       []string
	tools      []string
	timeout    time.Duration
	sequential bool
	logger     *slog.Logger
}

var (
	_ ports.NewsCollector = (*Collector)(nil)
	_ ports.ToolCollector = (*Collector)(nil)
)

// CollectorOptions tune fan-out.
type CollectorOptions struct {
	Timeout    time.Duration
	Sequential bool
}

// NewCollector wires the adapter registry with the source names to run, in order.
func NewCollector(reg *scanner.Registry, news, tools []string, opts CollectorOptions, log *slog.Logger) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSourceTimeout
	}
	return &Collector{
		registry:   reg,
		news:       news,
		tools:      tools,
		timeout:    opts.Timeout,
		sequential: opts.Sequential,
		logger:     log,
	}
}

type fetcher[T any] struct {
	name  string
	fetch func(context.Context) ([]T, error)
}

// CollectNews fetches every configured news adapter.
func (c *Collector) CollectNews(ctx context.Context) ([]domain.RawNews, []scanner.Outcome) {
	fetchers := make([]fetcher[domain.RawNews], 0, len(c.news))
	for _, name := range c.news {
		f := fetcher[domain.RawNews]{name: name}
		if src, err := c.registry.ResolveNews(name); err != nil {
			f.fetch = failWith[domain.RawNews](err)
		} else {
			f.fetch = src.FetchNews
		}
		fetchers = append(fetchers, f)
	}
	return collect(ctx, c, fetchers)
}

// CollectTools fetches every configured tool adapter.
func (c *Collector) CollectTools(ctx context.Context) ([]domain.RawTool, []scanner.Outcome) {
	fetchers := make([]fetcher[domain.RawTool], 0, len(c.tools))
	for _, name := range c.tools {
		f := fetcher[domain.RawTool]{name: name}
		if src, err := c.registry.ResolveTools(name); err != nil {
			f.fetch = failWith[domain.RawTool](err)
		} else {
			f.fetch = src.FetchTools
		}
		fetchers = append(fetchers, f)
	}
	return collect(ctx, c, fetchers)
}

func failWith[T any](err error) func(context.Context) ([]T, error) {
	return func(context.Context) ([]T, error) { return nil, err }
}

func collect[T any](ctx context.Context, c *Collector, fetchers []fetcher[T]) ([]T, []scanner.Outcome) {
	results := make([][]T, len(fetchers))
	outcomes := make([]scanner.Outcome, len(fetchers))

	var g errgroup.Group
	if c.sequential {
		g.SetLimit(1)
	}
	for i, f := range fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			items, err := f.fetch(fctx)
			outcomes[i] = scanner.Outcome{Source: f.name}
			if errors.Is(err, scanner.ErrMissingAPIKey) {
				outcomes[i].Skipped, outcomes[i].Err = true, err
				c.info("source skipped", "source", f.name, "reason", err)
				return nil
			}
			if err != nil {
				outcomes[i].Err = err
				c.warn("source failed", "source", f.name, "error", err)
				return nil
			}
			results[i] = items
			outcomes[i].Count = len(items)
			c.debug("source fetched", "source", f.name, "count", len(items), "took", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	var merged []T
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged, outcomes
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// Build registers one adapter per enabled source entry and returns the
// registry plus the enabled names in configured order.
func Build(cfg config.SourcesConfig, client *http.Client) (reg *scanner.Registry, news, tools []string, err error) {
	reg = scanner.NewRegistry()

	for _, sc := range cfg.News {
		if sc.Disabled {
			continue
		}
		if sc.Name == "" {
			sc.Name = sc.Type
		}
		var src scanner.NewsSource
		switch sc.Type {
		case "newsapi":
			src = NewNewsAPI(sc, client)
		case "reddit":
			src = NewReddit(sc, client)
		case "hackernews":
			src = NewHackerNews(sc, client)
		case "devto":
			src = NewDevTo(sc, client)
		case "rss":
			src = NewRSS(sc, client)
		case "arxiv":
			src = NewArxiv(sc, client)
		default:
			return nil, nil, nil, fmt.Errorf("news source %s: unknown type %q", sc.Name, sc.Type)
		}
		reg.RegisterNews(src)
		news = append(news, sc.Name)
	}

	for _, sc := range cfg.Tools {
		if sc.Disabled {
			continue
		}
		if sc.Name == "" {
			sc.Name = sc.Type
		}
		var src scanner.ToolSource
		switch sc.Type {
		case "github":
			src = NewGitHub(sc, client)
		case "huggingface":
			src = NewHuggingFace(sc, client)
		default:
			return nil, nil, nil, fmt.Errorf("tool source %s: unknown type %q", sc.Name, sc.Type)
		}
		reg.RegisterTools(src)
		tools = append(tools, sc.Name)
	}

	return reg, news, tools, nil
}
