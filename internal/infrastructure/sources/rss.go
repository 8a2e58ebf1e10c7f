package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

// RSS parses every configured feed. A feed that fails is skipped as long
// as at least one other feed succeeds.
type RSS struct {
	cfg    config.SourceConfig
	parser *gofeed.Parser
}

var _ scanner.NewsSource = (*RSS)(nil)

func NewRSS(cfg config.SourceConfig, client *http.Client) *RSS {
	p := gofeed.NewParser()
	p.Client = defaultClient(client)
	p.UserAgent = userAgent
	return &RSS{cfg: cfg, parser: p}
}

func (r *RSS) Name() string { return r.cfg.Name }

func (r *RSS) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	if len(r.cfg.Feeds) == 0 {
		return nil, errors.New("rss: no feeds configured")
	}
	limit := limitOr(r.cfg.Limit, 10)

	var (
		items []domain.RawNews
		errs  []error
	)
	for _, feedURL := range r.cfg.Feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", feedURL, err))
			continue
		}
		for i, entry := range feed.Items {
			if i == limit {
				break
			}
			items = append(items, r.toRaw(entry))
		}
	}

	if len(errs) == len(r.cfg.Feeds) {
		return nil, fmt.Errorf("rss: %w", errors.Join(errs...))
	}
	return items, nil
}

func (r *RSS) toRaw(entry *gofeed.Item) domain.RawNews {
	content := entry.Description
	if strings.TrimSpace(content) == "" {
		content = entry.Content
	}

	raw := domain.RawNews{
		Title:   entry.Title,
		Content: content,
		URL:     entry.Link,
		Source:  r.cfg.Name,
	}
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		raw.Author = entry.Authors[0].Name
	}
	if entry.PublishedParsed != nil {
		raw.PublishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		raw.PublishedAt = entry.UpdatedParsed.UTC()
	}
	if entry.Image != nil {
		raw.ImageURL = entry.Image.URL
	}
	return raw
}
