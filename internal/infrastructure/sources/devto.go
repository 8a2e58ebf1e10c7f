package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

// DevTo lists top articles for a tag from the dev.to API.
type DevTo struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.NewsSource = (*DevTo)(nil)

func NewDevTo(cfg config.SourceConfig, client *http.Client) *DevTo {
	return &DevTo{cfg: cfg, client: defaultClient(client)}
}

func (d *DevTo) Name() string { return d.cfg.Name }

type devtoArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CoverImage  string    `json:"cover_image"`
	PublishedAt time.Time `json:"published_at"`
	Reactions   int       `json:"positive_reactions_count"`
	User        struct {
		Name string `json:"name"`
	} `json:"user"`
}

func (d *DevTo) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	q := url.Values{}
	q.Set("tag", d.cfg.Option("tag", "ai"))
	q.Set("per_page", strconv.Itoa(limitOr(d.cfg.Limit, 15)))
	q.Set("top", d.cfg.Option("top", "7"))
	target, err := endpoint(d.cfg.BaseURL, "/api/articles", q)
	if err != nil {
		return nil, err
	}

	var articles []devtoArticle
	if err := getJSON(ctx, d.client, target, nil, &articles); err != nil {
		return nil, fmt.Errorf("devto: %w", err)
	}

	items := make([]domain.RawNews, 0, len(articles))
	for _, a := range articles {
		reactions := a.Reactions
		items = append(items, domain.RawNews{
			Title:       a.Title,
			Content:     a.Description,
			URL:         a.URL,
			Source:      d.cfg.Name,
			Author:      a.User.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.CoverImage,
			Engagement:  &reactions,
		})
	}
	return items, nil
}
