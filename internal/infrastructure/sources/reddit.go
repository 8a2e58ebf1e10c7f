package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

// Reddit reads the hot listing of each configured subreddit.
// Link posts carry no body and are skipped.
type Reddit struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.NewsSource = (*Reddit)(nil)

func NewReddit(cfg config.SourceConfig, client *http.Client) *Reddit {
	return &Reddit{cfg: cfg, client: defaultClient(client)}
}

func (r *Reddit) Name() string { return r.cfg.Name }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	Thumbnail  string  `json:"thumbnail"`
	Stickied   bool    `json:"stickied"`
}

func (r *Reddit) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	subs := splitList(r.cfg.Option("subreddits", "artificial"))
	limit := limitOr(r.cfg.Limit, 15)

	var items []domain.RawNews
	for _, sub := range subs {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))
		target, err := endpoint(r.cfg.BaseURL, "/r/"+url.PathEscape(sub)+"/hot.json", q)
		if err != nil {
			return nil, err
		}

		var listing redditListing
		if err := getJSON(ctx, r.client, target, nil, &listing); err != nil {
			return nil, fmt.Errorf("reddit r/%s: %w", sub, err)
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			if post.Stickied || strings.TrimSpace(post.Selftext) == "" {
				continue
			}
			score := post.Score
			items = append(items, domain.RawNews{
				Title:       post.Title,
				Content:     post.Selftext,
				URL:         strings.TrimRight(r.cfg.BaseURL, "/") + post.Permalink,
				Source:      r.cfg.Name,
				Author:      post.Author,
				PublishedAt: unixTime(int64(post.CreatedUTC)),
				ImageURL:    thumbnail(post.Thumbnail),
				Engagement:  &score,
			})
		}
	}
	return items, nil
}

// thumbnail drops reddit placeholders such as "self" and "default".
func thumbnail(v string) string {
	if strings.HasPrefix(v, "http") {
		return v
	}
	return ""
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
