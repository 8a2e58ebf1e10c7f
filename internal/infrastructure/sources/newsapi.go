package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

// NewsAPI queries the /v2/everything endpoint of newsapi.org.
type NewsAPI struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.NewsSource = (*NewsAPI)(nil)

func NewNewsAPI(cfg config.SourceConfig, client *http.Client) *NewsAPI {
	return &NewsAPI{cfg: cfg, client: defaultClient(client)}
}

func (n *NewsAPI) Name() string { return n.cfg.Name }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Content     string    `json:"content"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	if strings.TrimSpace(n.cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", n.cfg.Name, scanner.ErrMissingAPIKey)
	}

	q := url.Values{}
	q.Set("q", n.cfg.Query)
	q.Set("language", n.cfg.Option("language", "en"))
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(limitOr(n.cfg.Limit, 20)))
	target, err := endpoint(n.cfg.BaseURL, "/v2/everything", q)
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := getJSON(ctx, n.client, target, http.Header{"X-Api-Key": {n.cfg.APIKey}}, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s", resp.Message)
	}

	items := make([]domain.RawNews, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		content := a.Description
		if strings.TrimSpace(content) == "" {
			content = a.Content
		}
		author := a.Author
		if author == "" {
			author = a.Source.Name
		}
		items = append(items, domain.RawNews{
			Title:       a.Title,
			Content:     content,
			URL:         a.URL,
			Source:      n.cfg.Name,
			Author:      author,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
	}
	return items, nil
}
