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

// GitHub searches repositories and reports them as tools ranked by stars.
// The token is optional; without it the unauthenticated rate limit applies.
type GitHub struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.ToolSource = (*GitHub)(nil)

func NewGitHub(cfg config.SourceConfig, client *http.Client) *GitHub {
	return &GitHub{cfg: cfg, client: defaultClient(client)}
}

func (g *GitHub) Name() string { return g.cfg.Name }

type githubSearch struct {
	Items []struct {
		Name        string `json:"name"`
		FullName    string `json:"full_name"`
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
		Homepage    string `json:"homepage"`
		Stars       int    `json:"stargazers_count"`
		Archived    bool   `json:"archived"`
	} `json:"items"`
}

func (g *GitHub) FetchTools(ctx context.Context) ([]domain.RawTool, error) {
	q := url.Values{}
	q.Set("q", g.cfg.Query)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(limitOr(g.cfg.Limit, 30)))
	target, err := endpoint(g.cfg.BaseURL, "/search/repositories", q)
	if err != nil {
		return nil, err
	}

	header := http.Header{"Accept": {"application/vnd.github+json"}}
	if token := strings.TrimSpace(g.cfg.APIKey); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	var resp githubSearch
	if err := getJSON(ctx, g.client, target, header, &resp); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	tools := make([]domain.RawTool, 0, len(resp.Items))
	for _, repo := range resp.Items {
		if repo.Archived {
			continue
		}
		website := strings.TrimSpace(repo.Homepage)
		if website == "" {
			website = repo.HTMLURL
		}
		tools = append(tools, domain.RawTool{
			Name:        repo.Name,
			Description: repo.Description,
			Website:     website,
			Pricing:     "Open Source",
			Source:      g.cfg.Name,
			Popularity:  repo.Stars,
		})
	}
	return tools, nil
}
