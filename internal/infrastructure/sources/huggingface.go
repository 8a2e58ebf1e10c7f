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

// HuggingFace lists the most liked Spaces as tools.
type HuggingFace struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.ToolSource = (*HuggingFace)(nil)

func NewHuggingFace(cfg config.SourceConfig, client *http.Client) *HuggingFace {
	return &HuggingFace{cfg: cfg, client: defaultClient(client)}
}

func (h *HuggingFace) Name() string { return h.cfg.Name }

type hfSpace struct {
	ID       string `json:"id"`
	Likes    int    `json:"likes"`
	CardData struct {
		Title            string `json:"title"`
		ShortDescription string `json:"short_description"`
	} `json:"cardData"`
}

func (h *HuggingFace) FetchTools(ctx context.Context) ([]domain.RawTool, error) {
	q := url.Values{}
	q.Set("sort", "likes")
	q.Set("direction", "-1")
	q.Set("limit", strconv.Itoa(limitOr(h.cfg.Limit, 30)))
	q.Set("full", "true")
	target, err := endpoint(h.cfg.BaseURL, "/api/spaces", q)
	if err != nil {
		return nil, err
	}

	var spaces []hfSpace
	if err := getJSON(ctx, h.client, target, nil, &spaces); err != nil {
		return nil, fmt.Errorf("huggingface: %w", err)
	}

	base := strings.TrimRight(h.cfg.BaseURL, "/")
	tools := make([]domain.RawTool, 0, len(spaces))
	for _, s := range spaces {
		name := strings.TrimSpace(s.CardData.Title)
		if name == "" {
			_, name, _ = strings.Cut(s.ID, "/")
		}
		tools = append(tools, domain.RawTool{
			Name:        name,
			Description: s.CardData.ShortDescription,
			Website:     base + "/spaces/" + s.ID,
			Source:      h.cfg.Name,
			Popularity:  s.Likes,
		})
	}
	return tools, nil
}
