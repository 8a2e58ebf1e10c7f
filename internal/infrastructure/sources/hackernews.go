package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

const hnItemWorkers = 8

var aiWords = map[string]struct{}{
	"ai": {}, "agi": {}, "llm": {}, "llms": {}, "gpt": {}, "chatgpt": {}, "openai": {},
	"anthropic": {}, "claude": {}, "gemini": {}, "llama": {}, "mistral": {}, "neural": {},
	"transformer": {}, "transformers": {}, "diffusion": {}, "copilot": {}, "deepmind": {},
}

var aiPhrases = []string{"machine learning", "deep learning", "language model", "artificial intelligence"}

// HackerNews walks the top stories list and keeps AI related ones.
type HackerNews struct {
	cfg     config.SourceConfig
	client  *http.Client
	limiter *rate.Limiter
}

var _ scanner.NewsSource = (*HackerNews)(nil)

func NewHackerNews(cfg config.SourceConfig, client *http.Client) *HackerNews {
	rps, err := strconv.ParseFloat(cfg.Option("rps", "10"), 64)
	if err != nil || rps <= 0 {
		rps = 10
	}
	return &HackerNews{
		cfg:     cfg,
		client:  defaultClient(client),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (h *HackerNews) Name() string { return h.cfg.Name }

type hnItem struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Score int    `json:"score"`
	Dead  bool   `json:"dead"`
}

func (h *HackerNews) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	topURL, err := endpoint(h.cfg.BaseURL, "/v0/topstories.json", nil)
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := getJSON(ctx, h.client, topURL, nil, &ids); err != nil {
		return nil, fmt.Errorf("hackernews top stories: %w", err)
	}

	scan, err := strconv.Atoi(h.cfg.Option("scan", "100"))
	if err != nil || scan <= 0 {
		scan = 100
	}
	if len(ids) > scan {
		ids = ids[:scan]
	}

	stories := make([]*hnItem, len(ids))
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hnItemWorkers)
	for i, id := range ids {
		g.Go(func() error {
			if err := h.limiter.Wait(gctx); err != nil {
				return err
			}
			itemURL, err := endpoint(h.cfg.BaseURL, "/v0/item/"+strconv.Itoa(id)+".json", nil)
			if err != nil {
				return err
			}
			var item hnItem
			if err := getJSON(gctx, h.client, itemURL, nil, &item); err != nil {
				failed.Add(1)
				return nil
			}
			stories[i] = &item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hackernews items: %w", err)
	}
	if len(ids) > 0 && int(failed.Load()) == len(ids) {
		return nil, errors.New("hackernews: every item request failed")
	}

	limit := limitOr(h.cfg.Limit, 15)
	items := make([]domain.RawNews, 0, limit)
	for _, s := range stories {
		if len(items) == limit {
			break
		}
		if s == nil || s.Dead || s.Type != "story" || !aiRelated(s.Title) {
			continue
		}
		items = append(items, h.toRaw(s))
	}
	return items, nil
}

func (h *HackerNews) toRaw(s *hnItem) domain.RawNews {
	content := s.Text
	if strings.TrimSpace(content) == "" {
		content = s.Title
	}
	link := s.URL
	if link == "" {
		link = "https://news.ycombinator.com/item?id=" + strconv.Itoa(s.ID)
	}
	score := s.Score
	return domain.RawNews{
		Title:       s.Title,
		Content:     content,
		URL:         link,
		Source:      h.cfg.Name,
		Author:      s.By,
		PublishedAt: unixTime(s.Time),
		Engagement:  &score,
	}
}

func aiRelated(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range aiPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := aiWords[w]; ok {
			return true
		}
	}
	return false
}
