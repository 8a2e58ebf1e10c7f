package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// Arxiv scrapes the newest entries of a category listing page.
type Arxiv struct {
	cfg    config.SourceConfig
	client *http.Client
}

var _ scanner.NewsSource = (*Arxiv)(nil)

func NewArxiv(cfg config.SourceConfig, client *http.Client) *Arxiv {
	return &Arxiv{cfg: cfg, client: defaultClient(client)}
}

func (a *Arxiv) Name() string { return a.cfg.Name }

func (a *Arxiv) FetchNews(ctx context.Context) ([]domain.RawNews, error) {
	limit := limitOr(a.cfg.Limit, 10)
	pageURL, err := buildPageURL(a.cfg.BaseURL, 0, limit)
	if err != nil {
		return nil, err
	}

	doc, err := a.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var items []domain.RawNews
	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		raw, ok := parseEntry(dt, dt.Next(), a.cfg.Name)
		if ok {
			items = append(items, raw)
		}
		return len(items) < limit
	})
	return items, nil
}

func (a *Arxiv) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return doc, nil
}

// parseEntry maps one dt/dd pair. Entries without a title are dropped.
func parseEntry(dt, dd *goquery.Selection, source string) (domain.RawNews, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.RawNews{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = arxivBaseURL + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		return domain.RawNews{}, false
	}

	summary := strings.TrimSpace(dd.Find("p.mathjax").First().Text())
	summary = strings.TrimSpace(strings.TrimPrefix(summary, "Abstract:"))

	authors := make([]string, 0, 4)
	dd.Find(".list-authors a").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	var published time.Time
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			published = parsed
		}
	}

	return domain.RawNews{
		Title:       title,
		Content:     summary,
		URL:         href,
		Source:      source,
		Author:      strings.Join(authors, ", "),
		PublishedAt: published,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
