package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"VaultXIngest/internal/domain"
)

const (
	lockTable     = "pipeline_locks"
	timestampForm = time.RFC3339Nano
)

// Tables names the news and tools tables.
type Tables struct {
	News  string
	Tools string
}

func (t Tables) withDefaults() Tables {
	if t.News == "" {
		t.News = "ai_news"
	}
	if t.Tools == "" {
		t.Tools = "ai_tools"
	}
	return t
}

// newsRow is the column layout shared by the SQL and PostgREST backends.
type newsRow struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"published_at"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
	Sentiment   string   `json:"sentiment"`
	Topics      []string `json:"topics"`
	ReadTime    int      `json:"read_time"`
	Engagement  int      `json:"engagement"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at"`
}

func newsToRow(item domain.NewsItem) newsRow {
	topics := item.Topics
	if topics == nil {
		topics = []string{}
	}
	return newsRow{
		ID:          item.ID,
		Title:       item.Title,
		Content:     item.Content,
		URL:         item.URL,
		Source:      item.Source,
		Author:      item.Author,
		PublishedAt: item.PublishedAt,
		ImageURL:    item.ImageURL,
		Category:    item.Category,
		Sentiment:   string(item.Sentiment),
		Topics:      topics,
		ReadTime:    item.ReadTime,
		Engagement:  item.Engagement,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

func (r newsRow) toDomain() (domain.NewsItem, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.NewsItem{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.NewsItem{}, err
	}
	return domain.NewsItem{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		URL:         r.URL,
		Source:      r.Source,
		Author:      r.Author,
		PublishedAt: r.PublishedAt,
		ImageURL:    r.ImageURL,
		Category:    r.Category,
		Sentiment:   domain.Sentiment(r.Sentiment),
		Topics:      r.Topics,
		ReadTime:    r.ReadTime,
		Engagement:  r.Engagement,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

type toolRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Logo        string  `json:"logo"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	WeeklyUsers int     `json:"weekly_users"`
	Growth      float64 `json:"growth"`
	Website     string  `json:"website"`
	Pricing     string  `json:"pricing"`
	Source      string  `json:"source"`
	Votes       int     `json:"votes"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
}

func toolToRow(item domain.ToolItem) toolRow {
	return toolRow{
		ID:          item.ID,
		Name:        item.Name,
		Logo:        item.Logo,
		Description: item.Description,
		Category:    item.Category,
		Rating:      item.Rating,
		WeeklyUsers: item.WeeklyUsers,
		Growth:      item.Growth,
		Website:     item.Website,
		Pricing:     item.Pricing,
		Source:      item.Source,
		Votes:       item.Votes,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

func (r toolRow) toDomain() (domain.ToolItem, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.ToolItem{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.ToolItem{}, err
	}
	return domain.ToolItem{
		ID:          r.ID,
		Name:        r.Name,
		Logo:        r.Logo,
		Description: r.Description,
		Category:    r.Category,
		Rating:      r.Rating,
		WeeklyUsers: r.WeeklyUsers,
		Growth:      r.Growth,
		Website:     r.Website,
		Pricing:     r.Pricing,
		Source:      r.Source,
		Votes:       r.Votes,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampForm)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampForm, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func encodeTopics(topics []string) (string, error) {
	if topics == nil {
		topics = []string{}
	}
	raw, err := json.Marshal(topics)
	if err != nil {
		return "", fmt.Errorf("encode topics: %w", err)
	}
	return string(raw), nil
}

func decodeTopics(raw string) ([]string, error) {
	topics := []string{}
	if raw == "" {
		return topics, nil
	}
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return topics, nil
}
