package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedItem marks a source record that cannot become a stored entity.
var ErrMalformedItem = errors.New("malformed item")

// Sentiment is the coarse tone label attached to a news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// RawNews is the typed shape every news adapter maps its payload into.
type RawNews struct {
	Title       string
	Content     string
	URL         string
	Source      string
	Author      string
	PublishedAt time.Time
	ImageURL    string
	// Engagement is the site-provided score; nil when the site has none.
	Engagement *int
}

// Validate rejects records missing a title or a body.
func (r RawNews) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrMalformedItem)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: missing content for %q", ErrMalformedItem, r.Title)
	}
	return nil
}

// NewsItem is the normalized news record persisted to the store.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author"`
	PublishedAt string    `json:"publishedAt"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category"`
	Sentiment   Sentiment `json:"sentiment"`
	Topics      []string  `json:"topics"`
	ReadTime    int       `json:"readTime"`
	Engagement  int       `json:"engagement"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
