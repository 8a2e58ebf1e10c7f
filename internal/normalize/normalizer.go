package normalize

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"VaultXIngest/internal/classify"
	"VaultXIngest/internal/dedupe"
	"VaultXIngest/internal/domain"
)

const (
	minSyntheticEngagement   = 50
	syntheticEngagementRange = 500
	defaultPricing           = "Free"
)

// Options tune how raw records become stored entities.
type Options struct {
	NewsIDMaxLength  int
	ToolIDMaxLength  int
	ContentMaxLength int
	// IntN returns a value in [0, n); used for synthetic engagement.
	IntN func(n int) int
	Now  func() time.Time
}

// Normalizer turns typed adapter output into NewsItem and ToolItem records.
type Normalizer struct {
	classifier *classify.Classifier
	opts       Options
}

// New wires a classifier with options, filling in random and clock sources.
func New(c *classify.Classifier, opts Options) *Normalizer {
	if opts.IntN == nil {
		opts.IntN = rand.IntN
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Normalizer{classifier: c, opts: opts}
}

// News validates and enriches a raw news record.
func (n *Normalizer) News(raw domain.RawNews) (domain.NewsItem, error) {
	if err := raw.Validate(); err != nil {
		return domain.NewsItem{}, err
	}

	title := classify.CleanText(raw.Title, 0)
	content := classify.CleanText(raw.Content, n.opts.ContentMaxLength)
	if title == "" || content == "" {
		return domain.NewsItem{}, fmt.Errorf("%w: empty after cleaning: %q", domain.ErrMalformedItem, raw.Title)
	}

	id := dedupe.GenerateID(title, n.opts.NewsIDMaxLength)
	if id == "" {
		return domain.NewsItem{}, fmt.Errorf("%w: title %q yields no id", domain.ErrMalformedItem, title)
	}

	published := raw.PublishedAt
	if published.IsZero() {
		published = n.opts.Now()
	}

	engagement := minSyntheticEngagement + n.opts.IntN(syntheticEngagementRange)
	if raw.Engagement != nil {
		engagement = *raw.Engagement
	}

	return domain.NewsItem{
		ID:          id,
		Title:       title,
		Content:     content,
		URL:         strings.TrimSpace(raw.URL),
		Source:      raw.Source,
		Author:      strings.TrimSpace(raw.Author),
		PublishedAt: published.UTC().Format(time.RFC3339),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Category:    n.classifier.Categorize(title, content),
		Sentiment:   n.classifier.Sentiment(title, content),
		Topics:      n.classifier.ExtractTopics(title, content),
		ReadTime:    classify.ReadTime(content),
		Engagement:  engagement,
	}, nil
}

// Tool validates and enriches a raw tool record.
func (n *Normalizer) Tool(raw domain.RawTool) (domain.ToolItem, error) {
	if err := raw.Validate(); err != nil {
		return domain.ToolItem{}, err
	}

	name := strings.TrimSpace(raw.Name)
	description := classify.CleanText(raw.Description, n.opts.ContentMaxLength)
	if description == "" {
		return domain.ToolItem{}, fmt.Errorf("%w: empty description for %q", domain.ErrMalformedItem, name)
	}

	id := dedupe.GenerateID(name, n.opts.ToolIDMaxLength)
	if id == "" {
		return domain.ToolItem{}, fmt.Errorf("%w: name %q yields no id", domain.ErrMalformedItem, name)
	}

	pricing := strings.TrimSpace(raw.Pricing)
	if pricing == "" {
		pricing = defaultPricing
	}

	rating, weeklyUsers, growth := ToolMetrics(raw.Popularity)
	return domain.ToolItem{
		ID:          id,
		Name:        name,
		Logo:        n.classifier.Logo(name, description),
		Description: description,
		Category:    n.classifier.ToolCategory(name, description),
		Rating:      rating,
		WeeklyUsers: weeklyUsers,
		Growth:      growth,
		Website:     strings.TrimSpace(raw.Website),
		Pricing:     pricing,
		Source:      raw.Source,
		Votes:       max(raw.Popularity, 0),
	}, nil
}

// ToolMetrics derives directory stats from a popularity signal such as a star count.
func ToolMetrics(popularity int) (rating float64, weeklyUsers int, growth float64) {
	p := float64(max(popularity, 0))
	rating = round1(math.Min(5, 4+p/50000))
	weeklyUsers = int(p) * 10
	growth = round1(math.Min(50, 5+p/1000))
	return rating, weeklyUsers, growth
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
