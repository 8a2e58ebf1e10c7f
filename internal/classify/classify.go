package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"VaultXIngest/internal/domain"
)

type keywordRule struct {
	label    string
	keywords []string
}

// Classifier derives categories, sentiment, topics and logos from free text.
type Classifier struct {
	defaults       Defaults
	newsCategories []keywordRule
	toolCategories []keywordRule
	logos          []keywordRule
	positive       []string
	negative       []string
	// topics holds display-form keywords, model then company then technology.
	topics [3][]string
}

// New builds a classifier; rule order within each kind is preserved.
func New(rs RuleSet) *Classifier {
	c := &Classifier{defaults: rs.Defaults}
	for _, r := range rs.Rules {
		switch r.Kind {
		case KindNewsCategory:
			c.newsCategories = append(c.newsCategories, lowered(r))
		case KindToolCategory:
			c.toolCategories = append(c.toolCategories, lowered(r))
		case KindLogo:
			c.logos = append(c.logos, lowered(r))
		case KindSentiment:
			kw := lowered(r).keywords
			if r.Label == LabelPositive {
				c.positive = append(c.positive, kw...)
			} else {
				c.negative = append(c.negative, kw...)
			}
		case KindTopic:
			idx := topicIndex(r.Label)
			c.topics[idx] = append(c.topics[idx], r.Keywords...)
		}
	}
	return c
}

// Categorize returns the first news category whose keywords appear in the text.
func (c *Classifier) Categorize(title, body string) string {
	return firstMatch(c.newsCategories, joinText(title, body), c.defaults.NewsCategory)
}

// Categories is the closed set Categorize can return, in rule order.
func (c *Classifier) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range c.newsCategories {
		if _, ok := seen[r.label]; ok {
			continue
		}
		seen[r.label] = struct{}{}
		out = append(out, r.label)
	}
	if _, ok := seen[c.defaults.NewsCategory]; !ok {
		out = append(out, c.defaults.NewsCategory)
	}
	return out
}

// Sentiment compares positive and negative keyword occurrences. Ties are neutral.
func (c *Classifier) Sentiment(title, body string) domain.Sentiment {
	text := joinText(title, body)
	pos, neg := 0, 0
	for _, kw := range c.positive {
		pos += countWord(text, kw)
	}
	for _, kw := range c.negative {
		neg += countWord(text, kw)
	}
	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// ExtractTopics returns matched model, company and technology keywords without repeats.
func (c *Classifier) ExtractTopics(title, body string) []string {
	text := joinText(title, body)
	seen := map[string]struct{}{}
	out := []string{}
	for _, table := range c.topics {
		for _, kw := range table {
			key := strings.ToLower(kw)
			if _, ok := seen[key]; ok {
				continue
			}
			if countWord(text, key) > 0 {
				seen[key] = struct{}{}
				out = append(out, kw)
			}
		}
	}
	return out
}

// ToolCategory picks the directory category for a tool.
func (c *Classifier) ToolCategory(name, description string) string {
	return firstMatch(c.toolCategories, joinText(name, description), c.defaults.ToolCategory)
}

// Logo picks an emoji for a tool.
func (c *Classifier) Logo(name, description string) string {
	return firstMatch(c.logos, joinText(name, description), c.defaults.Logo)
}

func firstMatch(rules []keywordRule, text, fallback string) string {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if countWord(text, kw) > 0 {
				return r.label
			}
		}
	}
	return fallback
}

func lowered(r Rule) keywordRule {
	kws := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return keywordRule{label: r.Label, keywords: kws}
}

func topicIndex(label string) int {
	switch label {
	case LabelModel:
		return 0
	case LabelCompany:
		return 1
	default:
		return 2
	}
}

func joinText(a, b string) string {
	return strings.ToLower(a + " " + b)
}

// countWord counts occurrences of word in text that are not embedded in a
// longer alphanumeric token. Both arguments must already be lowercase.
func countWord(text, word string) int {
	if word == "" {
		return 0
	}
	n := 0
	for i := 0; i <= len(text)-len(word); {
		j := strings.Index(text[i:], word)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			n++
			i = end
			continue
		}
		i = start + 1
	}
	return n
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !isWordRune(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
