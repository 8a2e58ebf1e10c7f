package classify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleKind tags what a rule feeds into.
type RuleKind string

const (
	KindNewsCategory RuleKind = "news_category"
	KindToolCategory RuleKind = "tool_category"
	KindLogo         RuleKind = "logo"
	KindSentiment    RuleKind = "sentiment"
	KindTopic        RuleKind = "topic"
)

// Labels accepted for sentiment and topic rules.
const (
	LabelPositive   = "positive"
	LabelNegative   = "negative"
	LabelModel      = "model"
	LabelCompany    = "company"
	LabelTechnology = "technology"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule maps a keyword list to a label for one classification kind.
type Rule struct {
	Kind     RuleKind `yaml:"kind"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// Defaults are the fallbacks used when no rule of a kind matches.
type Defaults struct {
	NewsCategory string `yaml:"newsCategory"`
	ToolCategory string `yaml:"toolCategory"`
	Logo         string `yaml:"logo"`
}

// RuleSet is the ordered rule list. Order is part of the behaviour.
type RuleSet struct {
	Defaults Defaults `yaml:"defaults"`
	Rules    []Rule   `yaml:"rules"`
}

// DefaultRules returns the rule set shipped with the binary.
func DefaultRules() (RuleSet, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule file; an empty path selects the embedded defaults.
func LoadRules(path string) (RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	rs, err := ParseRules(raw)
	if err != nil {
		return RuleSet{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes and validates a YAML rule document.
func ParseRules(raw []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// Validate checks kinds, labels and defaults.
func (rs RuleSet) Validate() error {
	if rs.Defaults.NewsCategory == "" || rs.Defaults.ToolCategory == "" || rs.Defaults.Logo == "" {
		return fmt.Errorf("rules: defaults must set newsCategory, toolCategory and logo")
	}
	for i, r := range rs.Rules {
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("rules[%d]: empty label", i)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rules[%d] %s: no keywords", i, r.Label)
		}
		switch r.Kind {
		case KindNewsCategory, KindToolCategory, KindLogo:
		case KindSentiment:
			if r.Label != LabelPositive && r.Label != LabelNegative {
				return fmt.Errorf("rules[%d]: sentiment label %q", i, r.Label)
			}
		case KindTopic:
			if r.Label != LabelModel && r.Label != LabelCompany && r.Label != LabelTechnology {
				return fmt.Errorf("rules[%d]: topic label %q", i, r.Label)
			}
		default:
			return fmt.Errorf("rules[%d]: unknown kind %q", i, r.Kind)
		}
	}
	return nil
}
