package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "VAULTX_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	storeDriverEnv    = "STORE_DRIVER"
	supabaseURLEnv    = "SUPABASE_URL"
	supabaseKeyEnv    = "SUPABASE_SERVICE_ROLE_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	newsAPIKeyEnv     = "NEWS_API_KEY"
	githubTokenEnv    = "GITHUB_TOKEN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	cronExprEnv       = "CRON_EXPRESSION"
	reportDirEnv      = "REPORT_DIR"
)

// Store drivers.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrMissingStoreCredentials is fatal at startup: no run may begin without a store.
var ErrMissingStoreCredentials = errors.New("store credentials are not configured")

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Store         StoreConfig        `yaml:"store"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Report        ReportConfig       `yaml:"report"`
	Sources       SourcesConfig      `yaml:"sources"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig describes where normalized records are written.
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"serviceKey"`
	DSN        string `yaml:"dsn"`
	NewsTable  string `yaml:"newsTable"`
	ToolsTable string `yaml:"toolsTable"`
}

// SchedulerConfig defines when the combined pipeline runs.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	StatusAddr     string         `yaml:"statusAddr"`
	LockTTL        time.Duration  `yaml:"lockTTL"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PipelineConfig carries batch limits and normalization settings.
type PipelineConfig struct {
	MaxNewsPerRun     int           `yaml:"maxNewsPerRun"`
	MaxToolsPerRun    int           `yaml:"maxToolsPerRun"`
	NewsIDMaxLength   int           `yaml:"newsIdMaxLength"`
	ToolIDMaxLength   int           `yaml:"toolIdMaxLength"`
	ContentMaxLength  int           `yaml:"contentMaxLength"`
	DuplicatePolicy   string        `yaml:"duplicatePolicy"`
	SequentialSources bool          `yaml:"sequentialSources"`
	SourceTimeout     time.Duration `yaml:"sourceTimeout"`
	RulesPath         string        `yaml:"rulesPath"`
}

// ReportConfig points at the directory receiving run reports.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// SourcesConfig lists adapters in priority order.
type SourcesConfig struct {
	News  []SourceConfig `yaml:"news"`
	Tools []SourceConfig `yaml:"tools"`
}

// SourceConfig describes one adapter instance.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Disabled bool              `yaml:"disabled"`
	BaseURL  string            `yaml:"baseUrl"`
	APIKey   string            `yaml:"apiKey"`
	Query    string            `yaml:"query"`
	Limit    int               `yaml:"limit"`
	Feeds    []string          `yaml:"feeds"`
	Options  map[string]string `yaml:"options"`
}

// Option returns an adapter option or fallback when unset.
func (s SourceConfig) Option(key, fallback string) string {
	if v, ok := s.Options[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over VAULTX_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate reports setup errors that must stop the process before any work.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSupabase:
		if c.Store.URL == "" || c.Store.ServiceKey == "" {
			return fmt.Errorf("%w: %s and %s are required", ErrMissingStoreCredentials, supabaseURLEnv, supabaseKeyEnv)
		}
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingStoreCredentials, databaseDSNEnv)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Pipeline.MaxNewsPerRun <= 0 || c.Pipeline.MaxToolsPerRun <= 0 {
		return fmt.Errorf("pipeline limits must be positive")
	}
	if c.Pipeline.NewsIDMaxLength < 0 || c.Pipeline.ToolIDMaxLength < 0 {
		return fmt.Errorf("id length caps cannot be negative")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(supabaseURLEnv); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv(supabaseKeyEnv); v != "" {
		c.Store.ServiceKey = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Store.DSN = v
		if os.Getenv(supabaseURLEnv) == "" && c.Store.Driver == DriverSupabase {
			c.Store.Driver = DriverPostgres
		}
	}
	if v := os.Getenv(storeDriverEnv); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(cronExprEnv); v != "" {
		c.Scheduler.CronExpression = v
	}
	if v := os.Getenv(reportDirEnv); v != "" {
		c.Report.Dir = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		setAPIKey(c.Sources.News, "newsapi", v)
	}
	if v := os.Getenv(githubTokenEnv); v != "" {
		setAPIKey(c.Sources.Tools, "github", v)
	}
}

func setAPIKey(sources []SourceConfig, sourceType, key string) {
	for i := range sources {
		if sources[i].Type == sourceType && sources[i].APIKey == "" {
			sources[i].APIKey = key
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Store.Driver != "" {
		base.Store.Driver = override.Store.Driver
	}
	if override.Store.URL != "" {
		base.Store.URL = override.Store.URL
	}
	if override.Store.ServiceKey != "" {
		base.Store.ServiceKey = override.Store.ServiceKey
	}
	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}
	if override.Store.NewsTable != "" {
		base.Store.NewsTable = override.Store.NewsTable
	}
	if override.Store.ToolsTable != "" {
		base.Store.ToolsTable = override.Store.ToolsTable
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.StatusAddr != "" {
		base.Scheduler.StatusAddr = override.Scheduler.StatusAddr
	}
	if override.Scheduler.LockTTL > 0 {
		base.Scheduler.LockTTL = override.Scheduler.LockTTL
	}

	base.Pipeline = mergePipeline(base.Pipeline, override.Pipeline)

	if override.Report.Dir != "" {
		base.Report.Dir = override.Report.Dir
	}

	if len(override.Sources.News) > 0 {
		base.Sources.News = override.Sources.News
	}
	if len(override.Sources.Tools) > 0 {
		base.Sources.Tools = override.Sources.Tools
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func mergePipeline(base, override PipelineConfig) PipelineConfig {
	if override.MaxNewsPerRun > 0 {
		base.MaxNewsPerRun = override.MaxNewsPerRun
	}
	if override.MaxToolsPerRun > 0 {
		base.MaxToolsPerRun = override.MaxToolsPerRun
	}
	if override.NewsIDMaxLength > 0 {
		base.NewsIDMaxLength = override.NewsIDMaxLength
	}
	if override.ToolIDMaxLength > 0 {
		base.ToolIDMaxLength = override.ToolIDMaxLength
	}
	if override.ContentMaxLength > 0 {
		base.ContentMaxLength = override.ContentMaxLength
	}
	if override.DuplicatePolicy != "" {
		base.DuplicatePolicy = override.DuplicatePolicy
	}
	if override.SequentialSources {
		base.SequentialSources = true
	}
	if override.SourceTimeout > 0 {
		base.SourceTimeout = override.SourceTimeout
	}
	if override.RulesPath != "" {
		base.RulesPath = override.RulesPath
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Driver:     DriverSupabase,
			NewsTable:  "ai_news",
			ToolsTable: "ai_tools",
		},
		Scheduler: SchedulerConfig{
			CronExpression: "0 9 * * *",
			Timezone:       defaultTimezone,
			StatusAddr:     ":8090",
			LockTTL:        2 * time.Hour,
			location:       tz,
		},
		Pipeline: PipelineConfig{
			MaxNewsPerRun:    50,
			MaxToolsPerRun:   50,
			NewsIDMaxLength:  50,
			ToolIDMaxLength:  0,
			ContentMaxLength: 500,
			DuplicatePolicy:  "first",
			SourceTimeout:    30 * time.Second,
		},
		Report: ReportConfig{Dir: "logs"},
		Sources: SourcesConfig{
			News: []SourceConfig{
				{Name: "newsapi", Type: "newsapi", BaseURL: "https://newsapi.org", Query: "artificial intelligence OR machine learning", Limit: 20},
				{Name: "reddit", Type: "reddit", BaseURL: "https://www.reddit.com", Limit: 15,
					Options: map[string]string{"subreddits": "artificial,MachineLearning"}},
				{Name: "hackernews", Type: "hackernews", BaseURL: "https://hacker-news.firebaseio.com", Limit: 15,
					Options: map[string]string{"scan": "100", "rps": "10"}},
				{Name: "devto", Type: "devto", BaseURL: "https://dev.to", Limit: 15,
					Options: map[string]string{"tag": "ai"}},
				{Name: "rss", Type: "rss", Limit: 10, Feeds: []string{
					"https://openai.com/news/rss.xml",
					"https://www.technologyreview.com/topic/artificial-intelligence/feed",
				}},
				{Name: "arxiv", Type: "arxiv", BaseURL: "https://export.arxiv.org/list/cs.AI/pastweek", Limit: 10},
			},
			Tools: []SourceConfig{
				{Name: "github", Type: "github", BaseURL: "https://api.github.com", Query: "topic:artificial-intelligence stars:>1000", Limit: 30},
				{Name: "huggingface", Type: "huggingface", BaseURL: "https://huggingface.co", Limit: 30},
			},
		},
	}
}
