package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, logLevelEnv, logFormatEnv, storeDriverEnv, supabaseURLEnv, supabaseKeyEnv,
		databaseDSNEnv, newsAPIKeyEnv, githubTokenEnv, telegramTokenEnv, telegramChatIDEnv,
		cronExprEnv, reportDirEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	require.Equal(t, DriverSupabase, cfg.Store.Driver)
	require.Equal(t, "0 9 * * *", cfg.Scheduler.CronExpression)
	require.Equal(t, time.UTC.String(), cfg.Scheduler.Location().String())
	require.Equal(t, 50, cfg.Pipeline.MaxNewsPerRun)
	require.Equal(t, 50, cfg.Pipeline.NewsIDMaxLength)
	require.Zero(t, cfg.Pipeline.ToolIDMaxLength)
	require.False(t, cfg.Pipeline.SequentialSources)
	require.Len(t, cfg.Sources.News, 6)
	require.Len(t, cfg.Sources.Tools, 2)

	require.ErrorIs(t, cfg.Validate(), ErrMissingStoreCredentials)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "vaultx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
store:
  driver: sqlite
  dsn: file:ingest.db
scheduler:
  timezone: Europe/Berlin
  lockTTL: 30m
pipeline:
  maxNewsPerRun: 10
  sequentialSources: true
  sourceTimeout: 5s
sources:
  news:
    - type: newsapi
      baseUrl: http://localhost:9000
`), 0o644))

	t.Setenv(configPathEnv, path)
	t.Setenv(newsAPIKeyEnv, "secret")
	t.Setenv(cronExprEnv, "30 6 * * *")

	cfg := Load("")
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "ai_news", cfg.Store.NewsTable, "unset fields keep defaults")
	require.Equal(t, "30 6 * * *", cfg.Scheduler.CronExpression)
	require.Equal(t, 30*time.Minute, cfg.Scheduler.LockTTL)
	require.Equal(t, 10, cfg.Pipeline.MaxNewsPerRun)
	require.Equal(t, 50, cfg.Pipeline.MaxToolsPerRun)
	require.True(t, cfg.Pipeline.SequentialSources)
	require.Equal(t, 5*time.Second, cfg.Pipeline.SourceTimeout)

	require.Len(t, cfg.Sources.News, 1)
	require.Equal(t, "secret", cfg.Sources.News[0].APIKey)
	require.Len(t, cfg.Sources.Tools, 2)

	require.NoError(t, cfg.Validate())
}

func TestExplicitPathWins(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.yaml")
	flagPath := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(envPath, []byte("report:\n  dir: from-env\n"), 0o644))
	require.NoError(t, os.WriteFile(flagPath, []byte("report:\n  dir: from-flag\n"), 0o644))
	t.Setenv(configPathEnv, envPath)

	require.Equal(t, "from-flag", Load(flagPath).Report.Dir)
}

func TestDatabaseDSNSwitchesToPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv(databaseDSNEnv, "postgres://localhost/vaultx")

	cfg := Load("")
	require.Equal(t, DriverPostgres, cfg.Store.Driver)
	require.NoError(t, cfg.Validate())

	t.Setenv(supabaseURLEnv, "https://x.supabase.co")
	t.Setenv(supabaseKeyEnv, "service")
	cfg = Load("")
	require.Equal(t, DriverSupabase, cfg.Store.Driver)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	cfg.Store = StoreConfig{Driver: "mongo"}
	require.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg.Store = StoreConfig{Driver: DriverSQLite}
	require.ErrorIs(t, cfg.Validate(), ErrMissingStoreCredentials)

	cfg.Store.DSN = ":memory:"
	cfg.Pipeline.MaxToolsPerRun = 0
	require.ErrorContains(t, cfg.Validate(), "limits")
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "tz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scheduler:\n  timezone: Mars/Olympus\n"), 0o644))
	require.Equal(t, "UTC", Load(path).Scheduler.Location().String())
}

func TestSourceOption(t *testing.T) {
	s := SourceConfig{Options: map[string]string{"tag": "ai", "blank": " "}}
	require.Equal(t, "ai", s.Option("tag", "ml"))
	require.Equal(t, "ml", s.Option("blank", "ml"))
	require.Equal(t, "x", s.Option("missing", "x"))
}
