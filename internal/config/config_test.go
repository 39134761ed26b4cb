package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Binance.APIKey = "key"
	cfg.Binance.APISecret = "secret"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BINANCE_BASE_URL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.binance.com", cfg.Binance.BaseURL)
	assert.InDelta(t, 4, cfg.Binance.RequestsPerSec, 1e-9)
	assert.Equal(t, 30, cfg.Strategy.Lookback)
	assert.Equal(t, 7, cfg.Strategy.HoldingDays)
	assert.InDelta(t, 0.05, *cfg.Strategy.Threshold, 1e-9)
	assert.Equal(t, 10, cfg.Strategy.NumberOfTokens)
	assert.InDelta(t, 0.001, *cfg.Strategy.Commission, 1e-9)
	assert.InDelta(t, 100, cfg.Strategy.NotionalPerToken, 1e-9)
	assert.Equal(t, "BTCUSDT", cfg.Strategy.RefSymbol)
	assert.Equal(t, "USDT", cfg.Strategy.QuoteAsset)
	assert.Equal(t, "2s", cfg.Executor.SettlementWait)
	assert.Equal(t, "15m", cfg.Executor.FailureCooldown)
	assert.False(t, cfg.Executor.DryRun)
	assert.Equal(t, "0 0 8 * * *", cfg.Schedule.StatusCron)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
binance:
  api_key: file-key
  api_secret: file-secret
  requests_per_sec: 2
strategy:
  lookback: 10
  threshold: 0.02
  number_of_tokens: 3
  ref_symbol: ETHUSDT
executor:
  settlement_wait: 5s
  dry_run: true
telegram:
  bot_token: tok
  chat_id: "12345"
database:
  sqlite_path: data/bot.db
metrics:
  addr: ":9100"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Binance.APIKey)
	assert.InDelta(t, 2, cfg.Binance.RequestsPerSec, 1e-9)
	assert.Equal(t, 10, cfg.Strategy.Lookback)
	assert.InDelta(t, 0.02, *cfg.Strategy.Threshold, 1e-9)
	assert.Equal(t, 3, cfg.Strategy.NumberOfTokens)
	assert.Equal(t, "ETHUSDT", cfg.Strategy.RefSymbol)
	assert.Equal(t, "5s", cfg.Executor.SettlementWait)
	assert.True(t, cfg.Executor.DryRun)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.Equal(t, "data/bot.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	// Untouched sections still get defaults.
	assert.Equal(t, 7, cfg.Strategy.HoldingDays)
	assert.Equal(t, "15m", cfg.Executor.FailureCooldown)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "strategy:\n  threshold: 0.0\n  commission: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// A configured zero is a real setting, not a request for the default.
	require.NotNil(t, cfg.Strategy.Threshold)
	assert.Zero(t, *cfg.Strategy.Threshold)
	require.NotNil(t, cfg.Strategy.Commission)
	assert.Zero(t, *cfg.Strategy.Commission)

	cfg.Binance.APIKey = "key"
	cfg.Binance.APISecret = "secret"
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("binance:\n  api_key: file-key\n"), 0o644))

	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("SQLITE_PATH", "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Binance.APIKey)
	assert.Equal(t, "env.db", cfg.Database.SQLitePath)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api key", func(c *Config) { c.Binance.APIKey = "" }, "api_key"},
		{"missing api secret", func(c *Config) { c.Binance.APISecret = "" }, "api_secret"},
		{"zero rate", func(c *Config) { c.Binance.RequestsPerSec = 0 }, "requests_per_sec"},
		{"lookback too small", func(c *Config) { c.Strategy.Lookback = 1 }, "lookback"},
		{"zero holding days", func(c *Config) { c.Strategy.HoldingDays = 0 }, "holding_days"},
		{"zero tokens", func(c *Config) { c.Strategy.NumberOfTokens = 0 }, "number_of_tokens"},
		{"negative commission", func(c *Config) { *c.Strategy.Commission = -0.01 }, "commission"},
		{"zero notional", func(c *Config) { c.Strategy.NotionalPerToken = 0 }, "notional_per_token"},
		{"threshold below -1", func(c *Config) { *c.Strategy.Threshold = -1.5 }, "threshold"},
		{"bad settlement wait", func(c *Config) { c.Executor.SettlementWait = "soon" }, "settlement_wait"},
		{"bad cooldown", func(c *Config) { c.Executor.FailureCooldown = "later" }, "failure_cooldown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
