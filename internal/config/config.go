package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Binance struct {
		APIKey         string  `yaml:"api_key"`
		APISecret      string  `yaml:"api_secret"`
		BaseURL        string  `yaml:"base_url"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"binance"`
	Strategy struct {
		Lookback    int `yaml:"lookback"`
		HoldingDays int `yaml:"holding_days"`
		// Threshold and Commission are pointers because an explicit 0 is a
		// valid setting; nil means the key was absent and Load defaults it.
		Threshold        *float64 `yaml:"threshold"`
		NumberOfTokens   int      `yaml:"number_of_tokens"`
		Commission       *float64 `yaml:"commission"`
		NotionalPerToken float64  `yaml:"notional_per_token"`
		RefSymbol        string   `yaml:"ref_symbol"`
		QuoteAsset       string   `yaml:"quote_asset"`
	} `yaml:"strategy"`
	Executor struct {
		SettlementWait  string `yaml:"settlement_wait"`
		FailureCooldown string `yaml:"failure_cooldown"`
		DryRun          bool   `yaml:"dry_run"`
	} `yaml:"executor"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Schedule struct {
		StatusCron string `yaml:"status_cron"`
	} `yaml:"schedule"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Binance.APISecret = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Binance.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Binance.BaseURL == "" {
		cfg.Binance.BaseURL = "https://api.binance.com"
	}
	if cfg.Binance.RequestsPerSec == 0 {
		cfg.Binance.RequestsPerSec = 4
	}
	if cfg.Strategy.Lookback == 0 {
		cfg.Strategy.Lookback = 30
	}
	if cfg.Strategy.HoldingDays == 0 {
		cfg.Strategy.HoldingDays = 7
	}
	if cfg.Strategy.Threshold == nil {
		v := 0.05
		cfg.Strategy.Threshold = &v
	}
	if cfg.Strategy.NumberOfTokens == 0 {
		cfg.Strategy.NumberOfTokens = 10
	}
	if cfg.Strategy.Commission == nil {
		v := 0.001
		cfg.Strategy.Commission = &v
	}
	if cfg.Strategy.NotionalPerToken == 0 {
		cfg.Strategy.NotionalPerToken = 100
	}
	if cfg.Strategy.RefSymbol == "" {
		cfg.Strategy.RefSymbol = "BTCUSDT"
	}
	if cfg.Strategy.QuoteAsset == "" {
		cfg.Strategy.QuoteAsset = "USDT"
	}
	if cfg.Executor.SettlementWait == "" {
		cfg.Executor.SettlementWait = "2s"
	}
	if cfg.Executor.FailureCooldown == "" {
		cfg.Executor.FailureCooldown = "15m"
	}
	if cfg.Schedule.StatusCron == "" {
		cfg.Schedule.StatusCron = "0 0 8 * * *"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	if c.Binance.APIKey == "" {
		return fmt.Errorf("binance.api_key is required")
	}
	if c.Binance.APISecret == "" {
		return fmt.Errorf("binance.api_secret is required")
	}
	if c.Binance.RequestsPerSec <= 0 {
		return fmt.Errorf("binance.requests_per_sec must be positive")
	}
	if c.Strategy.Lookback < 2 {
		return fmt.Errorf("strategy.lookback must be at least 2")
	}
	if c.Strategy.HoldingDays < 1 {
		return fmt.Errorf("strategy.holding_days must be at least 1")
	}
	if c.Strategy.NumberOfTokens < 1 {
		return fmt.Errorf("strategy.number_of_tokens must be at least 1")
	}
	if c.Strategy.Commission == nil || *c.Strategy.Commission < 0 {
		return fmt.Errorf("strategy.commission must not be negative")
	}
	if c.Strategy.NotionalPerToken <= 0 {
		return fmt.Errorf("strategy.notional_per_token must be positive")
	}
	if c.Strategy.Threshold == nil || *c.Strategy.Threshold <= -1 {
		return fmt.Errorf("strategy.threshold must be greater than -1")
	}
	if _, err := time.ParseDuration(c.Executor.SettlementWait); err != nil {
		return fmt.Errorf("executor.settlement_wait: %w", err)
	}
	if _, err := time.ParseDuration(c.Executor.FailureCooldown); err != nil {
		return fmt.Errorf("executor.failure_cooldown: %w", err)
	}
	return nil
}
