package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fadai88/binance-momentum-bot/internal/config"
	"github.com/fadai88/binance-momentum-bot/internal/exchange"
	"github.com/fadai88/binance-momentum-bot/internal/logging"
	"github.com/fadai88/binance-momentum-bot/internal/metrics"
	"github.com/fadai88/binance-momentum-bot/internal/notifier"
	"github.com/fadai88/binance-momentum-bot/internal/recorder"
	"github.com/fadai88/binance-momentum-bot/internal/scheduler"
	"github.com/fadai88/binance-momentum-bot/internal/trader"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(logging.Config{Level: "info"})

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	log = logging.New(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	log.Info().Msg("momentum bot starting")

	settlementWait, err := time.ParseDuration(cfg.Executor.SettlementWait)
	if err != nil {
		log.Fatal().Err(err).Msg("parse executor.settlement_wait")
	}
	failureCooldown, err := time.ParseDuration(cfg.Executor.FailureCooldown)
	if err != nil {
		log.Fatal().Err(err).Msg("parse executor.failure_cooldown")
	}

	// Init exchange gateway
	var gw exchange.Gateway = exchange.NewBinance(exchange.Options{
		BaseURL:        cfg.Binance.BaseURL,
		APIKey:         cfg.Binance.APIKey,
		APISecret:      cfg.Binance.APISecret,
		QuoteAsset:     cfg.Strategy.QuoteAsset,
		ProxyURL:       cfg.Proxy,
		RequestsPerSec: cfg.Binance.RequestsPerSec,
	}, log)
	if cfg.Executor.DryRun {
		log.Warn().Msg("dry-run mode enabled, orders will be simulated")
		gw = exchange.NewDryRun(gw, log)
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	} else {
		log.Warn().Msg("telegram not configured, notifications disabled")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Metrics listener
	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr)
		defer srv.Close()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener started")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := trader.NewEngine(gw, log)
	sup := scheduler.New(ctx, engine, gw, tn, rec, scheduler.Options{
		Cycle: trader.Config{
			Lookback:         cfg.Strategy.Lookback,
			HoldingDays:      cfg.Strategy.HoldingDays,
			NumberOfTokens:   cfg.Strategy.NumberOfTokens,
			Threshold:        *cfg.Strategy.Threshold,
			NotionalPerToken: cfg.Strategy.NotionalPerToken,
			RefSymbol:        cfg.Strategy.RefSymbol,
			QuoteAsset:       cfg.Strategy.QuoteAsset,
			SettlementWait:   settlementWait,
		},
		FailureCooldown: failureCooldown,
	}, log)

	if err := sup.RegisterStatusTask(cfg.Schedule.StatusCron); err != nil {
		log.Fatal().Err(err).Msg("register status task")
	}
	sup.Start()
	defer sup.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sup.HandleCommand)
	}

	log.Info().
		Int("lookback", cfg.Strategy.Lookback).
		Int("holding_days", cfg.Strategy.HoldingDays).
		Int("tokens", cfg.Strategy.NumberOfTokens).
		Float64("threshold", *cfg.Strategy.Threshold).
		Float64("notional_per_token", cfg.Strategy.NotionalPerToken).
		Float64("commission", *cfg.Strategy.Commission).
		Str("ref_symbol", cfg.Strategy.RefSymbol).
		Str("quote_asset", cfg.Strategy.QuoteAsset).
		Msg("strategy parameters")

	sup.Run()
	log.Info().Msg("momentum bot stopped")
}
