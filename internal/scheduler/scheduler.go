package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/fadai88/binance-momentum-bot/internal/exchange"
	"github.com/fadai88/binance-momentum-bot/internal/metrics"
	"github.com/fadai88/binance-momentum-bot/internal/model"
	"github.com/fadai88/binance-momentum-bot/internal/notifier"
	"github.com/fadai88/binance-momentum-bot/internal/recorder"
	"github.com/fadai88/binance-momentum-bot/internal/trader"
)

// Options configures the supervisor loop.
type Options struct {
	Cycle           trader.Config
	FailureCooldown time.Duration
}

// Supervisor drives the periodic rebalance loop and auxiliary cron tasks.
type Supervisor struct {
	engine   *trader.Engine
	gateway  exchange.Gateway
	notifier *notifier.TelegramNotifier
	recorder recorder.Recorder
	opts     Options
	cron     *cron.Cron
	trigger  chan struct{}
	ctx      context.Context
	log      zerolog.Logger

	mu   sync.Mutex
	last *model.CycleReport
}

// New creates a Supervisor wired to the trading engine and side services.
func New(ctx context.Context, engine *trader.Engine, gw exchange.Gateway, tn *notifier.TelegramNotifier, rec recorder.Recorder, opts Options, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		engine:   engine,
		gateway:  gw,
		notifier: tn,
		recorder: rec,
		opts:     opts,
		cron:     cron.New(cron.WithSeconds()),
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		log:      log.With().Str("component", "supervisor").Logger(),
	}
}

// RegisterStatusTask schedules a periodic holdings report. An empty spec disables it.
func (s *Supervisor) RegisterStatusTask(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.statusTask); err != nil {
		return fmt.Errorf("register status task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Supervisor) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Supervisor) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// Run executes rebalance cycles until the supervisor context is cancelled.
// After each cycle it sleeps for the holding period, or for the failure
// cooldown when the cycle did not complete. A manual trigger cuts the sleep
// short.
func (s *Supervisor) Run() {
	for {
		report := s.runCycle()
		if s.ctx.Err() != nil {
			return
		}

		delay := s.nextDelay(report)
		s.log.Info().Str("outcome", string(report.Outcome)).Dur("sleep", delay).Msg("cycle finished")
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		case <-s.trigger:
			s.log.Info().Msg("manual cycle triggered")
		}
	}
}

// TriggerCycle requests an immediate cycle. Returns false when one is already queued.
func (s *Supervisor) TriggerCycle() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (s *Supervisor) LastReport() *model.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Supervisor) runCycle() model.CycleReport {
	report, err := s.engine.RunCycle(s.ctx, s.opts.Cycle)
	if err != nil {
		s.log.Error().Err(err).Msg("cycle failed")
	}

	metrics.CycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	metrics.CyclesTotal.WithLabelValues(strings.ToLower(string(report.Outcome))).Inc()
	if report.Outcome != model.OutcomeFailed {
		metrics.QuoteBalance.Set(report.QuoteBalance)
		metrics.SelectedTokens.Set(float64(len(report.Selected)))
	}

	s.record(report)
	s.trySend(notifier.FormatCycleReport(report))

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

func (s *Supervisor) nextDelay(report model.CycleReport) time.Duration {
	if report.Outcome == model.OutcomeFailed {
		return s.opts.FailureCooldown
	}
	return time.Duration(s.opts.Cycle.HoldingDays) * 24 * time.Hour
}

func (s *Supervisor) record(report model.CycleReport) {
	if err := s.recorder.RecordCycle(&recorder.CycleRecord{Report: report}); err != nil {
		s.log.Error().Err(err).Msg("record cycle")
	}
	fills := make([]model.Fill, 0, len(report.Sold)+len(report.Bought))
	fills = append(fills, report.Sold...)
	fills = append(fills, report.Bought...)
	for _, fill := range fills {
		if err := s.recorder.RecordTrade(&recorder.TradeRecord{
			Symbol:      fill.Symbol,
			Side:        string(fill.Side),
			Quantity:    fill.Quantity,
			QuoteAmount: fill.QuoteAmount,
			Status:      fill.Status,
		}); err != nil {
			s.log.Error().Err(err).Msg("record trade")
		}
	}
}

func (s *Supervisor) statusTask() {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Minute)
	defer cancel()

	holdings, err := s.gateway.FetchHoldings(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("status task: fetch holdings")
		s.trySend(fmt.Sprintf("❌ Holdings check failed: %v", err))
		return
	}
	s.trySend(notifier.FormatHoldings(holdings, s.opts.Cycle.QuoteAsset))
}

// HandleCommand processes a user command and returns a reply.
func (s *Supervisor) HandleCommand(command string) string {
	switch command {
	case "/cycle":
		if s.TriggerCycle() {
			return "Rebalance cycle queued."
		}
		return "A cycle is already queued."
	case "/status":
		s.statusTask()
		return ""
	case "/last":
		last := s.LastReport()
		if last == nil {
			return "No cycle has run yet."
		}
		return notifier.FormatCycleReport(*last)
	default:
		return "Available commands:\n• /cycle\n• /status\n• /last"
	}
}

func (s *Supervisor) trySend(text string) {
	if s.notifier == nil || text == "" {
		return
	}
	if err := s.notifier.SendWithRetry(s.ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
