package trader

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fadai88/binance-momentum-bot/internal/exchange"
	"github.com/fadai88/binance-momentum-bot/internal/model"
	"github.com/fadai88/binance-momentum-bot/internal/rebalance"
	"github.com/fadai88/binance-momentum-bot/internal/strategy"
)

// Config carries every knob one rebalance cycle needs. It is passed by
// value: nothing in the engine mutates or retains it between cycles.
type Config struct {
	Lookback         int
	HoldingDays      int
	NumberOfTokens   int
	Threshold        float64
	NotionalPerToken float64
	RefSymbol        string
	QuoteAsset       string
	SettlementWait   time.Duration
}

// Engine runs full rebalance cycles: scan, select, reconcile, execute.
type Engine struct {
	gw       exchange.Gateway
	selector *strategy.Selector
	log      zerolog.Logger
}

// NewEngine builds an engine on top of the given gateway.
func NewEngine(gw exchange.Gateway, log zerolog.Logger) *Engine {
	return &Engine{
		gw:       gw,
		selector: strategy.NewSelector(gw, log),
		log:      log.With().Str("component", "engine").Logger(),
	}
}

// RunCycle executes one rebalance cycle and reports what happened. The
// returned report is populated as far as the cycle got, even on error.
func (e *Engine) RunCycle(ctx context.Context, cfg Config) (report model.CycleReport, err error) {
	report.StartedAt = time.Now()
	report.RefSymbol = cfg.RefSymbol
	report.QuoteAsset = cfg.QuoteAsset
	defer func() { report.FinishedAt = time.Now() }()

	universe, err := e.gw.FetchTradableUniverse(ctx)
	if err != nil {
		return fail(report, err)
	}
	e.log.Info().Int("universe", len(universe)).Msg("starting rebalance cycle")

	sel, err := e.selector.SelectUniverse(ctx, universe, strategy.Params{
		Lookback:       cfg.Lookback,
		HoldingDays:    cfg.HoldingDays,
		Threshold:      cfg.Threshold,
		NumberOfTokens: cfg.NumberOfTokens,
		RefSymbol:      cfg.RefSymbol,
	})
	if err != nil {
		return fail(report, err)
	}
	report.RefReturn = sel.RefReturn
	report.RegimePassed = sel.RegimePassed
	report.Scanned = sel.Scanned
	report.Skipped = sel.Skipped
	report.Selected = sel.Symbols

	holdings, err := e.gw.FetchHoldings(ctx)
	if err != nil {
		return fail(report, err)
	}

	if len(sel.Symbols) == 0 {
		// Closed regime or empty scan: keep whatever is held.
		report.Outcome = model.OutcomeHeld
		report.QuoteBalance = holdings[cfg.QuoteAsset]
		e.log.Info().Float64("quote_balance", report.QuoteBalance).Msg("cycle complete, holding positions")
		return report, nil
	}

	plan := rebalance.Reconcile(holdings, sel.Symbols, cfg.QuoteAsset)
	if plan.Empty() {
		report.Outcome = model.OutcomeHeld
		report.QuoteBalance = holdings[cfg.QuoteAsset]
		e.log.Info().Strs("selected", sel.Symbols).Msg("portfolio already aligned, nothing to trade")
		return report, nil
	}
	e.log.Info().
		Int("to_sell", len(plan.ToSell)).
		Int("to_buy", len(plan.ToBuy)).
		Msg("rebalancing portfolio")

	executor := rebalance.NewExecutor(e.gw, rebalance.Options{
		QuoteAsset:       cfg.QuoteAsset,
		NotionalPerToken: cfg.NotionalPerToken,
		SettlementWait:   cfg.SettlementWait,
	}, e.log)
	result, err := executor.Run(ctx, plan)
	report.Sold = result.Sold
	report.Bought = result.Bought
	report.QuoteBalance = result.Balance
	if err != nil {
		return fail(report, err)
	}

	report.Outcome = model.OutcomeRebalanced
	e.log.Info().
		Int("sold", len(report.Sold)).
		Int("bought", len(report.Bought)).
		Float64("quote_balance", report.QuoteBalance).
		Msg("cycle complete")
	return report, nil
}

func fail(report model.CycleReport, err error) (model.CycleReport, error) {
	report.Outcome = model.OutcomeFailed
	report.Err = err.Error()
	return report, err
}
