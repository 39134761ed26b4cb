package rebalance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fadai88/binance-momentum-bot/internal/exchange"
	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// State identifies the executor's position in the sell-then-buy sequence.
type State string

const (
	StateIdle           State = "IDLE"
	StateLiquidating    State = "LIQUIDATING"
	StateSettlementWait State = "SETTLEMENT_WAIT"
	StateAcquiring      State = "ACQUIRING"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Options configures one executor run.
type Options struct {
	QuoteAsset       string
	NotionalPerToken float64
	SettlementWait   time.Duration
}

// Result reports what an executor run actually did.
type Result struct {
	Sold   []model.Fill
	Bought []model.Fill
	// Balance is the local running quote balance after all acquisitions.
	Balance float64
}

// Executor walks a rebalance plan through the gateway: all liquidations
// first, a settlement pause, one balance refresh, then the acquisitions.
// A failed order or an unlisted pair skips that symbol and the run
// continues; a trading-rules outage or a failed balance refresh aborts
// the run. Construct a fresh Executor per cycle.
type Executor struct {
	gw   exchange.Gateway
	opts Options
	log  zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewExecutor builds an executor for one cycle.
func NewExecutor(gw exchange.Gateway, opts Options, log zerolog.Logger) *Executor {
	return &Executor{
		gw:    gw,
		opts:  opts,
		log:   log.With().Str("component", "executor").Logger(),
		state: StateIdle,
	}
}

// State returns the executor's current phase.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run executes the plan and returns the fills. The returned Result is valid
// even when err is non-nil: it covers everything executed before the abort.
func (e *Executor) Run(ctx context.Context, plan Plan) (Result, error) {
	var res Result

	e.setState(StateLiquidating)
	for _, liq := range plan.ToSell {
		if err := ctx.Err(); err != nil {
			e.setState(StateFailed)
			return res, err
		}
		symbol := liq.Asset + e.opts.QuoteAsset
		constraints, err := e.gw.FetchSymbolConstraints(ctx, symbol)
		if err != nil {
			if !errors.Is(err, exchange.ErrUnknownSymbol) {
				e.setState(StateFailed)
				return res, fmt.Errorf("trading rules for %s: %w", symbol, err)
			}
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("pair not listed, keeping position")
			continue
		}
		qty := SizeLiquidation(liq.Quantity, constraints)
		if qty <= 0 {
			e.log.Debug().Str("asset", liq.Asset).Float64("free", liq.Quantity).Msg("dust position, skipping")
			continue
		}
		fill, err := e.gw.SubmitMarketOrder(ctx, symbol, model.SideSell, qty)
		if err != nil {
			e.log.Error().Err(err).Str("symbol", symbol).Msg("liquidation failed, keeping position")
			continue
		}
		e.log.Info().Str("symbol", symbol).Float64("qty", fill.Quantity).Float64("proceeds", fill.QuoteAmount).Msg("position liquidated")
		res.Sold = append(res.Sold, fill)
	}

	e.setState(StateSettlementWait)
	if len(res.Sold) > 0 {
		// Sell proceeds are not reflected in the account instantly.
		select {
		case <-ctx.Done():
			e.setState(StateFailed)
			return res, ctx.Err()
		case <-time.After(e.opts.SettlementWait):
		}
	}

	e.setState(StateAcquiring)
	holdings, err := e.gw.FetchHoldings(ctx)
	if err != nil {
		e.setState(StateFailed)
		return res, fmt.Errorf("refresh %s balance: %w", e.opts.QuoteAsset, err)
	}
	balance := holdings[e.opts.QuoteAsset]
	e.log.Info().Float64("balance", balance).Int("to_buy", len(plan.ToBuy)).Msg("acquiring positions")

	for _, symbol := range plan.ToBuy {
		if err := ctx.Err(); err != nil {
			e.setState(StateFailed)
			res.Balance = balance
			return res, err
		}
		if balance < e.opts.NotionalPerToken {
			e.log.Warn().
				Str("symbol", symbol).
				Float64("balance", balance).
				Float64("notional", e.opts.NotionalPerToken).
				Msg("quote balance exhausted, skipping remaining buys")
			break
		}
		price, err := e.gw.FetchPrice(ctx, symbol)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("no price, skipping buy")
			continue
		}
		constraints, err := e.gw.FetchSymbolConstraints(ctx, symbol)
		if err != nil {
			if !errors.Is(err, exchange.ErrUnknownSymbol) {
				e.setState(StateFailed)
				res.Balance = balance
				return res, fmt.Errorf("trading rules for %s: %w", symbol, err)
			}
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("pair not listed, skipping buy")
			continue
		}
		qty, err := SizeBuy(e.opts.NotionalPerToken, balance, price, constraints)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("order not sizable, skipping buy")
			continue
		}
		fill, err := e.gw.SubmitMarketOrder(ctx, symbol, model.SideBuy, qty)
		if err != nil {
			e.log.Error().Err(err).Str("symbol", symbol).Msg("buy failed, skipping")
			continue
		}
		e.log.Info().Str("symbol", symbol).Float64("qty", fill.Quantity).Float64("cost", fill.QuoteAmount).Msg("position acquired")
		res.Bought = append(res.Bought, fill)
		// Local bookkeeping between buys; the venue is only re-read once
		// per cycle, after settlement.
		balance -= e.opts.NotionalPerToken
	}

	res.Balance = balance
	e.setState(StateDone)
	return res, nil
}
