package exchange

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// DryRun wraps a live gateway: reads pass through, orders are simulated at
// the current ticker price instead of being sent to the venue.
type DryRun struct {
	Gateway
	log zerolog.Logger

	mu    sync.Mutex
	fills []model.Fill
}

// NewDryRun creates a paper-trading wrapper around gw.
func NewDryRun(gw Gateway, log zerolog.Logger) *DryRun {
	return &DryRun{
		Gateway: gw,
		log:     log.With().Str("component", "dryrun").Logger(),
	}
}

func (d *DryRun) SubmitMarketOrder(ctx context.Context, symbol string, side model.Side, quantity float64) (model.Fill, error) {
	price, err := d.Gateway.FetchPrice(ctx, symbol)
	if err != nil {
		return model.Fill{}, err
	}
	fill := model.Fill{
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		QuoteAmount: quantity * price,
		Status:      "SIMULATED",
	}
	d.mu.Lock()
	d.fills = append(d.fills, fill)
	d.mu.Unlock()
	d.log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("qty", quantity).
		Float64("quote", fill.QuoteAmount).
		Msg("dry-run fill")
	return fill, nil
}

// Fills returns the simulated fills so far.
func (d *DryRun) Fills() []model.Fill {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Fill(nil), d.fills...)
}
