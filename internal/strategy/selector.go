package strategy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fadai88/binance-momentum-bot/internal/calculator"
	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// SeriesProvider supplies daily close history for a symbol.
type SeriesProvider interface {
	FetchPriceSeries(ctx context.Context, symbol string, days int) (model.PriceSeries, error)
}

// Params carries the knobs for one universe scan.
type Params struct {
	Lookback       int
	HoldingDays    int
	Threshold      float64
	NumberOfTokens int
	RefSymbol      string
}

// Window returns how many daily bars a scan requests per symbol.
func (p Params) Window() int {
	return p.Lookback + p.HoldingDays + 1
}

// Selector picks the tokens to hold for the next period.
type Selector struct {
	provider SeriesProvider
	log      zerolog.Logger
}

// NewSelector builds a Selector on top of the given series provider.
func NewSelector(provider SeriesProvider, log zerolog.Logger) *Selector {
	return &Selector{
		provider: provider,
		log:      log.With().Str("component", "selector").Logger(),
	}
}

// Selection is the outcome of one universe scan. An empty Symbols slice
// means hold current positions.
type Selection struct {
	RefReturn    float64
	RegimePassed bool
	Symbols      []string
	Scanned      int
	Skipped      int
}

// SelectUniverse checks the reference symbol's regime and, if it passes,
// scans the universe, ranks every symbol on momentum and discreteness and
// returns the top picks. The reference symbol only gates the regime: it is
// skipped during the scan and can never be selected. Symbols whose data
// cannot be fetched or scored are skipped; the cycle only fails on reference
// data problems or a broken ranking invariant.
func (s *Selector) SelectUniverse(ctx context.Context, universe []string, p Params) (Selection, error) {
	refSeries, err := s.provider.FetchPriceSeries(ctx, p.RefSymbol, p.Window())
	if err != nil {
		return Selection{}, fmt.Errorf("fetch reference series %s: %w", p.RefSymbol, err)
	}
	refReturn, err := calculator.MomentumReturn(refSeries.Closes(), p.Lookback)
	if err != nil {
		return Selection{}, fmt.Errorf("reference return %s: %w", p.RefSymbol, err)
	}
	sel := Selection{RefReturn: refReturn}
	if refReturn <= p.Threshold {
		s.log.Info().
			Float64("ref_return", refReturn).
			Float64("threshold", p.Threshold).
			Msg("regime filter failed, holding current positions")
		return sel, nil
	}
	sel.RegimePassed = true

	signals := make([]model.SymbolSignal, 0, len(universe))
	for _, symbol := range universe {
		if symbol == p.RefSymbol {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		series, err := s.provider.FetchPriceSeries(ctx, symbol, p.Window())
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("price series unavailable, skipping")
			sel.Skipped++
			continue
		}
		sig, err := calculator.ComputeSignal(series, p.Lookback)
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("signal not computable, skipping")
			sel.Skipped++
			continue
		}
		signals = append(signals, model.SymbolSignal{Symbol: symbol, Signal: sig})
	}
	sel.Scanned = len(signals)
	if len(signals) == 0 {
		s.log.Warn().Int("skipped", sel.Skipped).Msg("no symbol produced a signal, holding")
		return sel, nil
	}

	combined, err := CombineRanks(signals)
	if err != nil {
		return Selection{}, err
	}
	sel.Symbols = SelectTop(signals, combined, p.NumberOfTokens)
	s.log.Info().
		Float64("ref_return", refReturn).
		Int("scanned", sel.Scanned).
		Int("skipped", sel.Skipped).
		Strs("selected", sel.Symbols).
		Msg("universe scan complete")
	return sel, nil
}
