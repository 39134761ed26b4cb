package calculator

import (
	"fmt"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// ComputeSignal derives the momentum and discreteness metrics for one series.
func ComputeSignal(series model.PriceSeries, lookback int) (model.Signal, error) {
	closes := series.Closes()
	momentum, err := MomentumReturn(closes, lookback)
	if err != nil {
		return model.Signal{}, fmt.Errorf("momentum %s: %w", series.Symbol, err)
	}
	disc, err := Discreteness(closes)
	if err != nil {
		return model.Signal{}, fmt.Errorf("discreteness %s: %w", series.Symbol, err)
	}
	return model.Signal{MomentumReturn: momentum, Discreteness: disc}, nil
}
