package rebalance

import (
	"sort"
	"strings"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// Liquidation is one holding scheduled for a market sell.
type Liquidation struct {
	Asset    string
	Quantity float64
}

// Plan lists what to liquidate and what to acquire for one cycle.
type Plan struct {
	ToSell []Liquidation
	ToBuy  []string
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.ToSell) == 0 && len(p.ToBuy) == 0
}

// Reconcile diffs current holdings against the selected symbols. Held assets
// outside the selection are scheduled for liquidation, selected symbols not
// already held are scheduled for acquisition, and positions that stay
// selected are left untouched. The quote asset is never sold. Output order
// is deterministic: liquidations alphabetical, acquisitions in selection
// order.
func Reconcile(holdings model.Holdings, selected []string, quoteAsset string) Plan {
	keep := make(map[string]struct{}, len(selected))
	for _, symbol := range selected {
		keep[symbol] = struct{}{}
	}

	assets := make([]string, 0, len(holdings))
	for asset := range holdings {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var plan Plan
	for _, asset := range assets {
		qty := holdings[asset]
		if qty <= 0 || asset == quoteAsset {
			continue
		}
		if _, ok := keep[asset+quoteAsset]; ok {
			continue
		}
		plan.ToSell = append(plan.ToSell, Liquidation{Asset: asset, Quantity: qty})
	}
	for _, symbol := range selected {
		base := strings.TrimSuffix(symbol, quoteAsset)
		if holdings[base] > 0 {
			continue
		}
		plan.ToBuy = append(plan.ToBuy, symbol)
	}
	return plan
}
