package exchange

import (
	"context"
	"errors"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

var (
	// ErrDataUnavailable indicates the venue could not supply requested data.
	ErrDataUnavailable = errors.New("exchange data unavailable")
	// ErrUnknownSymbol indicates the venue answered but does not list the
	// requested pair. Callers treat it as a per-symbol condition, unlike
	// ErrDataUnavailable which covers an unreachable or failing endpoint.
	ErrUnknownSymbol = errors.New("symbol not listed on exchange")
	// ErrOrderRejected indicates the venue refused an order.
	ErrOrderRejected = errors.New("order rejected by exchange")
)

// Gateway is the venue surface the trading core runs against.
type Gateway interface {
	// FetchPriceSeries returns up to days daily bars for symbol, oldest first.
	FetchPriceSeries(ctx context.Context, symbol string, days int) (model.PriceSeries, error)
	// FetchTradableUniverse lists the spot pairs currently tradable against
	// the configured quote asset.
	FetchTradableUniverse(ctx context.Context) ([]string, error)
	// FetchHoldings returns the account's free balances per asset.
	FetchHoldings(ctx context.Context) (model.Holdings, error)
	// FetchSymbolConstraints returns the trading rules for one pair.
	FetchSymbolConstraints(ctx context.Context, symbol string) (model.SymbolConstraints, error)
	// FetchPrice returns the latest trade price for symbol.
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	// SubmitMarketOrder places a market order and reports the fill.
	SubmitMarketOrder(ctx context.Context, symbol string, side model.Side, quantity float64) (model.Fill, error)
}
