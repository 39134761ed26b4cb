package rebalance

import (
	"errors"
	"fmt"
	"math"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

var (
	// ErrBelowMinNotional indicates a sized order is worth less than the
	// exchange minimum for its pair.
	ErrBelowMinNotional = errors.New("order below minimum notional")
	// ErrInsufficientFunds indicates the quote balance cannot cover the
	// target notional.
	ErrInsufficientFunds = errors.New("insufficient quote balance")
)

// TruncateQuantity rounds qty down to the given number of decimal places.
// The result never exceeds the input, so a truncated quantity always
// respects the exchange lot step.
func TruncateQuantity(qty float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	scale := math.Pow10(precision)
	// The nudge counters binary drift like 4.6*10 = 45.999999999999993,
	// which would otherwise floor a representable value down a whole step.
	return math.Floor(qty*scale+1e-9) / scale
}

// SizeBuy converts a target quote notional into an order quantity that
// satisfies the pair's lot precision and minimum notional.
func SizeBuy(targetNotional, available, price float64, c model.SymbolConstraints) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("invalid price %v for %s", price, c.Symbol)
	}
	if available < targetNotional {
		return 0, fmt.Errorf("%w: have %.2f, need %.2f", ErrInsufficientFunds, available, targetNotional)
	}
	qty := TruncateQuantity(targetNotional/price, c.QuantityPrecision)
	if qty <= 0 {
		return 0, fmt.Errorf("%w: %s quantity truncates to zero", ErrBelowMinNotional, c.Symbol)
	}
	if c.MinNotional > 0 && qty*price < c.MinNotional {
		return 0, fmt.Errorf("%w: %s %.8f x %.8f < %.2f", ErrBelowMinNotional, c.Symbol, qty, price, c.MinNotional)
	}
	return qty, nil
}

// SizeLiquidation truncates a free balance for a market sell. A quantity
// that truncates to zero is dust and stays in the account.
func SizeLiquidation(freeQty float64, c model.SymbolConstraints) float64 {
	return TruncateQuantity(freeQty, c.QuantityPrecision)
}
