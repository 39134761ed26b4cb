package model

// Side indicates the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Holdings maps base asset codes (e.g. "BTC") to free balances.
type Holdings map[string]float64

// SymbolConstraints carries the exchange trading rules for one pair.
type SymbolConstraints struct {
	Symbol            string
	QuantityPrecision int
	// MinNotional is the smallest allowed order value in the quote
	// currency. Zero means the exchange reported no minimum.
	MinNotional float64
}

// Fill describes one executed market order. Status carries the venue's
// terminal order state ("FILLED", or "SIMULATED" for dry-run fills).
type Fill struct {
	Symbol      string
	Side        Side
	Quantity    float64
	QuoteAmount float64
	Status      string
}
