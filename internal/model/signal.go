package model

// Signal holds the computed metrics for one symbol in a scan.
type Signal struct {
	MomentumReturn float64
	Discreteness   float64
}

// SymbolSignal pairs a symbol with its signal, preserving scan order.
type SymbolSignal struct {
	Symbol string
	Signal Signal
}
