package recorder

import "github.com/fadai88/binance-momentum-bot/internal/model"

// CycleRecord holds all data for one rebalance cycle row.
type CycleRecord struct {
	Report model.CycleReport
}

// TradeRecord holds one executed order row.
type TradeRecord struct {
	Symbol      string
	Side        string
	Quantity    float64
	QuoteAmount float64
	Status      string
}

// Recorder persists cycle history for analysis.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordTrade(rec *TradeRecord) error
	Close() error
}
