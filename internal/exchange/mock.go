package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// Mock implements Gateway with scripted data for development and testing.
// Zero-value maps mean "no data": reads fail with ErrDataUnavailable unless
// the relevant field is populated.
type Mock struct {
	mu sync.Mutex

	Series      map[string]model.PriceSeries
	SeriesErr   map[string]error
	Universe    []string
	UniverseErr error
	// HoldingsSeq is consumed one snapshot per FetchHoldings call; the last
	// snapshot repeats once the queue drains.
	HoldingsSeq    []model.Holdings
	HoldingsErr    error
	Constraints    map[string]model.SymbolConstraints
	ConstraintsErr map[string]error
	Prices         map[string]float64
	PriceErr       map[string]error
	OrderErr       map[string]error

	// Orders journals every accepted market order. Calls journals all
	// gateway calls in invocation order.
	Orders []model.Fill
	Calls  []string

	holdingsIdx int
}

func (m *Mock) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *Mock) FetchPriceSeries(_ context.Context, symbol string, days int) (model.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("series:" + symbol)
	if err := m.SeriesErr[symbol]; err != nil {
		return model.PriceSeries{}, err
	}
	series, ok := m.Series[symbol]
	if !ok {
		return model.PriceSeries{}, fmt.Errorf("%w: no scripted series for %s", ErrDataUnavailable, symbol)
	}
	if days < len(series.Candles) {
		series.Candles = series.Candles[len(series.Candles)-days:]
	}
	return series, nil
}

func (m *Mock) FetchTradableUniverse(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("universe")
	if m.UniverseErr != nil {
		return nil, m.UniverseErr
	}
	return append([]string(nil), m.Universe...), nil
}

func (m *Mock) FetchHoldings(_ context.Context) (model.Holdings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("holdings")
	if m.HoldingsErr != nil {
		return nil, m.HoldingsErr
	}
	if len(m.HoldingsSeq) == 0 {
		return model.Holdings{}, nil
	}
	idx := m.holdingsIdx
	if idx >= len(m.HoldingsSeq) {
		idx = len(m.HoldingsSeq) - 1
	}
	m.holdingsIdx++
	snapshot := make(model.Holdings, len(m.HoldingsSeq[idx]))
	for asset, qty := range m.HoldingsSeq[idx] {
		snapshot[asset] = qty
	}
	return snapshot, nil
}

func (m *Mock) FetchSymbolConstraints(_ context.Context, symbol string) (model.SymbolConstraints, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("constraints:" + symbol)
	if err := m.ConstraintsErr[symbol]; err != nil {
		return model.SymbolConstraints{}, err
	}
	if c, ok := m.Constraints[symbol]; ok {
		return c, nil
	}
	return model.SymbolConstraints{Symbol: symbol, QuantityPrecision: 8}, nil
}

func (m *Mock) FetchPrice(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("price:" + symbol)
	if err := m.PriceErr[symbol]; err != nil {
		return 0, err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no scripted price for %s", ErrDataUnavailable, symbol)
	}
	return price, nil
}

func (m *Mock) SubmitMarketOrder(_ context.Context, symbol string, side model.Side, quantity float64) (model.Fill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("order:%s:%s", side, symbol))
	if err := m.OrderErr[symbol]; err != nil {
		return model.Fill{}, err
	}
	fill := model.Fill{
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		QuoteAmount: quantity * m.Prices[symbol],
		Status:      "FILLED",
	}
	m.Orders = append(m.Orders, fill)
	return fill, nil
}
