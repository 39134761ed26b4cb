package rebalance

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadai88/binance-momentum-bot/internal/exchange"
	"github.com/fadai88/binance-momentum-bot/internal/model"
)

func testOptions() Options {
	return Options{
		QuoteAsset:       "USDT",
		NotionalPerToken: 100,
		SettlementWait:   0,
	}
}

func TestExecutorRunSellsBeforeBuys(t *testing.T) {
	mock := &exchange.Mock{
		Prices: map[string]float64{
			"BTCUSDT":  30000,
			"DOGEUSDT": 0.1,
			"ETHUSDT":  20,
			"SOLUSDT":  10,
		},
		HoldingsSeq: []model.Holdings{{"USDT": 250}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}, {Asset: "DOGE", Quantity: 100}},
		ToBuy:  []string{"ETHUSDT", "SOLUSDT"},
	}

	res, err := exec.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, StateDone, exec.State())

	require.Len(t, res.Sold, 2)
	assert.Equal(t, "BTCUSDT", res.Sold[0].Symbol)
	assert.Equal(t, "DOGEUSDT", res.Sold[1].Symbol)
	require.Len(t, res.Bought, 2)
	assert.InDelta(t, 5.0, res.Bought[0].Quantity, 1e-9)
	assert.InDelta(t, 10.0, res.Bought[1].Quantity, 1e-9)
	assert.InDelta(t, 50.0, res.Balance, 1e-9)

	// Every sell, then one balance refresh, then the buys.
	assert.Equal(t, []string{
		"constraints:BTCUSDT",
		"order:SELL:BTCUSDT",
		"constraints:DOGEUSDT",
		"order:SELL:DOGEUSDT",
		"holdings",
		"price:ETHUSDT",
		"constraints:ETHUSDT",
		"order:BUY:ETHUSDT",
		"price:SOLUSDT",
		"constraints:SOLUSDT",
		"order:BUY:SOLUSDT",
	}, mock.Calls)
}

func TestExecutorFailedSellKeepsGoing(t *testing.T) {
	mock := &exchange.Mock{
		Prices:      map[string]float64{"BTCUSDT": 30000, "DOGEUSDT": 0.1},
		OrderErr:    map[string]error{"BTCUSDT": exchange.ErrOrderRejected},
		HoldingsSeq: []model.Holdings{{"USDT": 100}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}, {Asset: "DOGE", Quantity: 100}},
	}

	res, err := exec.Run(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, res.Sold, 1)
	assert.Equal(t, "DOGEUSDT", res.Sold[0].Symbol)
	assert.Equal(t, StateDone, exec.State())
}

func TestExecutorUnlistedPairKeepsGoing(t *testing.T) {
	mock := &exchange.Mock{
		Prices:         map[string]float64{"BTCUSDT": 30000, "DOGEUSDT": 0.1},
		ConstraintsErr: map[string]error{"BTCUSDT": exchange.ErrUnknownSymbol},
		HoldingsSeq:    []model.Holdings{{"USDT": 100}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}, {Asset: "DOGE", Quantity: 100}},
	}

	res, err := exec.Run(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, res.Sold, 1)
	assert.Equal(t, "DOGEUSDT", res.Sold[0].Symbol)
	assert.Equal(t, StateDone, exec.State())
}

func TestExecutorConstraintsOutageAborts(t *testing.T) {
	mock := &exchange.Mock{
		Prices: map[string]float64{"BTCUSDT": 30000, "DOGEUSDT": 0.1, "ETHUSDT": 20, "SOLUSDT": 10},
		ConstraintsErr: map[string]error{
			"BTCUSDT":  exchange.ErrDataUnavailable,
			"DOGEUSDT": exchange.ErrDataUnavailable,
			"ETHUSDT":  exchange.ErrDataUnavailable,
			"SOLUSDT":  exchange.ErrDataUnavailable,
		},
		HoldingsSeq: []model.Holdings{{"USDT": 500}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}, {Asset: "DOGE", Quantity: 100}},
		ToBuy:  []string{"ETHUSDT", "SOLUSDT"},
	}

	res, err := exec.Run(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrDataUnavailable)
	assert.Equal(t, StateFailed, exec.State())
	assert.Empty(t, res.Sold)
	assert.Empty(t, res.Bought)
	assert.Empty(t, mock.Orders)
}

func TestExecutorConstraintsOutageDuringBuysAborts(t *testing.T) {
	mock := &exchange.Mock{
		Prices:         map[string]float64{"BTCUSDT": 30000, "ETHUSDT": 20},
		ConstraintsErr: map[string]error{"ETHUSDT": exchange.ErrDataUnavailable},
		HoldingsSeq:    []model.Holdings{{"USDT": 200}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}},
		ToBuy:  []string{"ETHUSDT"},
	}

	res, err := exec.Run(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrDataUnavailable)
	assert.Equal(t, StateFailed, exec.State())
	// The liquidation already happened and is reported, with the refreshed balance.
	require.Len(t, res.Sold, 1)
	assert.Empty(t, res.Bought)
	assert.InDelta(t, 200.0, res.Balance, 1e-9)
}

func TestExecutorBalanceRefreshFailureAborts(t *testing.T) {
	mock := &exchange.Mock{
		Prices:      map[string]float64{"BTCUSDT": 30000},
		HoldingsErr: errors.New("account endpoint down"),
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	plan := Plan{
		ToSell: []Liquidation{{Asset: "BTC", Quantity: 0.5}},
		ToBuy:  []string{"ETHUSDT"},
	}

	res, err := exec.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, StateFailed, exec.State())
	// The liquidation already happened and is reported.
	assert.Len(t, res.Sold, 1)
	assert.Empty(t, res.Bought)
}

func TestExecutorStopsBuyingWhenBalanceExhausted(t *testing.T) {
	mock := &exchange.Mock{
		Prices:      map[string]float64{"AUSDT": 10, "BUSDT": 10},
		HoldingsSeq: []model.Holdings{{"USDT": 150}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())

	res, err := exec.Run(context.Background(), Plan{ToBuy: []string{"AUSDT", "BUSDT"}})
	require.NoError(t, err)
	require.Len(t, res.Bought, 1)
	assert.Equal(t, "AUSDT", res.Bought[0].Symbol)
	assert.InDelta(t, 50.0, res.Balance, 1e-9)
}

func TestExecutorSkipsUnpriceableBuy(t *testing.T) {
	mock := &exchange.Mock{
		Prices:      map[string]float64{"SOLUSDT": 10},
		PriceErr:    map[string]error{"ETHUSDT": exchange.ErrDataUnavailable},
		HoldingsSeq: []model.Holdings{{"USDT": 500}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())

	res, err := exec.Run(context.Background(), Plan{ToBuy: []string{"ETHUSDT", "SOLUSDT"}})
	require.NoError(t, err)
	require.Len(t, res.Bought, 1)
	assert.Equal(t, "SOLUSDT", res.Bought[0].Symbol)
	// Only the executed buy consumes budget.
	assert.InDelta(t, 400.0, res.Balance, 1e-9)
}

func TestExecutorSkipsBelowMinNotionalBuy(t *testing.T) {
	mock := &exchange.Mock{
		Prices: map[string]float64{"AUSDT": 60, "SOLUSDT": 10},
		Constraints: map[string]model.SymbolConstraints{
			"AUSDT": {Symbol: "AUSDT", QuantityPrecision: 0, MinNotional: 500},
		},
		HoldingsSeq: []model.Holdings{{"USDT": 500}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())

	res, err := exec.Run(context.Background(), Plan{ToBuy: []string{"AUSDT", "SOLUSDT"}})
	require.NoError(t, err)
	require.Len(t, res.Bought, 1)
	assert.Equal(t, "SOLUSDT", res.Bought[0].Symbol)
}

func TestExecutorSkipsDustLiquidation(t *testing.T) {
	mock := &exchange.Mock{
		Prices: map[string]float64{"SHIBUSDT": 0.00001},
		Constraints: map[string]model.SymbolConstraints{
			"SHIBUSDT": {Symbol: "SHIBUSDT", QuantityPrecision: 0},
		},
		HoldingsSeq: []model.Holdings{{"USDT": 100}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())

	res, err := exec.Run(context.Background(), Plan{ToSell: []Liquidation{{Asset: "SHIB", Quantity: 0.4}}})
	require.NoError(t, err)
	assert.Empty(t, res.Sold)
	assert.Empty(t, mock.Orders)
	assert.Equal(t, StateDone, exec.State())
}

func TestExecutorCancelledContext(t *testing.T) {
	mock := &exchange.Mock{
		Prices:      map[string]float64{"BTCUSDT": 30000},
		HoldingsSeq: []model.Holdings{{"USDT": 100}},
	}
	exec := NewExecutor(mock, testOptions(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Run(ctx, Plan{ToSell: []Liquidation{{Asset: "BTC", Quantity: 1}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, exec.State())
}
