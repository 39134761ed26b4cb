package exchange

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

func TestDryRunSimulatesOrders(t *testing.T) {
	mock := &Mock{Prices: map[string]float64{"ETHUSDT": 2000}}
	dry := NewDryRun(mock, zerolog.Nop())

	fill, err := dry.SubmitMarketOrder(context.Background(), "ETHUSDT", model.SideBuy, 0.05)
	require.NoError(t, err)
	assert.Equal(t, model.Fill{
		Symbol:      "ETHUSDT",
		Side:        model.SideBuy,
		Quantity:    0.05,
		QuoteAmount: 100,
		Status:      "SIMULATED",
	}, fill)

	// The order never reaches the wrapped venue; only the price lookup does.
	assert.Empty(t, mock.Orders)
	assert.Equal(t, []string{"price:ETHUSDT"}, mock.Calls)
	assert.Equal(t, []model.Fill{fill}, dry.Fills())
}

func TestDryRunPassesReadsThrough(t *testing.T) {
	mock := &Mock{
		Universe:    []string{"ETHUSDT"},
		HoldingsSeq: []model.Holdings{{"USDT": 42}},
	}
	dry := NewDryRun(mock, zerolog.Nop())

	universe, err := dry.FetchTradableUniverse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT"}, universe)

	holdings, err := dry.FetchHoldings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Holdings{"USDT": 42}, holdings)
}

func TestDryRunUnpriceableOrderFails(t *testing.T) {
	dry := NewDryRun(&Mock{}, zerolog.Nop())

	_, err := dry.SubmitMarketOrder(context.Background(), "ETHUSDT", model.SideSell, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Empty(t, dry.Fills())
}
