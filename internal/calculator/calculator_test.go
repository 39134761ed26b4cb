package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

func TestMomentumReturn(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		lookback int
		want     float64
	}{
		{
			name:     "doubled over exact window",
			closes:   []float64{100, 120, 150, 200},
			lookback: 4,
			want:     1.0,
		},
		{
			name:     "window shorter than series",
			closes:   []float64{50, 100, 110, 120},
			lookback: 3,
			want:     0.2,
		},
		{
			name:     "negative return",
			closes:   []float64{200, 180, 150},
			lookback: 3,
			want:     -0.25,
		},
		{
			name:     "single bar window is flat",
			closes:   []float64{100, 150},
			lookback: 1,
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MomentumReturn(tt.closes, tt.lookback)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMomentumReturnInsufficientData(t *testing.T) {
	_, err := MomentumReturn([]float64{100, 110}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMomentumReturnInvalidLookback(t *testing.T) {
	_, err := MomentumReturn([]float64{100, 110}, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientData)
}

func TestDiscreteness(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{
			// changes: +10%, -4.5%, +9.5%; cumulative positive
			name:   "choppy uptrend",
			closes: []float64{100, 110, 105, 115},
			want:   0.25 - 0.5,
		},
		{
			// every day up, cumulative positive
			name:   "smooth uptrend scores negative",
			closes: []float64{1, 2, 3, 4},
			want:   -0.75,
		},
		{
			// every day down, cumulative negative, sign flips
			name:   "smooth downtrend scores negative",
			closes: []float64{4, 3, 2, 1},
			want:   -0.75,
		},
		{
			name:   "flat series scores zero",
			closes: []float64{5, 5, 5},
			want:   0,
		},
		{
			// unchanged days count in neither fraction
			name:   "unchanged day excluded from both fractions",
			closes: []float64{100, 100, 110},
			want:   0 - 1.0/3.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discreteness(tt.closes)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDiscretenessFractionsUseBarCount(t *testing.T) {
	// Three up-changes across four bars: fractions are thirds of four, not
	// of three.
	got, err := Discreteness([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, -3.0/4.0, got, 1e-12)
}

func TestDiscretenessTooShort(t *testing.T) {
	_, err := Discreteness([]float64{100})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeSignal(t *testing.T) {
	series := model.PriceSeries{
		Symbol: "ETHUSDT",
		Candles: []model.Candle{
			{Close: 100},
			{Close: 110},
			{Close: 105},
			{Close: 115},
		},
	}
	sig, err := ComputeSignal(series, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, sig.MomentumReturn, 1e-12)
	assert.InDelta(t, -0.25, sig.Discreteness, 1e-12)
}

func TestComputeSignalPropagatesInsufficientData(t *testing.T) {
	series := model.PriceSeries{
		Symbol:  "ETHUSDT",
		Candles: []model.Candle{{Close: 100}, {Close: 110}},
	}
	_, err := ComputeSignal(series, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
