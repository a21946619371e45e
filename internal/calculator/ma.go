package calculator

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"StockDash/internal/model"
)

// DefaultMAWindow is the default SMA/EMA lookback.
const DefaultMAWindow = 14

// SMA returns the rolling simple moving average aligned with prices.
// Entry i is null for i < window-1.
func SMA(prices []float64, window int) []null.Float {
	out := nulls(len(prices))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(prices); i++ {
		out[i] = null.FloatFrom(stat.Mean(prices[i-window+1:i+1], nil))
	}
	return out
}

// EMA returns the exponential moving average with alpha = 2/(window+1),
// seeded with the first price. Entry i is null for i < window-1.
func EMA(prices []float64, window int) []null.Float {
	out := nulls(len(prices))
	if window <= 0 || len(prices) == 0 {
		return out
	}
	raw := ema(prices, window)
	for i := window - 1; i < len(prices); i++ {
		out[i] = null.FloatFrom(raw[i])
	}
	return out
}

func ema(prices []float64, window int) []float64 {
	alpha := 2.0 / float64(window+1)
	raw := make([]float64, len(prices))
	if len(prices) == 0 {
		return raw
	}
	raw[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		raw[i] = alpha*prices[i] + (1-alpha)*raw[i-1]
	}
	return raw
}

func nulls(n int) []null.Float {
	return make([]null.Float, n)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
