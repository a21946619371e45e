package calculator

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"
)

// Bollinger and MACD defaults.
const (
	DefaultBollingerWindow = 20
	DefaultBollingerK      = 2.0
	DefaultMACDFast        = 12
	DefaultMACDSlow        = 26
	DefaultMACDSignal      = 9
)

// Bollinger returns the rolling mean and the bands at mean ± k·σ, where σ is
// the population standard deviation of the window.
func Bollinger(prices []float64, window int, k float64) (middle, upper, lower []null.Float) {
	n := len(prices)
	middle, upper, lower = nulls(n), nulls(n), nulls(n)
	if window <= 0 {
		return middle, upper, lower
	}
	for i := window - 1; i < n; i++ {
		mean, std := stat.PopMeanStdDev(prices[i-window+1:i+1], nil)
		middle[i] = null.FloatFrom(mean)
		upper[i] = null.FloatFrom(mean + k*std)
		lower[i] = null.FloatFrom(mean - k*std)
	}
	return middle, upper, lower
}

// MACD returns EMA(fast) - EMA(slow), its signal EMA and the histogram.
// The MACD line is null before slow-1; the signal needs a further signal-1 values.
func MACD(prices []float64, fast, slow, signal int) (line, sig, hist []null.Float) {
	n := len(prices)
	line, sig, hist = nulls(n), nulls(n), nulls(n)
	if fast <= 0 || slow <= 0 || signal <= 0 || n < slow {
		return line, sig, hist
	}

	fastEMA := ema(prices, fast)
	slowEMA := ema(prices, slow)
	start := slow - 1
	diff := make([]float64, 0, n-start)
	for i := start; i < n; i++ {
		d := fastEMA[i] - slowEMA[i]
		line[i] = null.FloatFrom(d)
		diff = append(diff, d)
	}

	sigEMA := ema(diff, signal)
	for j := signal - 1; j < len(diff); j++ {
		i := start + j
		sig[i] = null.FloatFrom(sigEMA[j])
		hist[i] = null.FloatFrom(diff[j] - sigEMA[j])
	}
	return line, sig, hist
}
