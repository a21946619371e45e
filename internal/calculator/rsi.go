package calculator

import "github.com/guregu/null/v6"

// DefaultRSIWindow is the default RSI lookback.
const DefaultRSIWindow = 14

// RSI computes the Wilder-smoothed relative strength index for every bar.
// Requires window+1 prices before the first value; earlier entries are null.
func RSI(prices []float64, window int) []null.Float {
	out := nulls(len(prices))
	if window <= 0 || len(prices) < window+1 {
		return out
	}

	// Initial average gain/loss over the first `window` changes
	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	out[window] = null.FloatFrom(rsiValue(avgGain, avgLoss))

	for i := window + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = null.FloatFrom(rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
