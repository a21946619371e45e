package calculator

import (
	"errors"
	"math"

	"StockDash/internal/model"
)

// PeriodRange scans the most recent lookback bars and returns the high and low.
// A lookback <= 0 scans every bar.
func PeriodRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// Summarize returns the change from the first open to the last close along with the period range.
func Summarize(series model.Series) (model.PriceSummary, error) {
	first, ok := firstBar(series)
	if !ok {
		return model.PriceSummary{}, errors.New("empty series")
	}
	last, _ := series.Last()
	high, low, err := PeriodRange(series.Bars, 0)
	if err != nil {
		return model.PriceSummary{}, err
	}
	sum := model.PriceSummary{
		Symbol:     series.Symbol,
		FirstOpen:  first.Open,
		LastClose:  last.Close,
		Change:     last.Close - first.Open,
		PeriodHigh: high,
		PeriodLow:  low,
	}
	if first.Open != 0 {
		sum.ChangePercent = sum.Change / first.Open * 100
	}
	return sum, nil
}

func firstBar(series model.Series) (model.OHLCV, bool) {
	if len(series.Bars) == 0 {
		return model.OHLCV{}, false
	}
	return series.Bars[0], true
}
