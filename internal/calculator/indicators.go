package calculator

import (
	"time"

	"StockDash/internal/model"
)

// Compute derives every indicator from the series closes using the default windows.
func Compute(series model.Series) model.IndicatorSet {
	closes := extractCloses(series.Bars)
	dates := make([]time.Time, len(series.Bars))
	for i, b := range series.Bars {
		dates[i] = b.Time
	}

	set := model.IndicatorSet{
		Symbol: series.Symbol,
		Dates:  dates,
		Close:  closes,
	}
	set.BBMiddle, set.BBUpper, set.BBLower = Bollinger(closes, DefaultBollingerWindow, DefaultBollingerK)
	set.MACD, set.MACDSignal, set.MACDHist = MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	set.RSI = RSI(closes, DefaultRSIWindow)
	set.SMA = SMA(closes, DefaultMAWindow)
	set.EMA = EMA(closes, DefaultMAWindow)
	return set
}
