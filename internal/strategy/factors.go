package strategy

import (
	"fmt"

	"StockDash/internal/model"
)

const (
	weightRSI       = 0.30
	weightMACD      = 0.25
	weightBollinger = 0.20
	weightTrend     = 0.25
)

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

// scoreRSI reads RSI(14) as a mean-reversion signal: oversold scores positive.
func scoreRSI(s model.IndicatorSnapshot) model.FactorScore {
	if !s.RSI.Valid {
		return factor("RSI", 0, weightRSI, "not enough data")
	}
	rsi := s.RSI.Float64
	var score float64
	switch {
	case rsi <= 25:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 45:
		score = 0.5
	case rsi <= 55:
		score = 0
	case rsi <= 60:
		score = -0.5
	case rsi <= 70:
		score = -1.0
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}
	return factor("RSI", score, weightRSI, fmt.Sprintf("RSI=%.0f", rsi))
}

// scoreMACD scores the histogram as a percentage of price.
func scoreMACD(s model.IndicatorSnapshot) model.FactorScore {
	if !s.MACDHist.Valid || s.Close == 0 {
		return factor("MACD", 0, weightMACD, "not enough data")
	}
	pct := s.MACDHist.Float64 / s.Close * 100
	var score float64
	switch {
	case pct >= 0.5:
		score = 1.5
	case pct > 0:
		score = 0.5
	case pct == 0:
		score = 0
	case pct > -0.5:
		score = -0.5
	default:
		score = -1.5
	}
	return factor("MACD", score, weightMACD, fmt.Sprintf("histogram %+.2f%% of price", pct))
}

// scoreBollinger scores %B, the close's position inside the bands.
// Closing outside a band is read as stretched and scored contrarian.
func scoreBollinger(s model.IndicatorSnapshot) model.FactorScore {
	if !s.BBUpper.Valid || !s.BBLower.Valid {
		return factor("Bollinger %B", 0, weightBollinger, "not enough data")
	}
	width := s.BBUpper.Float64 - s.BBLower.Float64
	if width <= 0 {
		return factor("Bollinger %B", 0, weightBollinger, "flat bands")
	}
	pb := (s.Close - s.BBLower.Float64) / width
	var score float64
	switch {
	case pb <= 0:
		score = 2.0
	case pb <= 0.2:
		score = 1.0
	case pb < 0.8:
		score = 0
	case pb < 1:
		score = -1.0
	default:
		score = -2.0
	}
	return factor("Bollinger %B", score, weightBollinger, fmt.Sprintf("%%B=%.2f", pb))
}

// scoreTrend scores the close against SMA(14) and EMA(14).
// Uptrend: close > EMA > SMA. Downtrend: close < EMA < SMA.
func scoreTrend(s model.IndicatorSnapshot) model.FactorScore {
	if !s.SMA.Valid || !s.EMA.Valid {
		return factor("Trend", 0, weightTrend, "not enough data")
	}
	sma, ema := s.SMA.Float64, s.EMA.Float64

	var score float64
	var commentary string
	switch {
	case s.Close > ema && ema > sma:
		score, commentary = 1.5, "uptrend"
	case s.Close > ema && s.Close > sma:
		score, commentary = 1.0, "above averages"
	case s.Close < ema && ema < sma:
		score, commentary = -1.5, "downtrend"
	case s.Close < ema && s.Close < sma:
		score, commentary = -1.0, "below averages"
	default:
		score, commentary = 0, "range-bound"
	}
	return factor("Trend", score, weightTrend, commentary)
}
