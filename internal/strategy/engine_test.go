package strategy

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"

	"StockDash/internal/calculator"
	"StockDash/internal/model"
)

func snapshot(close, rsi, hist, upper, lower, sma, ema float64) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		Close:    close,
		RSI:      null.FloatFrom(rsi),
		MACDHist: null.FloatFrom(hist),
		BBUpper:  null.FloatFrom(upper),
		BBLower:  null.FloatFrom(lower),
		SMA:      null.FloatFrom(sma),
		EMA:      null.FloatFrom(ema),
	}
}

func findFactor(o *model.Outlook, name string) model.FactorScore {
	for _, f := range o.Factors {
		if f.Name == name {
			return f
		}
	}
	return model.FactorScore{}
}

func TestEvaluate_Neutral(t *testing.T) {
	o := Evaluate(snapshot(100, 50, 0, 105, 95, 100, 100))
	if len(o.Factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(o.Factors))
	}
	if o.Tier.Label != "Neutral" {
		t.Errorf("expected Neutral, got %q (score %.3f)", o.Tier.Label, o.TotalScore)
	}
	if o.WarningMsg != "" {
		t.Errorf("unexpected warning: %s", o.WarningMsg)
	}
}

func TestEvaluate_Oversold(t *testing.T) {
	o := Evaluate(snapshot(90, 18, 0.2, 110, 92, 100, 97))
	if o.TotalScore < 0.3 {
		t.Errorf("expected bullish score for oversold close, got %.3f", o.TotalScore)
	}
	if o.WarningMsg == "" {
		t.Error("expected oversold warning for RSI < 20")
	}
}

func TestEvaluate_Overbought(t *testing.T) {
	o := Evaluate(snapshot(120, 88, -1, 115, 100, 105, 110))
	if o.TotalScore > -0.3 {
		t.Errorf("expected bearish score, got %.3f", o.TotalScore)
	}
	if o.WarningMsg == "" {
		t.Error("expected overbought warning for RSI > 80")
	}
}

func TestEvaluate_MissingIndicators(t *testing.T) {
	o := Evaluate(model.IndicatorSnapshot{Close: 10})
	if o.TotalScore != 0 {
		t.Errorf("expected 0 with no indicators, got %.3f", o.TotalScore)
	}
	for _, f := range o.Factors {
		if f.Commentary != "not enough data" {
			t.Errorf("%s: commentary %q", f.Name, f.Commentary)
		}
	}
}

func TestMapTier_AllBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{2.0, "Strong Bullish"},
		{1.0, "Strong Bullish"},
		{0.9, "Bullish"},
		{0.3, "Bullish"},
		{0.0, "Neutral"},
		{-0.3, "Neutral"},
		{-0.5, "Bearish"},
		{-1.0, "Bearish"},
		{-1.1, "Strong Bearish"},
	}
	for _, tt := range tests {
		tier := mapTier(tt.score)
		if tier.Label != tt.label {
			t.Errorf("score %.1f: expected %q, got %q", tt.score, tt.label, tier.Label)
		}
	}
}

func TestTrend_UpDown(t *testing.T) {
	up := findFactor(Evaluate(snapshot(110, 50, 0, 120, 90, 100, 105)), "Trend")
	if up.RawScore != 1.5 {
		t.Errorf("expected uptrend score 1.5, got %.1f", up.RawScore)
	}
	down := findFactor(Evaluate(snapshot(90, 50, 0, 120, 80, 100, 95)), "Trend")
	if down.RawScore != -1.5 {
		t.Errorf("expected downtrend score -1.5, got %.1f", down.RawScore)
	}
}

func TestEvaluate_FromComputedSeries(t *testing.T) {
	var s model.Series
	for i := 0; i < 60; i++ {
		s.Bars = append(s.Bars, model.OHLCV{Close: 100 + float64(i)})
	}
	o := Evaluate(calculator.Compute(s).Latest())
	// a steady climb is overbought on RSI and %B but trending up
	if f := findFactor(o, "Trend"); f.RawScore <= 0 {
		t.Errorf("trend on rising series = %.1f", f.RawScore)
	}
	if f := findFactor(o, "RSI"); f.RawScore != -2 {
		t.Errorf("RSI on rising series = %.1f", f.RawScore)
	}
	if math.IsNaN(o.TotalScore) {
		t.Error("total score is NaN")
	}
}
