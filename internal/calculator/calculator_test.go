package calculator

import (
	"math"
	"testing"
	"time"

	"StockDash/internal/model"
)

const eps = 1e-9

func increasing(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i)*1.5 + float64(i*i)*0.01
	}
	return prices
}

func TestSMA_WindowMean(t *testing.T) {
	prices := increasing(40)
	sma := SMA(prices, 14)
	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}
	for i := range prices {
		if i < 13 {
			if sma[i].Valid {
				t.Errorf("index %d: expected null, got %.4f", i, sma[i].Float64)
			}
			continue
		}
		sum := 0.0
		for j := i - 13; j <= i; j++ {
			sum += prices[j]
		}
		want := sum / 14
		if !sma[i].Valid || math.Abs(sma[i].Float64-want) > eps {
			t.Errorf("index %d: got %v, want %.6f", i, sma[i], want)
		}
	}
}

func TestEMA_LeadingNullsAndSeed(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 20}
	out := EMA(prices, 3)
	if out[0].Valid || out[1].Valid {
		t.Fatal("expected nulls before window-1")
	}
	if !out[2].Valid || math.Abs(out[2].Float64-10) > eps {
		t.Errorf("flat prices should give EMA 10, got %v", out[2])
	}
	// alpha = 0.5
	if math.Abs(out[4].Float64-15) > eps {
		t.Errorf("expected 15 after jump, got %.4f", out[4].Float64)
	}
}

func TestRSI_Bounds(t *testing.T) {
	up := increasing(30)
	rsi := RSI(up, 14)
	for i := 0; i < 14; i++ {
		if rsi[i].Valid {
			t.Errorf("index %d should be null", i)
		}
	}
	if !rsi[14].Valid || rsi[14].Float64 != 100 {
		t.Errorf("monotonic rise should give RSI 100, got %v", rsi[14])
	}

	zigzag := make([]float64, 40)
	for i := range zigzag {
		zigzag[i] = 100 + float64(i%2)*2
	}
	for i, v := range RSI(zigzag, 14) {
		if !v.Valid {
			continue
		}
		if v.Float64 < 0 || v.Float64 > 100 {
			t.Errorf("index %d: RSI out of range: %.2f", i, v.Float64)
		}
	}
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 50
	}
	mid, up, lo := Bollinger(prices, 20, 2)
	if mid[18].Valid {
		t.Error("expected null before window")
	}
	for i := 19; i < len(prices); i++ {
		if up[i].Float64 != 50 || lo[i].Float64 != 50 || mid[i].Float64 != 50 {
			t.Errorf("index %d: bands should collapse to 50, got %v/%v/%v", i, lo[i], mid[i], up[i])
		}
	}
}

func TestBollinger_PopulationStd(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	_, up, lo := Bollinger(prices, 8, 2)
	// mean 5, population std 2
	if math.Abs(up[7].Float64-9) > eps || math.Abs(lo[7].Float64-1) > eps {
		t.Errorf("got upper %.4f lower %.4f, want 9 and 1", up[7].Float64, lo[7].Float64)
	}
}

func TestMACD_Alignment(t *testing.T) {
	prices := increasing(60)
	line, sig, hist := MACD(prices, 12, 26, 9)
	if line[24].Valid || !line[25].Valid {
		t.Errorf("MACD line should start at index 25")
	}
	if sig[32].Valid || !sig[33].Valid {
		t.Errorf("signal should start at index 33")
	}
	if math.Abs(hist[40].Float64-(line[40].Float64-sig[40].Float64)) > eps {
		t.Errorf("histogram should be line - signal")
	}
	if line[59].Float64 <= 0 {
		t.Errorf("rising prices should give positive MACD, got %.4f", line[59].Float64)
	}
}

func TestCompute_EqualLengths(t *testing.T) {
	prices := increasing(50)
	bars := make([]model.OHLCV, len(prices))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	set := Compute(model.Series{Symbol: "SPY", Bars: bars})
	n := len(prices)
	for name, l := range map[string]int{
		"dates": len(set.Dates), "bb": len(set.BBUpper), "macd": len(set.MACD),
		"rsi": len(set.RSI), "sma": len(set.SMA), "ema": len(set.EMA),
	} {
		if l != n {
			t.Errorf("%s: got %d values, want %d", name, l, n)
		}
	}
	latest := set.Latest()
	if latest.Close != prices[n-1] || !latest.SMA.Valid {
		t.Errorf("unexpected latest snapshot: %+v", latest)
	}
}

func TestSummarize(t *testing.T) {
	series := model.Series{Symbol: "X", Bars: []model.OHLCV{
		{Open: 100, High: 105, Low: 95, Close: 102},
		{Open: 102, High: 110, Low: 101, Close: 108},
		{Open: 108, High: 112, Low: 90, Close: 110},
	}}
	sum, err := Summarize(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Change != 10 || math.Abs(sum.ChangePercent-10) > eps {
		t.Errorf("got change %.2f (%.2f%%), want 10 (10%%)", sum.Change, sum.ChangePercent)
	}
	if sum.PeriodHigh != 112 || sum.PeriodLow != 90 {
		t.Errorf("got range %.0f-%.0f, want 90-112", sum.PeriodLow, sum.PeriodHigh)
	}
	if _, err := Summarize(model.Series{}); err == nil {
		t.Error("expected error for empty series")
	}
}
