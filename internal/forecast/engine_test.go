package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockDash/internal/model"
)

func syntheticSeries(closes []float64) model.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // Friday
	bars := make([]model.OHLCV, len(closes))
	d := start
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: d, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
		d = d.AddDate(0, 0, 1)
	}
	return model.Series{Symbol: "TEST", Bars: bars}
}

func thirtyCloses() []float64 {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i) + 3*math.Sin(float64(i))
	}
	return closes
}

func TestForecast_EndToEnd(t *testing.T) {
	closes := thirtyCloses()
	fc, err := NewEngine(0).Forecast(syntheticSeries(closes), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.Points) != 35 {
		t.Fatalf("expected 35 points, got %d", len(fc.Points))
	}
	for i, c := range closes {
		if fc.Points[i].Close != c || fc.Points[i].Forecast {
			t.Errorf("point %d: got %+v, want historical close %.4f", i, fc.Points[i], c)
		}
	}
	for i := 30; i < 35; i++ {
		p := fc.Points[i]
		if !p.Forecast {
			t.Errorf("point %d should be marked as forecast", i)
		}
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			t.Errorf("point %d is not finite: %v", i, p.Close)
		}
	}
	if fc.TrainSize+fc.TestSize != 25 || fc.TestSize != 5 {
		t.Errorf("unexpected split %d/%d", fc.TrainSize, fc.TestSize)
	}
}

func TestForecast_LengthProperty(t *testing.T) {
	tests := []struct {
		length  int
		horizon int
	}{
		{7, 5}, {10, 1}, {60, 5}, {120, 30}, {12, 10},
	}
	for _, tt := range tests {
		closes := make([]float64, tt.length)
		for i := range closes {
			closes[i] = 50 + float64(i%7)*1.3 + float64(i)*0.2
		}
		fc, err := NewEngine(7).Forecast(syntheticSeries(closes), tt.horizon)
		if err != nil {
			t.Fatalf("L=%d N=%d: unexpected error: %v", tt.length, tt.horizon, err)
		}
		if len(fc.Points) != tt.length+tt.horizon {
			t.Errorf("L=%d N=%d: got %d points", tt.length, tt.horizon, len(fc.Points))
		}
		if len(fc.Forecasted) != tt.horizon {
			t.Errorf("L=%d N=%d: got %d forecasts", tt.length, tt.horizon, len(fc.Forecasted))
		}
	}
}

func TestForecast_Errors(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		horizon int
		want    error
	}{
		{"zero horizon", 30, 0, ErrInvalidHorizon},
		{"negative horizon", 30, -3, ErrInvalidHorizon},
		{"too short", 6, 5, ErrInsufficientData},
		{"empty", 0, 5, ErrInsufficientData},
		{"max int horizon", 30, math.MaxInt, ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := make([]float64, tt.length)
			for i := range closes {
				closes[i] = float64(i + 1)
			}
			fc, err := NewEngine(7).Forecast(syntheticSeries(closes), tt.horizon)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if fc != nil {
				t.Error("expected no partial output")
			}
		})
	}
}

func TestForecast_UnavailableSeries(t *testing.T) {
	_, err := NewEngine(7).Forecast(model.UnavailableSeries("SPY", "timeout"), 5)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestForecast_Deterministic(t *testing.T) {
	series := syntheticSeries(thirtyCloses())
	a, err := NewEngine(11).Forecast(series, 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEngine(11).Forecast(series, 5)
	if err != nil {
		t.Fatal(err)
	}
	if a.R2 != b.R2 || a.MAE != b.MAE {
		t.Errorf("metrics differ: %v/%v vs %v/%v", a.R2, a.MAE, b.R2, b.MAE)
	}
	for i := range a.Forecasted {
		if a.Forecasted[i] != b.Forecasted[i] {
			t.Errorf("forecast %d differs: %v vs %v", i, a.Forecasted[i], b.Forecasted[i])
		}
	}
}

func TestForecast_MinimumLength(t *testing.T) {
	fc, err := NewEngine(7).Forecast(syntheticSeries([]float64{1, 2, 3, 4, 5, 6, 7}), 5)
	if err != nil {
		t.Fatalf("L=N+2 should be accepted: %v", err)
	}
	if fc.R2.Valid {
		t.Errorf("single test row should leave R2 undefined, got %v", fc.R2.Float64)
	}
	for _, v := range fc.Forecasted {
		if math.IsNaN(v) {
			t.Fatal("forecast should be finite with a degenerate train set")
		}
	}
}

func TestForecast_LinearSeriesFitsExactly(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10 + 2*float64(i)
	}
	fc, err := NewEngine(7).Forecast(syntheticSeries(closes), 3)
	if err != nil {
		t.Fatal(err)
	}
	if fc.MAE > 1e-9 {
		t.Errorf("expected near-zero MAE on a linear series, got %v", fc.MAE)
	}
	// close[i+3] = close[i] + 6
	want := closes[39] + 6
	if math.Abs(fc.Forecasted[2]-want) > 1e-9 {
		t.Errorf("last forecast: got %.6f, want %.6f", fc.Forecasted[2], want)
	}
}

func TestSplit_SizesAndDisjoint(t *testing.T) {
	train, test := Split(25, 0.2, 7)
	if len(test) != 5 || len(train) != 20 {
		t.Fatalf("got %d/%d, want 20/5", len(train), len(test))
	}
	seen := make(map[int]bool)
	for _, i := range append(train, test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	train2, test2 := Split(25, 0.2, 7)
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("split should be reproducible")
		}
	}
	_ = train2
}

func TestNextBusinessDays_SkipsWeekend(t *testing.T) {
	friday := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	days := NextBusinessDays(friday, 3)
	want := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}
	for i, d := range days {
		if d.Weekday() != want[i] {
			t.Errorf("day %d: got %s, want %s", i, d.Weekday(), want[i])
		}
	}
	if days[0].Day() != 4 {
		t.Errorf("expected Monday 4th, got %s", days[0])
	}
}

func TestFitScaler_Constant(t *testing.T) {
	s := FitScaler([]float64{5, 5, 5})
	for _, v := range s.Transform([]float64{5, 5}) {
		if v != 0 {
			t.Errorf("constant column should scale to 0, got %v", v)
		}
	}
}
