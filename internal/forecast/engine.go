// Package forecast fits a single-feature linear regression of the close N
// days ahead on today's close and projects it over the next N business days.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"StockDash/internal/model"
)

const (
	// DefaultHorizon is the number of business days forecast when none is given.
	DefaultHorizon = 5
	// DefaultSeed fixes the train/test permutation.
	DefaultSeed uint64 = 7
	// TestFraction is the share of labelled rows held out for scoring.
	TestFraction = 0.2
)

var (
	// ErrInvalidHorizon is returned when the horizon is not positive.
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")
	// ErrInsufficientData is returned when the series cannot support a train/test split.
	ErrInsufficientData = errors.New("insufficient data for forecast")
)

// Engine runs deterministic forecasts for a fixed seed.
type Engine struct {
	Seed uint64
}

// NewEngine creates an Engine. A zero seed falls back to DefaultSeed.
func NewEngine(seed uint64) *Engine {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Engine{Seed: seed}
}

// Forecast projects the close horizon business days past the last bar.
func (e *Engine) Forecast(series model.Series, horizon int) (*model.Forecast, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	if series.Unavailable {
		return nil, fmt.Errorf("%w: %s unavailable", ErrInsufficientData, series.Symbol)
	}
	closes := series.Closes()
	n := len(closes)
	if horizon > n-2 {
		return nil, fmt.Errorf("%w: have %d rows, too few for a %d day horizon", ErrInsufficientData, n, horizon)
	}

	// Scaler is fit on the whole column, forecast rows included.
	scaler := FitScaler(closes)
	x := scaler.Transform(closes)

	labelled := n - horizon
	features := x[:labelled]
	labels := closes[horizon:]
	batch := x[labelled:]

	trainIdx, testIdx := Split(labelled, TestFraction, e.Seed)
	xTrain, yTrain := gather(features, trainIdx), gather(labels, trainIdx)
	xTest, yTest := gather(features, testIdx), gather(labels, testIdx)

	alpha, beta := fitOLS(xTrain, yTrain)
	predict := func(v float64) float64 { return alpha + beta*v }

	preds := make([]float64, len(xTest))
	for i, v := range xTest {
		preds[i] = predict(v)
	}

	forecasted := make([]float64, horizon)
	for i, v := range batch {
		forecasted[i] = predict(v)
	}

	last, _ := series.Last()
	dates := NextBusinessDays(last.Time, horizon)

	points := make([]model.ForecastPoint, 0, n+horizon)
	for _, b := range series.Bars {
		points = append(points, model.ForecastPoint{Time: b.Time, Close: b.Close})
	}
	for i, v := range forecasted {
		points = append(points, model.ForecastPoint{Time: dates[i], Close: v, Forecast: true})
	}

	return &model.Forecast{
		Symbol:     series.Symbol,
		Horizon:    horizon,
		Seed:       e.Seed,
		R2:         rSquared(preds, yTest),
		MAE:        meanAbsoluteError(preds, yTest),
		TrainSize:  len(trainIdx),
		TestSize:   len(testIdx),
		Intercept:  alpha,
		Slope:      beta,
		Points:     points,
		Forecasted: forecasted,
	}, nil
}

// fitOLS falls back to the label mean when the slope is undefined.
func fitOLS(x, y []float64) (alpha, beta float64) {
	if len(x) < 2 {
		return stat.Mean(y, nil), 0
	}
	if _, variance := stat.PopMeanVariance(x, nil); variance == 0 {
		return stat.Mean(y, nil), 0
	}
	return stat.LinearRegression(x, y, nil, false)
}

func rSquared(estimates, values []float64) null.Float {
	if len(values) < 2 {
		return null.Float{}
	}
	r2 := stat.RSquaredFrom(estimates, values, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return null.Float{}
	}
	return null.FloatFrom(r2)
}

func meanAbsoluteError(estimates, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for i, v := range values {
		sum += math.Abs(v - estimates[i])
	}
	return sum / float64(len(values))
}

func gather(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
