package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// ForecastPoint is one entry of the combined history+forecast line.
type ForecastPoint struct {
	Time     time.Time `json:"time"`
	Close    float64   `json:"close"`
	Forecast bool      `json:"forecast"`
}

// Forecast is the output of a regression run.
type Forecast struct {
	Symbol     string          `json:"symbol"`
	Horizon    int             `json:"horizon"`
	Seed       uint64          `json:"seed"`
	R2         null.Float      `json:"r2"`
	MAE        float64         `json:"mae"`
	TrainSize  int             `json:"train_size"`
	TestSize   int             `json:"test_size"`
	Intercept  float64         `json:"intercept"`
	Slope      float64         `json:"slope"`
	Points     []ForecastPoint `json:"points"`
	Forecasted []float64       `json:"forecasted"`
}
