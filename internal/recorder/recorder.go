// Package recorder keeps an audit history of forecast runs and failed
// provider fetches.
package recorder

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
)

// ForecastRun is one completed regression.
type ForecastRun struct {
	ID        int64
	At        time.Time
	Symbol    string
	Horizon   int
	Seed      uint64
	R2        null.Float
	MAE       float64
	TrainSize int
	TestSize  int
	LastClose float64
	// NextClose is the first forecast value.
	NextClose float64
	Duration  time.Duration
}

// FetchFailure is a provider call that exhausted its retries.
type FetchFailure struct {
	At       time.Time
	Provider string
	Op       string // "series", "intraday", "resolve"
	Symbol   string
	Error    string
}

// Stats counts history rows since a point in time.
type Stats struct {
	ForecastRuns  int
	FetchFailures int
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordForecast(ctx context.Context, run *ForecastRun) error
	RecordFetchFailure(ctx context.Context, f *FetchFailure) error
	RecentForecasts(ctx context.Context, symbol string, limit int) ([]ForecastRun, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
