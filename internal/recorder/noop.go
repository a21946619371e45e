package recorder

import (
	"context"
	"time"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(context.Context, *ForecastRun) error      { return nil }
func (n *NoopRecorder) RecordFetchFailure(context.Context, *FetchFailure) error { return nil }
func (n *NoopRecorder) Stats(context.Context, time.Time) (Stats, error)         { return Stats{}, nil }
func (n *NoopRecorder) Prune(context.Context, time.Time) (int64, error)         { return 0, nil }
func (n *NoopRecorder) Close() error                                            { return nil }

func (n *NoopRecorder) RecentForecasts(context.Context, string, int) ([]ForecastRun, error) {
	return nil, nil
}
