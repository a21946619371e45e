package collector

import (
	"context"
	"time"

	"StockDash/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	FetchIntraday(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error)
	ResolveSymbol(ctx context.Context, companyName string) (string, error)
	Name() string
}
