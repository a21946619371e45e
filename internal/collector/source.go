package collector

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	"StockDash/internal/model"
	"StockDash/internal/observability"
)

// Source is the boundary the rest of the application fetches through.
// Transport errors never cross it: failed fetches come back as the
// unavailable sentinel series, unknown names as ("", false).
type Source struct {
	Fetcher Fetcher
	Policy  RetryPolicy
	Timeout time.Duration
	Metrics *observability.Metrics
	// OnFailure, when set, is told about every fetch that exhausted its retries.
	OnFailure func(symbol, op string, err error)
}

// NewSource creates a Source with per-attempt timeout and retry policy.
func NewSource(f Fetcher, policy RetryPolicy, timeout time.Duration, m *observability.Metrics) *Source {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Source{Fetcher: f, Policy: policy, Timeout: timeout, Metrics: m}
}

func (s *Source) do(ctx context.Context, symbol, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := Retry(ctx, s.Policy, s.Fetcher.Name()+" "+op+" "+symbol, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.Timeout)
		defer cancel()
		return fn(attemptCtx)
	})
	s.Metrics.ObserveFetch(s.Fetcher.Name(), op, start, err)
	if err != nil {
		log.Printf("[WARN] %s %s %s unavailable: %v", s.Fetcher.Name(), op, symbol, err)
		if s.OnFailure != nil {
			s.OnFailure(symbol, op, err)
		}
	}
	return err
}

// FetchSeries returns daily bars for symbol in [start, end) or the unavailable sentinel.
func (s *Source) FetchSeries(ctx context.Context, symbol string, start, end time.Time) model.Series {
	symbol = NormalizeSymbol(symbol)
	var bars []model.OHLCV
	err := s.do(ctx, symbol, "series", func(ctx context.Context) error {
		var err error
		bars, err = s.Fetcher.FetchSeries(ctx, symbol, start, end)
		return err
	})
	if err != nil {
		return model.UnavailableSeries(symbol, err.Error())
	}
	return model.Series{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}
}

// FetchIntraday returns bars for a named range or the unavailable sentinel.
func (s *Source) FetchIntraday(ctx context.Context, symbol, rng, interval string) model.Series {
	symbol = NormalizeSymbol(symbol)
	var bars []model.OHLCV
	err := s.do(ctx, symbol, "intraday", func(ctx context.Context) error {
		var err error
		bars, err = s.Fetcher.FetchIntraday(ctx, symbol, rng, interval)
		return err
	})
	if err != nil {
		return model.UnavailableSeries(symbol, err.Error())
	}
	return model.Series{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}
}

// ResolveSymbol maps a company name to a ticker. ok is false when the name is unknown.
func (s *Source) ResolveSymbol(ctx context.Context, companyName string) (ticker string, ok bool) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return "", false
	}
	err := s.do(ctx, name, "resolve", func(ctx context.Context) error {
		var err error
		ticker, err = s.Fetcher.ResolveSymbol(ctx, name)
		return err
	})
	if err != nil || ticker == "" {
		return "", false
	}
	return ticker, true
}

// Quote summarises the last two daily bars of a five day window.
func (s *Source) Quote(ctx context.Context, symbol string) model.Quote {
	q := model.Quote{Symbol: NormalizeSymbol(symbol)}
	series := s.FetchIntraday(ctx, q.Symbol, "5d", "1d")
	if series.Unavailable || series.Len() < 2 {
		return q
	}
	prev := series.Bars[series.Len()-2]
	last := series.Bars[series.Len()-1]
	q.Open = null.FloatFrom(last.Open)
	q.High = null.FloatFrom(last.High)
	q.Low = null.FloatFrom(last.Low)
	q.PreviousClose = null.FloatFrom(prev.Close)
	q.Close = null.FloatFrom(last.Close)
	if prev.Close != 0 {
		q.ChangePercent = null.FloatFrom((last.Close - prev.Close) / prev.Close * 100)
	}
	return q
}

// Indices fetches every index concurrently and keeps the input order.
func (s *Source) Indices(ctx context.Context, tickers []model.IndexTicker) []model.IndexQuote {
	out := make([]model.IndexQuote, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, it := range tickers {
		g.Go(func() error {
			iq := model.IndexQuote{Name: it.Name, Ticker: it.Ticker}
			q := s.Quote(gctx, it.Ticker)
			if q.Close.Valid && q.PreviousClose.Valid {
				iq.Close = q.Close
				iq.Change = null.FloatFrom(q.Close.Float64 - q.PreviousClose.Float64)
				iq.ChangePercent = q.ChangePercent
			}
			out[i] = iq
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
