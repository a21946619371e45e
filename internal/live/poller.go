package live

import (
	"context"
	"log"
	"time"

	"StockDash/internal/model"
	"StockDash/internal/observability"
)

const (
	DefaultTickerInterval = 15 * time.Second
	DefaultIndexInterval  = time.Second
)

// IntradaySource is the part of the quote adapter the poller needs.
type IntradaySource interface {
	FetchIntraday(ctx context.Context, symbol, rng, interval string) model.Series
}

// Publisher receives every event a poller produces.
type Publisher interface {
	Publish(v any)
}

// Poller drives one session on a fixed interval.
type Poller struct {
	Source   IntradaySource
	Interval time.Duration
	Config   TickConfig
	Metrics  *observability.Metrics
	Now      func() time.Time
}

// NewPoller creates a poller with the default per-ticker interval when interval is zero.
func NewPoller(src IntradaySource, interval time.Duration, cfg TickConfig, m *observability.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultTickerInterval
	}
	return &Poller{Source: src, Interval: interval, Config: cfg, Metrics: m, Now: time.Now}
}

// Run ticks s immediately and then every Interval until the session stops
// or ctx is cancelled, and returns the final session.
func (p *Poller) Run(ctx context.Context, s Session, pub Publisher) Session {
	if s.State != Polling {
		return s
	}
	p.Metrics.LiveSessionStarted()
	defer p.Metrics.LiveSessionEnded()
	log.Printf("[INFO] Live polling %s every %v", s.Symbol, p.Interval)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		fetched := p.Source.FetchIntraday(ctx, s.Symbol, s.Range, s.Interval)
		if ctx.Err() != nil {
			return s
		}
		var ev Event
		s, ev = Tick(s, fetched, p.now(), p.Config)
		p.Metrics.RecordTick(string(ev.Kind))
		pub.Publish(ev)
		if s.State == Stopped {
			log.Printf("[INFO] Live polling %s stopped: %s", s.Symbol, s.StopReason)
			return s
		}

		select {
		case <-ctx.Done():
			return s
		case <-ticker.C:
		}
	}
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// IndicesSource is the part of the quote adapter the index strip needs.
type IndicesSource interface {
	Indices(ctx context.Context, tickers []model.IndexTicker) []model.IndexQuote
}

// IndexStrip refreshes the index quotes on a short interval and publishes
// each snapshot.
type IndexStrip struct {
	Source   IndicesSource
	Tickers  []model.IndexTicker
	Interval time.Duration
	// Active reports whether anyone is listening; polling is skipped otherwise.
	Active func() bool
}

// IndexSnapshot is the payload pushed to index strip subscribers.
type IndexSnapshot struct {
	Kind    string             `json:"kind"`
	Time    time.Time          `json:"time"`
	Indices []model.IndexQuote `json:"indices"`
}

// Run polls until ctx is cancelled.
func (s *IndexStrip) Run(ctx context.Context, pub Publisher) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultIndexInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if s.Active == nil || s.Active() {
			pub.Publish(s.Snapshot(ctx))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Snapshot fetches the strip once.
func (s *IndexStrip) Snapshot(ctx context.Context) IndexSnapshot {
	return IndexSnapshot{Kind: "indices", Time: time.Now(), Indices: s.Source.Indices(ctx, s.Tickers)}
}
