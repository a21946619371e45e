package collector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockDash/internal/model"
)

// MoversSource is the scraping side of MoversCache.
type MoversSource interface {
	NSEGainers(ctx context.Context) (*model.GainerBoard, error)
	GrowwLosers(ctx context.Context) ([]map[string]string, error)
}

// MoversCache holds the last good gainers and losers boards. Readers get the
// cached copy while it is younger than TTL; a failed refresh keeps the old one
// and is not retried by readers for RetryAfter. Fetches run outside the lock
// and concurrent refreshes of one board share a single upstream call.
type MoversCache struct {
	Movers     MoversSource
	Source     *Source
	TTL        time.Duration
	RetryAfter time.Duration

	group singleflight.Group

	mu              sync.Mutex
	gainers         *model.GainerBoard
	losers          []model.Mover
	gainersAt       time.Time
	losersAt        time.Time
	gainersErr      error
	losersErr       error
	gainersFailedAt time.Time
	losersFailedAt  time.Time
	now             func() time.Time
}

// NewMoversCache creates a cache over m, enriching losers through src.
func NewMoversCache(m MoversSource, src *Source, ttl time.Duration) *MoversCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MoversCache{Movers: m, Source: src, TTL: ttl, RetryAfter: 30 * time.Second, now: time.Now}
}

// Gainers returns the NSE gainers board, refreshing it when stale.
func (c *MoversCache) Gainers(ctx context.Context) (*model.GainerBoard, error) {
	c.mu.Lock()
	board, at, lastErr, failedAt := c.gainers, c.gainersAt, c.gainersErr, c.gainersFailedAt
	c.mu.Unlock()

	now := c.now()
	if board != nil && now.Sub(at) < c.TTL {
		return board, nil
	}
	if lastErr != nil && now.Sub(failedAt) < c.RetryAfter {
		if board != nil {
			return board, nil
		}
		return nil, lastErr
	}

	_, err, _ := c.group.Do("gainers", func() (any, error) {
		return nil, c.refreshGainers(ctx)
	})
	c.mu.Lock()
	board = c.gainers
	c.mu.Unlock()
	if err != nil && board == nil {
		return nil, err
	}
	return board, nil
}

// Losers returns the enriched losers table, refreshing it when stale.
func (c *MoversCache) Losers(ctx context.Context) ([]model.Mover, error) {
	c.mu.Lock()
	losers, at, lastErr, failedAt := c.losers, c.losersAt, c.losersErr, c.losersFailedAt
	c.mu.Unlock()

	now := c.now()
	if losers != nil && now.Sub(at) < c.TTL {
		return losers, nil
	}
	if lastErr != nil && now.Sub(failedAt) < c.RetryAfter {
		if losers != nil {
			return losers, nil
		}
		return nil, lastErr
	}

	_, err, _ := c.group.Do("losers", func() (any, error) {
		return nil, c.refreshLosers(ctx)
	})
	c.mu.Lock()
	losers = c.losers
	c.mu.Unlock()
	if err != nil && losers == nil {
		return nil, err
	}
	return losers, nil
}

// Refresh reloads both boards regardless of age or back-off and returns the
// first error.
func (c *MoversCache) Refresh(ctx context.Context) error {
	_, gErr, _ := c.group.Do("gainers", func() (any, error) {
		return nil, c.refreshGainers(ctx)
	})
	_, lErr, _ := c.group.Do("losers", func() (any, error) {
		return nil, c.refreshLosers(ctx)
	})
	if gErr != nil {
		return gErr
	}
	return lErr
}

func (c *MoversCache) refreshGainers(ctx context.Context) error {
	board, err := c.Movers.NSEGainers(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.gainersErr, c.gainersFailedAt = err, c.now()
		return err
	}
	c.gainers, c.gainersAt, c.gainersErr = board, c.now(), nil
	return nil
}

func (c *MoversCache) refreshLosers(ctx context.Context) error {
	rows, err := c.Movers.GrowwLosers(ctx)
	var losers []model.Mover
	if err == nil {
		losers = EnrichLosers(ctx, c.Source, rows)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.losersErr, c.losersFailedAt = err, c.now()
		return err
	}
	c.losers, c.losersAt, c.losersErr = losers, c.now(), nil
	return nil
}
