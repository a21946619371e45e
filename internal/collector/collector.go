package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockDash/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu sync.Mutex

	Price     float64
	DailyData []model.OHLCV
	Intraday  []model.OHLCV
	Symbols   map[string]string // lower-cased company name -> ticker
	Err       error
	FailTimes int // fail this many calls with Err, 0 means always
	Calls     int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) fail() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil && (m.FailTimes == 0 || m.Calls <= m.FailTimes) {
		return m.Err
	}
	return nil
}

func (m *MockFetcher) FetchSeries(_ context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return nil, fmt.Errorf("mock: %w", ErrNoData)
	}
	return generateMockBars(m.Price, days, end), nil
}

func (m *MockFetcher) FetchIntraday(_ context.Context, _ string, _, _ string) ([]model.OHLCV, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Intraday != nil {
		return append([]model.OHLCV(nil), m.Intraday...), nil
	}
	return generateMockBars(m.Price, 5, time.Now()), nil
}

func (m *MockFetcher) ResolveSymbol(_ context.Context, companyName string) (string, error) {
	if err := m.fail(); err != nil {
		return "", err
	}
	if t, ok := m.Symbols[strings.ToLower(companyName)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("mock search %q: %w", companyName, ErrNoData)
}

// SetIntraday swaps the intraday bars returned by later calls.
func (m *MockFetcher) SetIntraday(bars []model.OHLCV) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Intraday = bars
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	bars := make([]model.OHLCV, count)
	day := end.Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   day.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
