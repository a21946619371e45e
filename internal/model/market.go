package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered-by-time run of bars for one symbol.
// Unavailable marks the sentinel returned when the provider could not be reached.
type Series struct {
	Symbol      string    `json:"symbol"`
	Bars        []OHLCV   `json:"bars"`
	Unavailable bool      `json:"unavailable"`
	Reason      string    `json:"reason,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// UnavailableSeries builds the sentinel series for a failed fetch.
func UnavailableSeries(symbol, reason string) Series {
	return Series{
		Symbol:      symbol,
		Bars:        []OHLCV{},
		Unavailable: true,
		Reason:      reason,
		FetchedAt:   time.Now(),
	}
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar, or false when the series is empty.
func (s Series) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Quote is a point-in-time snapshot derived from the last two daily bars.
type Quote struct {
	Symbol        string     `json:"symbol"`
	Open          null.Float `json:"open"`
	High          null.Float `json:"high"`
	Low           null.Float `json:"low"`
	PreviousClose null.Float `json:"previous_close"`
	Close         null.Float `json:"close"`
	ChangePercent null.Float `json:"change_percent"`
}

// IndexQuote is one cell of the index strip.
type IndexQuote struct {
	Name          string     `json:"name"`
	Ticker        string     `json:"ticker"`
	Close         null.Float `json:"close"`
	Change        null.Float `json:"change"`
	ChangePercent null.Float `json:"change_percent"`
}

// IndexTicker pairs a display name with its provider ticker.
type IndexTicker struct {
	Name   string `yaml:"name" json:"name"`
	Ticker string `yaml:"ticker" json:"ticker"`
}

// Mover is a row of a gainers or losers table.
type Mover struct {
	Company       string     `json:"company"`
	Symbol        string     `json:"symbol"`
	Open          null.Float `json:"open"`
	High          null.Float `json:"high"`
	Low           null.Float `json:"low"`
	PreviousClose null.Float `json:"previous_close"`
	Close         null.Float `json:"close"`
	ChangePercent null.Float `json:"change_percent"`
}

// GainerBoard groups NSE gainers by legend (e.g. NIFTY, BANKNIFTY).
type GainerBoard struct {
	Legends []string           `json:"legends"`
	Tables  map[string][]Mover `json:"tables"`
}

// PriceSummary is the header shown above a chart.
type PriceSummary struct {
	Symbol        string  `json:"symbol"`
	FirstOpen     float64 `json:"first_open"`
	LastClose     float64 `json:"last_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	PeriodHigh    float64 `json:"period_high"`
	PeriodLow     float64 `json:"period_low"`
}
