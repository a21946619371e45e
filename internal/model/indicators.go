package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// IndicatorSet holds every indicator series aligned index-for-index with Dates.
// Leading values are null until each indicator's lookback is satisfied.
type IndicatorSet struct {
	Symbol     string       `json:"symbol"`
	Dates      []time.Time  `json:"dates"`
	Close      []float64    `json:"close"`
	BBUpper    []null.Float `json:"bb_upper"`
	BBMiddle   []null.Float `json:"bb_middle"`
	BBLower    []null.Float `json:"bb_lower"`
	MACD       []null.Float `json:"macd"`
	MACDSignal []null.Float `json:"macd_signal"`
	MACDHist   []null.Float `json:"macd_hist"`
	RSI        []null.Float `json:"rsi"`
	SMA        []null.Float `json:"sma"`
	EMA        []null.Float `json:"ema"`
}

// IndicatorSnapshot is the latest valid reading of each indicator.
type IndicatorSnapshot struct {
	Close    float64
	BBUpper  null.Float
	BBLower  null.Float
	MACDHist null.Float
	RSI      null.Float
	SMA      null.Float
	EMA      null.Float
}

// Latest returns the last row of the set.
func (s IndicatorSet) Latest() IndicatorSnapshot {
	n := len(s.Close)
	if n == 0 {
		return IndicatorSnapshot{}
	}
	i := n - 1
	return IndicatorSnapshot{
		Close:    s.Close[i],
		BBUpper:  s.BBUpper[i],
		BBLower:  s.BBLower[i],
		MACDHist: s.MACDHist[i],
		RSI:      s.RSI[i],
		SMA:      s.SMA[i],
		EMA:      s.EMA[i],
	}
}
