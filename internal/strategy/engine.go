// Package strategy condenses the latest indicator readings into a single
// weighted outlook shown next to the charts.
package strategy

import (
	"fmt"

	"StockDash/internal/model"
)

// Tiers maps total scores to labels, highest first.
var Tiers = []struct {
	MinScore float64
	Tier     model.OutlookTier
}{
	{1.0, model.OutlookTier{Label: "Strong Bullish", Bias: 2}},
	{0.3, model.OutlookTier{Label: "Bullish", Bias: 1}},
	{-0.3, model.OutlookTier{Label: "Neutral", Bias: 0}},
	{-1.0, model.OutlookTier{Label: "Bearish", Bias: -1}},
}

// DefaultTier is the lowest tier for scores below -1.0.
var DefaultTier = model.OutlookTier{Label: "Strong Bearish", Bias: -2}

// mapTier maps a total score to an OutlookTier.
func mapTier(totalScore float64) model.OutlookTier {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate scores the latest indicator snapshot.
func Evaluate(snap model.IndicatorSnapshot) *model.Outlook {
	factors := []model.FactorScore{
		scoreRSI(snap),
		scoreMACD(snap),
		scoreBollinger(snap),
		scoreTrend(snap),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}

	out := &model.Outlook{
		Factors:    factors,
		TotalScore: total,
		Tier:       mapTier(total),
	}
	if snap.RSI.Valid {
		switch {
		case snap.RSI.Float64 > 80:
			out.WarningMsg = fmt.Sprintf("⚠️ RSI %.0f: heavily overbought, momentum may reverse", snap.RSI.Float64)
		case snap.RSI.Float64 < 20:
			out.WarningMsg = fmt.Sprintf("⚠️ RSI %.0f: heavily oversold, expect volatility", snap.RSI.Float64)
		}
	}
	return out
}
