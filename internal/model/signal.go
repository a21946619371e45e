package model

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// OutlookTier maps a total score range to a label.
type OutlookTier struct {
	Label string `json:"label"`
	Bias  int    `json:"bias"` // -2 strong bearish .. +2 strong bullish
}

// Outlook summarises the latest indicator readings.
type Outlook struct {
	Factors    []FactorScore `json:"factors"`
	TotalScore float64       `json:"total_score"`
	Tier       OutlookTier   `json:"tier"`
	WarningMsg string        `json:"warning,omitempty"`
}
