package models

import "time"

// PriceSource records where a base price came from.
type PriceSource string

const (
	PriceSourceOfficial PriceSource = "official"
	PriceSourceManual   PriceSource = "manual"
)

// ScanPolicy controls the backward search for the latest official price.
type ScanPolicy struct {
	WindowDays     int  `json:"window_days"`       // consecutive calendar days, today inclusive
	StopOnFirstHit bool `json:"stop_on_first_hit"` // false queries the whole window; the most recent hit still wins
}

// DefaultScanPolicy scans one week back and stops at the first published price.
func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{WindowDays: 7, StopOnFirstHit: true}
}

// OfficialPrice is the base price an estimate is built on.
type OfficialPrice struct {
	Value    float64     `json:"value"`
	AsOfDate string      `json:"as_of_date"` // DD.MM.YYYY for official prices; free text for manual ones
	Source   PriceSource `json:"source"`
}

// ManualOverride is a user-supplied base price used when no official price is found.
type ManualOverride struct {
	FundCode  string    `json:"fund_code" badgerhold:"key"`
	Value     float64   `json:"value"`
	Date      string    `json:"date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReturnQuote is the resolved percent move of one holding for one cycle.
type ReturnQuote struct {
	PercentChange float64 `json:"percent_change"`
	Degraded      bool    `json:"degraded,omitempty"` // at least one upstream query failed and was treated as no move
}

// PortfolioItem is one row of a snapshot, a holding or a fixed component.
type PortfolioItem struct {
	Label          string  `json:"label"`
	Symbol         string  `json:"symbol,omitempty"`
	Weight         float64 `json:"weight"`
	PercentChange  float64 `json:"percent_change"`
	WeightedImpact float64 `json:"weighted_impact"`
	IsFixed        bool    `json:"is_fixed"`
	Degraded       bool    `json:"degraded,omitempty"`
}

// SnapshotStatus summarises whether a snapshot carries an estimate.
type SnapshotStatus string

const (
	SnapshotEstimated         SnapshotStatus = "estimated"
	SnapshotAwaitingBasePrice SnapshotStatus = "awaiting_base_price"
)

// PortfolioSnapshot is the immutable result of one estimation cycle.
type PortfolioSnapshot struct {
	ID                   string          `json:"id"`
	FundCode             string          `json:"fund_code"`
	OfficialPrice        *OfficialPrice  `json:"official_price"`
	Items                []PortfolioItem `json:"items"`
	TotalWeightedPercent float64         `json:"total_weighted_percent"`
	EstimatedPrice       *float64        `json:"estimated_price"`
	Status               SnapshotStatus  `json:"status"`
	TotalWeight          float64         `json:"total_weight"`
	WeightDrift          float64         `json:"weight_drift"`
	DegradedQuotes       int             `json:"degraded_quotes"`
	Warnings             []string        `json:"warnings,omitempty"`
	ComputedAt           time.Time       `json:"computed_at"`
}

// HasEstimate reports whether the snapshot carries an estimated price.
func (s *PortfolioSnapshot) HasEstimate() bool {
	return s != nil && s.EstimatedPrice != nil
}
