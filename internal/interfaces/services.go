package interfaces

import (
	"context"

	"github.com/bobmcallan/navcast/internal/models"
)

// OfficialPriceResolver finds the base price of a fund.
type OfficialPriceResolver interface {
	// Resolve scans backward for the latest official price and falls back to
	// the manual override. A nil price with a nil error means no base price
	// exists; an error is only returned when ctx is done.
	Resolve(ctx context.Context, fundCode string, policy models.ScanPolicy, override *models.ManualOverride) (*models.OfficialPrice, error)
}

// ReturnResolver computes a holding's percent move since the last close.
// It never fails: upstream errors degrade to a zero move.
type ReturnResolver interface {
	Resolve(ctx context.Context, holding models.Holding) models.ReturnQuote
}

// EstimationService runs a full estimation cycle for a fund.
type EstimationService interface {
	Run(ctx context.Context, fund models.FundConfig) (*models.PortfolioSnapshot, error)
}

// FundService exposes configured funds, their estimates and manual prices.
type FundService interface {
	ListFunds() []models.FundConfig
	GetFund(code string) (*models.FundConfig, error)

	// Estimate runs a fresh cycle and stores the snapshot as the latest.
	Estimate(ctx context.Context, code string) (*models.PortfolioSnapshot, error)

	// EstimateAll runs a cycle for every configured fund in turn and
	// returns how many succeeded.
	EstimateAll(ctx context.Context) int

	// CachedEstimate returns the stored snapshot while it is fresh and runs
	// a new cycle otherwise.
	CachedEstimate(ctx context.Context, code string) (*models.PortfolioSnapshot, error)

	// LatestSnapshot returns the last stored snapshot for a fund.
	LatestSnapshot(ctx context.Context, code string) (*models.PortfolioSnapshot, error)

	GetManualPrice(ctx context.Context, code string) (*models.ManualOverride, error)
	SetManualPrice(ctx context.Context, code string, value float64, date string) (*models.ManualOverride, error)
	ClearManualPrice(ctx context.Context, code string) error
}
