// Package estimate computes intraday NAV estimates from holdings and quotes
package estimate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

// Service implements EstimationService. It holds no per-fund state, so
// concurrent runs for different funds are independent.
type Service struct {
	prices     interfaces.OfficialPriceResolver
	returns    interfaces.ReturnResolver
	aggregator Aggregator
	policy     models.ScanPolicy
	logger     *common.Logger
}

// NewService creates a new estimation pipeline.
func NewService(prices interfaces.OfficialPriceResolver, returns interfaces.ReturnResolver, aggregator Aggregator, policy models.ScanPolicy, logger *common.Logger) *Service {
	return &Service{
		prices:     prices,
		returns:    returns,
		aggregator: aggregator,
		policy:     policy,
		logger:     logger,
	}
}

// Run resolves the official price and every holding return concurrently,
// waits for all of them and aggregates the result. A failing holding only
// contributes no move; the only error is the caller's context ending.
func (s *Service) Run(ctx context.Context, fund models.FundConfig) (*models.PortfolioSnapshot, error) {
	start := time.Now()

	policy := s.policy
	if fund.ScanWindowDays > 0 {
		policy.WindowDays = fund.ScanWindowDays
	}

	var (
		wg       sync.WaitGroup
		official *models.OfficialPrice
		priceErr error
		returns  = make([]models.ReturnQuote, len(fund.Holdings))
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		official, priceErr = s.prices.Resolve(ctx, fund.Code, policy, nil)
	}()

	for i, h := range fund.Holdings {
		wg.Add(1)
		go func(i int, h models.Holding) {
			defer wg.Done()
			returns[i] = s.returns.Resolve(ctx, h)
		}(i, h)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if priceErr != nil {
		return nil, priceErr
	}

	snap := s.aggregator.Aggregate(official, fund.Holdings, returns, fund.Fixed, fund.TotalWeight)
	snap.ID = uuid.New().String()
	snap.FundCode = fund.Code
	if len(fund.Warnings) > 0 {
		snap.Warnings = append(append([]string{}, fund.Warnings...), snap.Warnings...)
	}

	event := s.logger.Info().
		Str("fund", fund.Code).
		Str("status", string(snap.Status)).
		Float64("total_pct", snap.TotalWeightedPercent).
		Int("holdings", len(fund.Holdings)).
		Int("degraded", snap.DegradedQuotes).
		Dur("elapsed", time.Since(start))
	if snap.EstimatedPrice != nil {
		event = event.Float64("estimated_price", *snap.EstimatedPrice)
	}
	event.Msg("Estimation cycle complete")

	return snap, nil
}

// Ensure Service implements EstimationService
var _ interfaces.EstimationService = (*Service)(nil)
