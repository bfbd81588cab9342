// Package fund exposes configured funds, their estimates and manual prices
package fund

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
	"github.com/bobmcallan/navcast/internal/services/price"
)

// ManualDateSuffix marks a defaulted manual price date.
const ManualDateSuffix = " (Manuel)"

// lastCycleKeyPrefix prefixes the settings key holding each fund's last cycle time.
const lastCycleKeyPrefix = "last_cycle:"

// Service implements FundService.
type Service struct {
	funds    []models.FundConfig
	byCode   map[string]int
	pipeline interfaces.EstimationService
	storage  interfaces.StorageManager
	metrics  *common.Metrics
	location *time.Location
	logger   *common.Logger
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithMetrics records cycle outcomes on m.
func WithMetrics(m *common.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation sets the calendar used for defaulted manual price dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService creates a fund service over validated fund configs.
func NewService(funds []models.FundConfig, pipeline interfaces.EstimationService, storage interfaces.StorageManager, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		funds:    funds,
		byCode:   make(map[string]int, len(funds)),
		pipeline: pipeline,
		storage:  storage,
		location: time.UTC,
		logger:   logger,
		now:      time.Now,
	}
	for i, f := range funds {
		s.byCode[strings.ToUpper(f.Code)] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListFunds() []models.FundConfig {
	out := make([]models.FundConfig, len(s.funds))
	copy(out, s.funds)
	return out
}

func (s *Service) GetFund(code string) (*models.FundConfig, error) {
	i, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrFundNotFound, code)
	}
	f := s.funds[i]
	return &f, nil
}

func (s *Service) Estimate(ctx context.Context, code string) (*models.PortfolioSnapshot, error) {
	fund, err := s.GetFund(code)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := s.pipeline.Run(ctx, *fund)
	s.observe(fund.Code, snap, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("estimation for %s failed: %w", fund.Code, err)
	}

	// A failed save only loses the cache; the caller still gets the estimate.
	if err := s.storage.SnapshotStorage().SaveLatest(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Str("fund", fund.Code).Msg("Failed to store snapshot")
	}
	if err := s.storage.KeyValueStorage().Set(ctx, lastCycleKeyPrefix+fund.Code, snap.ComputedAt.Format(time.RFC3339)); err != nil {
		s.logger.Warn().Err(err).Str("fund", fund.Code).Msg("Failed to record last cycle time")
	}
	return snap, nil
}

func (s *Service) EstimateAll(ctx context.Context) int {
	ok := 0
	for _, f := range s.funds {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Estimate(ctx, f.Code); err != nil {
			s.logger.Warn().Err(err).Str("fund", f.Code).Msg("Scheduled estimation failed")
			continue
		}
		ok++
	}
	return ok
}

func (s *Service) CachedEstimate(ctx context.Context, code string) (*models.PortfolioSnapshot, error) {
	fund, err := s.GetFund(code)
	if err != nil {
		return nil, err
	}
	snap, err := s.storage.SnapshotStorage().GetLatest(ctx, fund.Code)
	switch {
	case err == nil && common.IsFresh(snap.ComputedAt, s.now(), common.FreshnessSnapshot):
		return snap, nil
	case err != nil && !errors.Is(err, models.ErrSnapshotNotFound):
		s.logger.Warn().Err(err).Str("fund", fund.Code).Msg("Failed to read stored snapshot")
	}
	return s.Estimate(ctx, fund.Code)
}

func (s *Service) LatestSnapshot(ctx context.Context, code string) (*models.PortfolioSnapshot, error) {
	fund, err := s.GetFund(code)
	if err != nil {
		return nil, err
	}
	return s.storage.SnapshotStorage().GetLatest(ctx, fund.Code)
}

func (s *Service) GetManualPrice(ctx context.Context, code string) (*models.ManualOverride, error) {
	fund, err := s.GetFund(code)
	if err != nil {
		return nil, err
	}
	return s.storage.OverrideStorage().GetOverride(ctx, fund.Code)
}

// SetManualPrice stores a base price used when no official price is published
// in the scan window. An empty date defaults to today marked as manual.
func (s *Service) SetManualPrice(ctx context.Context, code string, value float64, date string) (*models.ManualOverride, error) {
	fund, err := s.GetFund(code)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidPrice, value)
	}

	now := s.now()
	date = strings.TrimSpace(date)
	if date == "" {
		date = now.In(s.location).Format(price.DateLayout) + ManualDateSuffix
	}

	override := &models.ManualOverride{
		FundCode:  fund.Code,
		Value:     value,
		Date:      date,
		UpdatedAt: now,
	}
	if err := s.storage.OverrideStorage().SaveOverride(ctx, override); err != nil {
		return nil, err
	}

	s.logger.Info().Str("fund", fund.Code).Float64("price", value).Str("date", date).Msg("Manual price set")
	return override, nil
}

func (s *Service) ClearManualPrice(ctx context.Context, code string) error {
	fund, err := s.GetFund(code)
	if err != nil {
		return err
	}
	return s.storage.OverrideStorage().DeleteOverride(ctx, fund.Code)
}

func (s *Service) observe(code string, snap *models.PortfolioSnapshot, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.EstimationDuration.WithLabelValues(code).Observe(elapsed.Seconds())

	status := "error"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "cancelled"
	case err == nil && snap != nil:
		status = string(snap.Status)
	}
	s.metrics.EstimationCycles.WithLabelValues(code, status).Inc()
	if snap == nil {
		return
	}

	source := "none"
	if snap.OfficialPrice != nil {
		source = string(snap.OfficialPrice.Source)
	}
	s.metrics.OfficialPriceLookups.WithLabelValues(code, source).Inc()
	s.metrics.DegradedQuotes.WithLabelValues(code).Add(float64(snap.DegradedQuotes))
	s.metrics.EstimatedChange.WithLabelValues(code).Set(snap.TotalWeightedPercent)
}

// Ensure Service implements FundService
var _ interfaces.FundService = (*Service)(nil)
