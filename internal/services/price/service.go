// Package price resolves the official base price of a fund
package price

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

// DateLayout is the DD.MM.YYYY format TEFAS expects.
const DateLayout = "02.01.2006"

// Service implements OfficialPriceResolver over TEFAS with a manual fallback.
type Service struct {
	tefas     interfaces.TefasClient
	overrides interfaces.OverrideStorage
	policy    models.ScanPolicy
	location  *time.Location
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// Option configures the service
type Option func(*Service)

// WithPolicy sets the default scan policy used when a call passes a zero policy.
func WithPolicy(p models.ScanPolicy) Option {
	return func(s *Service) {
		if p.WindowDays > 0 {
			s.policy = p
		}
	}
}

// WithLocation sets the calendar the scan counts days in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService creates a new official price resolver.
// overrides may be nil, in which case only explicitly passed overrides are used.
func NewService(tefas interfaces.TefasClient, overrides interfaces.OverrideStorage, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		tefas:     tefas,
		overrides: overrides,
		policy:    models.DefaultScanPolicy(),
		location:  time.UTC,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve scans policy.WindowDays calendar days back from today, querying one
// day at a time, and returns the most recent published price. Weekends and
// holidays are queried like any other day. When nothing is found the manual
// override (the argument, else the stored one) is returned; with neither the
// result is nil.
func (s *Service) Resolve(ctx context.Context, fundCode string, policy models.ScanPolicy, override *models.ManualOverride) (*models.OfficialPrice, error) {
	if policy.WindowDays <= 0 {
		policy = s.policy
	}

	found, err := s.scan(ctx, fundCode, policy)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	if override == nil {
		override = s.storedOverride(ctx, fundCode)
	}
	if override != nil && common.IsAvailable(override.Value) && override.Value > 0 {
		s.logger.Info().
			Str("fund", fundCode).
			Float64("price", override.Value).
			Str("date", override.Date).
			Msg("No official price in window, using manual price")
		return &models.OfficialPrice{
			Value:    override.Value,
			AsOfDate: override.Date,
			Source:   models.PriceSourceManual,
		}, nil
	}

	s.logger.Warn().Str("fund", fundCode).Int("window_days", policy.WindowDays).Msg("No base price available")
	return nil, nil
}

func (s *Service) scan(ctx context.Context, fundCode string, policy models.ScanPolicy) (*models.OfficialPrice, error) {
	today := s.now().In(s.location)

	var found *models.OfficialPrice
	for i := 0; i < policy.WindowDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := today.AddDate(0, 0, -i).Format(DateLayout)
		rows, err := s.tefas.GetPriceHistory(ctx, fundCode, date, date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn().Err(err).Str("fund", fundCode).Str("date", date).Msg("Official price query failed, trying previous day")
			continue
		}

		value, ok := firstPrice(rows)
		if !ok {
			s.logger.Debug().Str("fund", fundCode).Str("date", date).Int("rows", len(rows)).Msg("No official price for date")
			continue
		}

		if found == nil {
			found = &models.OfficialPrice{
				Value:    value,
				AsOfDate: date,
				Source:   models.PriceSourceOfficial,
			}
			s.logger.Debug().Str("fund", fundCode).Str("date", date).Float64("price", value).Msg("Official price found")
		}
		if policy.StopOnFirstHit {
			break
		}
	}
	return found, nil
}

// firstPrice returns the price of the first row when it holds a usable value.
func firstPrice(rows []models.TefasPriceRow) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	p := rows[0].Price
	if !common.IsAvailable(p) || p <= 0 {
		return 0, false
	}
	return p, true
}

func (s *Service) storedOverride(ctx context.Context, fundCode string) *models.ManualOverride {
	if s.overrides == nil {
		return nil
	}
	o, err := s.overrides.GetOverride(ctx, fundCode)
	if err != nil {
		if !errors.Is(err, models.ErrOverrideNotFound) {
			s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Manual price lookup failed")
		}
		return nil
	}
	return o
}

// Ensure Service implements OfficialPriceResolver
var _ interfaces.OfficialPriceResolver = (*Service)(nil)
