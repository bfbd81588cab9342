// Package quote resolves per-holding percent moves from live quotes
package quote

import (
	"context"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

const (
	DefaultInterval = "1m"
	DefaultRange    = "1d"
	DefaultFXSymbol = "USDTRY=X"
)

// Service implements ReturnResolver on top of a QuoteClient.
type Service struct {
	client   interfaces.QuoteClient
	logger   *common.Logger
	interval string
	rng      string
	fxSymbol string
}

// Option configures the service
type Option func(*Service)

// WithWindow sets the bar interval and lookback range of quote queries.
func WithWindow(interval, rng string) Option {
	return func(s *Service) {
		if interval != "" {
			s.interval = interval
		}
		if rng != "" {
			s.rng = rng
		}
	}
}

// WithFXSymbol sets the pair used for currency-adjusted holdings without one.
func WithFXSymbol(symbol string) Option {
	return func(s *Service) {
		if symbol != "" {
			s.fxSymbol = symbol
		}
	}
}

// NewService creates a new return resolver.
func NewService(client interfaces.QuoteClient, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		client:   client,
		logger:   logger,
		interval: DefaultInterval,
		rng:      DefaultRange,
		fxSymbol: DefaultFXSymbol,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve applies the holding's configured strategy.
func (s *Service) Resolve(ctx context.Context, holding models.Holding) models.ReturnQuote {
	q := StrategyFor(holding.Strategy, s.fxSymbol).Apply(ctx, s, holding.Symbol)
	if q.Degraded {
		s.logger.Warn().
			Str("symbol", holding.Symbol).
			Str("strategy", string(holding.Strategy.Kind)).
			Float64("pct", q.PercentChange).
			Msg("Quote degraded, missing legs count as no move")
	}
	return q
}

// PercentChange returns (latest - previousClose) / previousClose * 100 for a
// symbol. Any failure, a missing value or a zero previous close yields 0, false.
func (s *Service) PercentChange(ctx context.Context, symbol string) (float64, bool) {
	chart, err := s.client.GetChart(ctx, symbol, s.interval, s.rng)
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote query failed")
		return 0, false
	}
	if chart == nil || chart.PreviousClose == nil {
		return 0, false
	}

	prev := *chart.PreviousClose
	latest, ok := chart.LatestClose()
	if !ok || prev == 0 || !common.IsAvailable(prev) || !common.IsAvailable(latest) {
		return 0, false
	}
	return (latest - prev) / prev * 100, true
}

// Ensure Service implements ReturnResolver
var _ interfaces.ReturnResolver = (*Service)(nil)
