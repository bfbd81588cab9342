// Package interfaces defines service contracts for navcast
package interfaces

import (
	"context"

	"github.com/bobmcallan/navcast/internal/models"
)

// TefasClient provides access to the official fund price history.
type TefasClient interface {
	// GetPriceHistory returns the published prices of a fund between two
	// DD.MM.YYYY dates (inclusive). An empty slice means nothing was published.
	GetPriceHistory(ctx context.Context, fundCode, from, to string) ([]models.TefasPriceRow, error)
}

// QuoteClient provides short quote series for tickers and FX pairs.
type QuoteClient interface {
	// GetChart returns closes at the given bar interval over the lookback
	// range, plus the previous official close.
	GetChart(ctx context.Context, symbol, interval, rng string) (*models.Chart, error)
}
