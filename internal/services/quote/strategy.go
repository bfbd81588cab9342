package quote

import (
	"context"

	"github.com/bobmcallan/navcast/internal/models"
)

// PercentSource yields the percent move of a symbol since its previous close.
// ok is false when the move could not be determined; pct is then 0.
type PercentSource interface {
	PercentChange(ctx context.Context, symbol string) (pct float64, ok bool)
}

// Strategy turns a holding's market data into a domestic-currency percent move.
type Strategy interface {
	Apply(ctx context.Context, src PercentSource, symbol string) models.ReturnQuote
}

// DirectReturn uses the instrument's own move.
type DirectReturn struct{}

func (DirectReturn) Apply(ctx context.Context, src PercentSource, symbol string) models.ReturnQuote {
	pct, ok := src.PercentChange(ctx, symbol)
	return models.ReturnQuote{PercentChange: pct, Degraded: !ok}
}

// CurrencyAdjustedReturn compounds the instrument's move with the move of an
// FX pair quoted as local currency per unit of the instrument's currency.
type CurrencyAdjustedReturn struct {
	FXSymbol string
}

func (r CurrencyAdjustedReturn) Apply(ctx context.Context, src PercentSource, symbol string) models.ReturnQuote {
	assetPct, assetOK := src.PercentChange(ctx, symbol)
	fxPct, fxOK := src.PercentChange(ctx, r.FXSymbol)
	return models.ReturnQuote{
		PercentChange: Compound(assetPct, fxPct),
		Degraded:      !assetOK || !fxOK,
	}
}

// Compound combines two percent moves multiplicatively:
// ((1 + a/100) * (1 + b/100) - 1) * 100.
func Compound(assetPct, fxPct float64) float64 {
	return ((1+assetPct/100)*(1+fxPct/100) - 1) * 100
}

// StrategyFor maps a configured strategy tag to its implementation.
// Unknown tags fall back to DirectReturn.
func StrategyFor(rs models.ReturnStrategy, defaultFX string) Strategy {
	switch rs.Kind {
	case models.StrategyCurrencyAdjusted:
		fx := rs.FXSymbol
		if fx == "" {
			fx = defaultFX
		}
		return CurrencyAdjustedReturn{FXSymbol: fx}
	default:
		return DirectReturn{}
	}
}
