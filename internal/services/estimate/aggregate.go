package estimate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/models"
)

// DefaultWeightTolerance is the drift, in percentage points, tolerated
// between declared weights and the normalisation total.
const DefaultWeightTolerance = 0.5

// Aggregator turns resolved returns into a snapshot.
type Aggregator struct {
	WeightTolerance float64
	Now             func() time.Time
}

// NewAggregator creates an aggregator with the given drift tolerance.
func NewAggregator(tolerance float64) Aggregator {
	return Aggregator{WeightTolerance: tolerance, Now: time.Now}
}

// Aggregate weights every holding return and fixed-component accrual by
// weight/totalWeight, sums the impacts and applies the total to the
// official price. returns must be index-aligned with holdings; a missing
// entry counts as no move.
func (a Aggregator) Aggregate(official *models.OfficialPrice, holdings []models.Holding, returns []models.ReturnQuote, fixed []models.FixedComponent, totalWeight float64) *models.PortfolioSnapshot {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	snap := &models.PortfolioSnapshot{
		OfficialPrice: official,
		Items:         make([]models.PortfolioItem, 0, len(holdings)+len(fixed)),
		TotalWeight:   totalWeight,
		ComputedAt:    now(),
	}

	validTotal := totalWeight > 0 && common.IsAvailable(totalWeight)
	if !validTotal {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("total weight %v is not positive, impacts set to zero", totalWeight))
	}
	share := func(w float64) float64 {
		if !validTotal {
			return 0
		}
		return w / totalWeight
	}

	var total, declared float64
	for i, h := range holdings {
		var q models.ReturnQuote
		if i < len(returns) {
			q = returns[i]
		} else {
			q = models.ReturnQuote{Degraded: true}
		}
		impact := q.PercentChange * share(h.Weight)
		total += impact
		declared += h.Weight
		if q.Degraded {
			snap.DegradedQuotes++
		}
		snap.Items = append(snap.Items, models.PortfolioItem{
			Label:          h.Label(),
			Symbol:         h.Symbol,
			Weight:         h.Weight,
			PercentChange:  q.PercentChange,
			WeightedImpact: impact,
			Degraded:       q.Degraded,
		})
	}

	for _, fc := range fixed {
		daily := DailyPercent(fc.AnnualRatePercent)
		impact := daily * share(fc.Weight)
		total += impact
		declared += fc.Weight
		snap.Items = append(snap.Items, models.PortfolioItem{
			Label:          fc.Name,
			Weight:         fc.Weight,
			PercentChange:  daily,
			WeightedImpact: impact,
			IsFixed:        true,
		})
	}

	// Display order only; the total above was accumulated in config order.
	sort.SliceStable(snap.Items, func(i, j int) bool {
		return snap.Items[i].Weight > snap.Items[j].Weight
	})

	snap.TotalWeightedPercent = total
	snap.WeightDrift = declared - totalWeight
	if validTotal && math.Abs(snap.WeightDrift) > a.WeightTolerance {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("declared weights sum to %.2f but total weight is %.2f (drift %+.2f)",
			declared, totalWeight, snap.WeightDrift))
	}

	if official != nil && common.IsAvailable(official.Value) && official.Value > 0 {
		est := official.Value * (1 + total/100)
		snap.EstimatedPrice = &est
		snap.Status = models.SnapshotEstimated
	} else {
		snap.Status = models.SnapshotAwaitingBasePrice
	}

	return snap
}
