package fund

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/models"
	"github.com/bobmcallan/navcast/internal/storage"
)

// --- Mocks ---

type mockPipeline struct {
	snap  *models.PortfolioSnapshot
	err   error
	calls []string
}

func (m *mockPipeline) Run(_ context.Context, fund models.FundConfig) (*models.PortfolioSnapshot, error) {
	m.calls = append(m.calls, fund.Code)
	if m.err != nil {
		return nil, m.err
	}
	snap := *m.snap
	snap.FundCode = fund.Code
	return &snap, nil
}

func newTestStorage(t *testing.T) *storage.Manager {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "db")
	mgr, err := storage.NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func testFunds() []models.FundConfig {
	return []models.FundConfig{
		{Code: "TLY", Name: "Tera Portföy", TotalWeight: 100},
		{Code: "DFI", Name: "Atlas Portföy", TotalWeight: 100},
	}
}

func estimatedSnapshot() *models.PortfolioSnapshot {
	price := 100.8
	return &models.PortfolioSnapshot{
		ID:                   "snap-1",
		OfficialPrice:        &models.OfficialPrice{Value: 100, Source: models.PriceSourceOfficial},
		EstimatedPrice:       &price,
		TotalWeightedPercent: 0.8,
		Status:               models.SnapshotEstimated,
		DegradedQuotes:       2,
		ComputedAt:           time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestGetFund_CaseInsensitive(t *testing.T) {
	svc := NewService(testFunds(), &mockPipeline{}, newTestStorage(t), common.NewSilentLogger())

	f, err := svc.GetFund("tly")
	require.NoError(t, err)
	assert.Equal(t, "TLY", f.Code)

	_, err = svc.GetFund("XXX")
	assert.True(t, errors.Is(err, models.ErrFundNotFound))

	assert.Len(t, svc.ListFunds(), 2)
}

func TestEstimate_StoresLatestAndRecordsMetrics(t *testing.T) {
	store := newTestStorage(t)
	metrics := common.NewMetrics()
	pipe := &mockPipeline{snap: estimatedSnapshot()}
	svc := NewService(testFunds(), pipe, store, common.NewSilentLogger(), WithMetrics(metrics))
	ctx := context.Background()

	snap, err := svc.Estimate(ctx, "TLY")
	require.NoError(t, err)
	assert.Equal(t, "TLY", snap.FundCode)

	latest, err := svc.LatestSnapshot(ctx, "TLY")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", latest.ID)
	assert.InDelta(t, 100.8, *latest.EstimatedPrice, 1e-9)

	last, err := store.KeyValueStorage().Get(ctx, "last_cycle:TLY")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15T08:00:00Z", last)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EstimationCycles.WithLabelValues("TLY", "estimated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OfficialPriceLookups.WithLabelValues("TLY", "official")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DegradedQuotes.WithLabelValues("TLY")))
	assert.Equal(t, 0.8, testutil.ToFloat64(metrics.EstimatedChange.WithLabelValues("TLY")))
}

func TestCachedEstimate_Freshness(t *testing.T) {
	pipe := &mockPipeline{snap: estimatedSnapshot()}
	svc := NewService(testFunds(), pipe, newTestStorage(t), common.NewSilentLogger())
	computed := estimatedSnapshot().ComputedAt
	ctx := context.Background()

	// Nothing stored: runs a cycle
	svc.now = func() time.Time { return computed.Add(time.Minute) }
	snap, err := svc.CachedEstimate(ctx, "tly")
	require.NoError(t, err)
	assert.Equal(t, "TLY", snap.FundCode)
	assert.Len(t, pipe.calls, 1)

	// Fresh: served from storage
	_, err = svc.CachedEstimate(ctx, "TLY")
	require.NoError(t, err)
	assert.Len(t, pipe.calls, 1)

	// Stale: runs again
	svc.now = func() time.Time { return computed.Add(common.FreshnessSnapshot + time.Second) }
	_, err = svc.CachedEstimate(ctx, "TLY")
	require.NoError(t, err)
	assert.Len(t, pipe.calls, 2)

	_, err = svc.CachedEstimate(ctx, "XXX")
	assert.True(t, errors.Is(err, models.ErrFundNotFound))
}

func TestEstimate_PipelineError(t *testing.T) {
	metrics := common.NewMetrics()
	pipe := &mockPipeline{err: context.DeadlineExceeded}
	svc := NewService(testFunds(), pipe, newTestStorage(t), common.NewSilentLogger(), WithMetrics(metrics))

	_, err := svc.Estimate(context.Background(), "DFI")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EstimationCycles.WithLabelValues("DFI", "cancelled")))

	_, err = svc.LatestSnapshot(context.Background(), "DFI")
	assert.True(t, errors.Is(err, models.ErrSnapshotNotFound))
}

func TestEstimate_UnknownFund(t *testing.T) {
	pipe := &mockPipeline{snap: estimatedSnapshot()}
	svc := NewService(testFunds(), pipe, newTestStorage(t), common.NewSilentLogger())

	_, err := svc.Estimate(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, models.ErrFundNotFound))
	assert.Empty(t, pipe.calls)
}

func TestEstimateAll(t *testing.T) {
	pipe := &mockPipeline{snap: estimatedSnapshot()}
	svc := NewService(testFunds(), pipe, newTestStorage(t), common.NewSilentLogger())

	n := svc.EstimateAll(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"TLY", "DFI"}, pipe.calls)
}

func TestManualPrice_Lifecycle(t *testing.T) {
	svc := NewService(testFunds(), &mockPipeline{}, newTestStorage(t), common.NewSilentLogger(),
		WithLocation(time.FixedZone("TRT", 3*60*60)))
	// 22:30 UTC is already the next day in Istanbul
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 22, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := svc.GetManualPrice(ctx, "TLY")
	assert.True(t, errors.Is(err, models.ErrOverrideNotFound))

	o, err := svc.SetManualPrice(ctx, "tly", 2769.7345, "")
	require.NoError(t, err)
	assert.Equal(t, "TLY", o.FundCode)
	assert.Equal(t, "15.10.2026 (Manuel)", o.Date)

	o, err = svc.SetManualPrice(ctx, "TLY", 2800, "13.10.2026")
	require.NoError(t, err)
	assert.Equal(t, "13.10.2026", o.Date)

	got, err := svc.GetManualPrice(ctx, "TLY")
	require.NoError(t, err)
	assert.Equal(t, 2800.0, got.Value)

	require.NoError(t, svc.ClearManualPrice(ctx, "TLY"))
	_, err = svc.GetManualPrice(ctx, "TLY")
	assert.True(t, errors.Is(err, models.ErrOverrideNotFound))
}

func TestSetManualPrice_RejectsInvalid(t *testing.T) {
	svc := NewService(testFunds(), &mockPipeline{}, newTestStorage(t), common.NewSilentLogger())

	for _, v := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := svc.SetManualPrice(context.Background(), "TLY", v, "")
		assert.True(t, errors.Is(err, models.ErrInvalidPrice), "value %v", v)
	}

	_, err := svc.SetManualPrice(context.Background(), "NOPE", 1, "")
	assert.True(t, errors.Is(err, models.ErrFundNotFound))
}
