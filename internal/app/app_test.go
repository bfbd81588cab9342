package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/models"
)

// --- Mocks ---

type mockFundService struct {
	funds       []models.FundConfig
	snap        *models.PortfolioSnapshot
	override    *models.ManualOverride
	estimated   []string
	setCalls    int
	cachedCalls int
}

func (m *mockFundService) ListFunds() []models.FundConfig { return m.funds }
func (m *mockFundService) GetFund(code string) (*models.FundConfig, error) {
	for _, f := range m.funds {
		if strings.EqualFold(f.Code, code) {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrFundNotFound, code)
}
func (m *mockFundService) Estimate(_ context.Context, code string) (*models.PortfolioSnapshot, error) {
	if _, err := m.GetFund(code); err != nil {
		return nil, err
	}
	m.estimated = append(m.estimated, code)
	return m.snap, nil
}
func (m *mockFundService) EstimateAll(ctx context.Context) int {
	n := 0
	for _, f := range m.funds {
		if _, err := m.Estimate(ctx, f.Code); err == nil {
			n++
		}
	}
	return n
}
func (m *mockFundService) CachedEstimate(ctx context.Context, code string) (*models.PortfolioSnapshot, error) {
	if _, err := m.GetFund(code); err != nil {
		return nil, err
	}
	m.cachedCalls++
	return m.snap, nil
}
func (m *mockFundService) LatestSnapshot(_ context.Context, code string) (*models.PortfolioSnapshot, error) {
	return nil, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, code)
}
func (m *mockFundService) GetManualPrice(_ context.Context, code string) (*models.ManualOverride, error) {
	if m.override == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrOverrideNotFound, code)
	}
	return m.override, nil
}
func (m *mockFundService) SetManualPrice(_ context.Context, code string, value float64, date string) (*models.ManualOverride, error) {
	m.setCalls++
	if value <= 0 {
		return nil, models.ErrInvalidPrice
	}
	if date == "" {
		date = "15.10.2026 (Manuel)"
	}
	m.override = &models.ManualOverride{FundCode: strings.ToUpper(code), Value: value, Date: date}
	return m.override, nil
}
func (m *mockFundService) ClearManualPrice(_ context.Context, _ string) error {
	m.override = nil
	return nil
}

func newMockFunds() *mockFundService {
	price := 2791.8924
	return &mockFundService{
		funds: []models.FundConfig{{Code: "TLY", Name: "Tera Portföy Birinci Serbest", TotalWeight: 100,
			Holdings: []models.Holding{{Symbol: "ASELS.IS", Weight: 10}}}},
		snap: &models.PortfolioSnapshot{
			FundCode:             "TLY",
			OfficialPrice:        &models.OfficialPrice{Value: 2769.7345, AsOfDate: "14.10.2026", Source: models.PriceSourceOfficial},
			EstimatedPrice:       &price,
			TotalWeightedPercent: 0.8,
			Status:               models.SnapshotEstimated,
			Items: []models.PortfolioItem{
				{Label: "ASELS", Symbol: "ASELS.IS", Weight: 10, PercentChange: 8, WeightedImpact: 0.8},
				{Label: "BPP", Weight: 5, PercentChange: 0.12, WeightedImpact: 0.006, IsFixed: true},
			},
			ComputedAt: time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC),
		},
	}
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

// --- Tool handlers ---

func TestHandleEstimateFund(t *testing.T) {
	funds := newMockFunds()
	h := handleEstimateFund(funds, common.NewSilentLogger())

	res, err := h(context.Background(), callTool(map[string]any{"fund_code": "tly"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "# Estimate: TLY (Tera Portföy Birinci Serbest)")
	assert.Contains(t, text, "**Official Price:** 2.769,7345 (14.10.2026)")
	assert.Contains(t, text, "**Estimated Price:** 2.791,8924")
	assert.Contains(t, text, "| ASELS | %10,00 | +%8,00 | +%0,80 |")
	assert.Contains(t, text, "BPP (fixed)")
	assert.Equal(t, []string{"tly"}, funds.estimated)
}

func TestHandleEstimateFund_Errors(t *testing.T) {
	h := handleEstimateFund(newMockFunds(), common.NewSilentLogger())

	res, _ := h(context.Background(), callTool(map[string]any{}))
	assert.True(t, res.IsError)

	res, _ = h(context.Background(), callTool(map[string]any{"fund_code": "XXX"}))
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")

}

func TestHandleEstimateFund_Cached(t *testing.T) {
	funds := newMockFunds()
	h := handleEstimateFund(funds, common.NewSilentLogger())

	res, _ := h(context.Background(), callTool(map[string]any{"fund_code": "TLY", "cached": true}))
	assert.False(t, res.IsError)
	assert.Equal(t, 1, funds.cachedCalls)
	assert.Empty(t, funds.estimated)
	assert.Contains(t, resultText(t, res), "2.791,8924")
}

func TestHandleManualPriceTools(t *testing.T) {
	funds := newMockFunds()
	logger := common.NewSilentLogger()
	ctx := context.Background()

	res, _ := handleGetManualPrice(funds)(ctx, callTool(map[string]any{"fund_code": "TLY"}))
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "No manual price set for TLY")

	res, _ = handleSetManualPrice(funds, logger)(ctx, callTool(map[string]any{"fund_code": "TLY"}))
	assert.True(t, res.IsError, "missing price must be rejected")
	assert.Zero(t, funds.setCalls)

	res, _ = handleSetManualPrice(funds, logger)(ctx, callTool(map[string]any{"fund_code": "TLY", "price": 2769.7345}))
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "2.769,7345 (15.10.2026 (Manuel))")

	res, _ = handleSetManualPrice(funds, logger)(ctx, callTool(map[string]any{"fund_code": "TLY", "price": -1.0}))
	assert.True(t, res.IsError)

	res, _ = handleClearManualPrice(funds, logger)(ctx, callTool(map[string]any{"fund_code": "TLY"}))
	assert.False(t, res.IsError)
	assert.Nil(t, funds.override)
}

func TestHandleListFunds(t *testing.T) {
	res, _ := handleListFunds(newMockFunds())(context.Background(), callTool(nil))
	text := resultText(t, res)
	assert.Contains(t, text, "| TLY | Tera Portföy Birinci Serbest | 1 | 0 | 100,00 |")

	res, _ = handleListFunds(&mockFundService{})(context.Background(), callTool(nil))
	assert.Equal(t, "No funds configured.", resultText(t, res))
}

func TestFormatSnapshot_AwaitingBasePrice(t *testing.T) {
	snap := &models.PortfolioSnapshot{FundCode: "DFI", Status: models.SnapshotAwaitingBasePrice, Warnings: []string{"weights drift"}}
	text := formatSnapshot(nil, snap)
	assert.Contains(t, text, "**Base Price:** not found")
	assert.Contains(t, text, "**Estimated Price:** -")
	assert.Contains(t, text, "- weights drift")
}

// --- Scheduler ---

func TestRunScheduledCycle(t *testing.T) {
	funds := newMockFunds()
	runScheduledCycle(funds, common.NewSilentLogger())
	assert.Equal(t, []string{"TLY"}, funds.estimated)
}

func TestStartScheduler(t *testing.T) {
	cfg := common.NewDefaultConfig()
	a := &App{Config: cfg, Logger: common.NewSilentLogger(), FundService: newMockFunds()}

	cfg.Scheduler.Schedule = ""
	require.NoError(t, a.StartScheduler())
	assert.Nil(t, a.scheduler)

	cfg.Scheduler.Schedule = "not a cron"
	assert.Error(t, a.StartScheduler())

	cfg.Scheduler.Schedule = "*/5 10-18 * * 1-5"
	require.NoError(t, a.StartScheduler())
	assert.NotNil(t, a.scheduler)
	a.StopScheduler()
	assert.Nil(t, a.scheduler)
}

// --- Wiring ---

func TestNewAppWithConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "db")
	cfg.Scheduler.Schedule = ""
	cfg.Funds = []models.FundConfig{{Code: "tly", Holdings: []models.Holding{{Symbol: "ASELS.IS", Weight: 100}}}}
	require.NoError(t, common.ValidateFunds(cfg))

	a, err := NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()

	f, err := a.FundService.GetFund("TLY")
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.TotalWeight)
	assert.NotNil(t, a.MCPServer)
	assert.NotNil(t, a.Metrics)

	_, err = a.FundService.SetManualPrice(context.Background(), "TLY", 12.5, "")
	require.NoError(t, err)
}
