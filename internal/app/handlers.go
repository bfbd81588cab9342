package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
	"github.com/bobmcallan/navcast/internal/models"
)

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("navcast\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

func handleListFunds(funds interfaces.FundService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatFundList(funds.ListFunds())), nil
	}
}

func handleEstimateFund(funds interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("fund_code")
		if err != nil || strings.TrimSpace(code) == "" {
			return errorResult("Error: fund_code parameter is required"), nil
		}

		var snap *models.PortfolioSnapshot
		if request.GetBool("cached", false) {
			snap, err = funds.CachedEstimate(ctx, code)
		} else {
			snap, err = funds.Estimate(ctx, code)
		}
		if err != nil {
			logger.Warn().Err(err).Str("fund", code).Msg("estimate_fund failed")
			return errorResult(fmt.Sprintf("Estimation error: %v", err)), nil
		}

		fund, _ := funds.GetFund(code)
		return textResult(formatSnapshot(fund, snap)), nil
	}
}

func handleGetManualPrice(funds interfaces.FundService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("fund_code")
		if err != nil || strings.TrimSpace(code) == "" {
			return errorResult("Error: fund_code parameter is required"), nil
		}

		o, err := funds.GetManualPrice(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrOverrideNotFound) {
				return textResult(fmt.Sprintf("No manual price set for %s", strings.ToUpper(code))), nil
			}
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("%s manual price: %s (%s)", o.FundCode, common.FormatPrice(o.Value), o.Date)), nil
	}
}

func handleSetManualPrice(funds interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("fund_code")
		if err != nil || strings.TrimSpace(code) == "" {
			return errorResult("Error: fund_code parameter is required"), nil
		}
		value, err := request.RequireFloat("price")
		if err != nil {
			return errorResult("Error: price parameter is required"), nil
		}
		date := request.GetString("date", "")

		o, err := funds.SetManualPrice(ctx, code, value, date)
		if err != nil {
			logger.Warn().Err(err).Str("fund", code).Msg("set_manual_price failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("Manual price for %s set to %s (%s)", o.FundCode, common.FormatPrice(o.Value), o.Date)), nil
	}
}

func handleClearManualPrice(funds interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := request.RequireString("fund_code")
		if err != nil || strings.TrimSpace(code) == "" {
			return errorResult("Error: fund_code parameter is required"), nil
		}
		if err := funds.ClearManualPrice(ctx, code); err != nil {
			logger.Warn().Err(err).Str("fund", code).Msg("clear_manual_price failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("Manual price for %s cleared", strings.ToUpper(code))), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
