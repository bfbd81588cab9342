package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the navcast server version and status. Use this to verify connectivity."),
	)
}

func createListFundsTool() mcp.Tool {
	return mcp.NewTool("list_funds",
		mcp.WithDescription("List the configured funds with their holdings count and total weight."),
	)
}

func createEstimateFundTool() mcp.Tool {
	return mcp.NewTool("estimate_fund",
		mcp.WithDescription("Run an intraday NAV estimation for a fund. Returns the base price, every holding's move and weighted impact, and the estimated price."),
		mcp.WithString("fund_code",
			mcp.Required(),
			mcp.Description("TEFAS fund code (e.g., 'TLY', 'DFI')"),
		),
		mcp.WithBoolean("cached",
			mcp.Description("Serve the stored estimate while it is under five minutes old instead of running a new cycle (default: false)"),
		),
	)
}

func createGetManualPriceTool() mcp.Tool {
	return mcp.NewTool("get_manual_price",
		mcp.WithDescription("Show the manual base price stored for a fund, if any."),
		mcp.WithString("fund_code",
			mcp.Required(),
			mcp.Description("TEFAS fund code"),
		),
	)
}

func createSetManualPriceTool() mcp.Tool {
	return mcp.NewTool("set_manual_price",
		mcp.WithDescription("Set a manual base price used when no official price is published within the scan window."),
		mcp.WithString("fund_code",
			mcp.Required(),
			mcp.Description("TEFAS fund code"),
		),
		mcp.WithNumber("price",
			mcp.Required(),
			mcp.Description("Base price, must be greater than zero"),
		),
		mcp.WithString("date",
			mcp.Description("Label for the price date (default: today followed by '(Manuel)')"),
		),
	)
}

func createClearManualPriceTool() mcp.Tool {
	return mcp.NewTool("clear_manual_price",
		mcp.WithDescription("Remove the manual base price of a fund."),
		mcp.WithString("fund_code",
			mcp.Required(),
			mcp.Description("TEFAS fund code"),
		),
	)
}
