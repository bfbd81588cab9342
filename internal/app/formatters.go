package app

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/models"
)

// formatFundList formats configured funds as a markdown table
func formatFundList(funds []models.FundConfig) string {
	if len(funds) == 0 {
		return "No funds configured."
	}

	var sb strings.Builder
	sb.WriteString("| Code | Name | Holdings | Fixed | Total Weight |\n")
	sb.WriteString("|------|------|----------|-------|--------------|\n")
	for _, f := range funds {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
			f.Code, f.Name, len(f.Holdings), len(f.Fixed), common.FormatLocale(f.TotalWeight, 2)))
	}
	return sb.String()
}

// formatSnapshot formats an estimation snapshot as markdown
func formatSnapshot(fund *models.FundConfig, snap *models.PortfolioSnapshot) string {
	var sb strings.Builder

	title := snap.FundCode
	if fund != nil && fund.Name != "" {
		title = fmt.Sprintf("%s (%s)", snap.FundCode, fund.Name)
	}
	sb.WriteString(fmt.Sprintf("# Estimate: %s\n\n", title))

	if snap.OfficialPrice != nil {
		label := "Official Price"
		if snap.OfficialPrice.Source == models.PriceSourceManual {
			label = "Manual Price"
		}
		sb.WriteString(fmt.Sprintf("**%s:** %s (%s)\n", label,
			common.FormatPrice(snap.OfficialPrice.Value), snap.OfficialPrice.AsOfDate))
	} else {
		sb.WriteString("**Base Price:** not found, set a manual price to enable the estimate\n")
	}
	sb.WriteString(fmt.Sprintf("**Change:** %s\n", common.FormatSignedPct(snap.TotalWeightedPercent)))
	if snap.EstimatedPrice != nil {
		sb.WriteString(fmt.Sprintf("**Estimated Price:** %s\n", common.FormatPrice(*snap.EstimatedPrice)))
	} else {
		sb.WriteString("**Estimated Price:** -\n")
	}
	sb.WriteString(fmt.Sprintf("**Computed:** %s\n\n", snap.ComputedAt.Format("2006-01-02 15:04:05")))

	sb.WriteString("| Holding | Weight | Change | Impact |\n")
	sb.WriteString("|---------|--------|--------|--------|\n")
	for _, it := range snap.Items {
		label := it.Label
		if it.IsFixed {
			label += " (fixed)"
		}
		if it.Degraded {
			label += " ⚠"
		}
		sb.WriteString(fmt.Sprintf("| %s | %%%s | %s | %s |\n",
			label,
			common.FormatLocale(it.Weight, 2),
			common.FormatSignedPct(it.PercentChange),
			common.FormatSignedPct(it.WeightedImpact),
		))
	}

	if len(snap.Warnings) > 0 {
		sb.WriteString("\n**Warnings:**\n")
		for _, w := range snap.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return sb.String()
}
