package estimate

// DaysPerYear is the actual/365 day-count basis for fixed-income sleeves.
const DaysPerYear = 365

// DailyPercent converts an annual rate into one day of simple accrual.
// No intraday compounding and no business-day adjustment.
func DailyPercent(annualRatePercent float64) float64 {
	return annualRatePercent / DaysPerYear
}
