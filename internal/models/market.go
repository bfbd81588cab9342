package models

// TefasPriceRow is one day of official fund price history.
type TefasPriceRow struct {
	FundCode string  `json:"fund_code"`
	FundName string  `json:"fund_name"`
	Date     string  `json:"date"`
	Price    float64 `json:"price"` // NaN when the published value could not be parsed
}

// Chart is a short quote series for one symbol.
type Chart struct {
	Symbol        string     `json:"symbol"`
	Currency      string     `json:"currency,omitempty"`
	PreviousClose *float64   `json:"previous_close"`
	Closes        []*float64 `json:"closes"` // nil entries are bars without a trade
}

// LatestClose returns the last non-null close in the series.
func (c *Chart) LatestClose() (float64, bool) {
	if c == nil {
		return 0, false
	}
	for i := len(c.Closes) - 1; i >= 0; i-- {
		if c.Closes[i] != nil {
			return *c.Closes[i], true
		}
	}
	return 0, false
}
