package domain

// CityOption is one entry of the city selector: a CBSA code with its
// human-readable metro area name.
type CityOption struct {
	CBSA string `json:"cbsa"`
	Name string `json:"name"`
}

// FundingApplication is one grant application row after cleaning. Amount
// is in dollars (the source states thousands; the cleaner scales it).
type FundingApplication struct {
	Applicant string  `json:"applicant"`
	States    string  `json:"states"`
	Amount    float64 `json:"amount"`
}

// AwardRecord is one awarded grant after cleaning.
type AwardRecord struct {
	Region    string  `json:"region"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// BudgetLine is one fiscal year of the EPA budget dataset.
type BudgetLine struct {
	FiscalYear string  `json:"fiscal_year"`
	Enacted    float64 `json:"enacted"`
	Workforce  int     `json:"workforce"`
}

// RankedBar is one bar of a top-N ranking chart.
type RankedBar struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// FundingSummary is the per-selection summary for the applications and
// awards views: the filtered rows, their total, and the top-N ranking.
type FundingSummary struct {
	Total float64     `json:"total"`
	Count int         `json:"count"`
	Top   []RankedBar `json:"top"`
}
