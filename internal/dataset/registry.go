package dataset

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Dataset names used across the service. Handlers, the store, and the
// exporter all key on these.
const (
	CityTrends     = "city_trends"
	CountyReadings = "county_readings"
	Applications   = "applications"
	Awards         = "awards"
	Budget         = "budget"
)

// Well-known column names of the source files.
const (
	ColCBSA       = "CBSA"
	ColAreaName   = "Core Based Statistical Area"
	ColPollutant  = "Pollutant"
	ColStatistic  = "Trend Statistic"
	ColCounty     = "County"
	ColCountyCode = "County Code"
	ColStates     = "Project State(s)"
	ColApplicant  = "Primary Applicant"
	ColProposed   = "Proposed EPA Funding"
	ColRegion     = "EPA Region"
	ColRecipient  = "Grant Recipient"
	ColAwarded    = "Amount Awarded"
	ColFiscalYear = "Fiscal Year"
	ColEnacted    = "Enacted Budget"
	ColWorkforce  = "Workforce"
)

// Year coverage of the city and county trend files.
const (
	FirstYear = 2000
	LastYear  = 2023
)

// StateDelimiter separates entries of the multi-value state column.
const StateDelimiter = ","

// Entry describes one registered dataset: where it comes from and how it
// is cleaned. A single configurable pipeline replaces the per-variant tab
// logic of the original dashboards.
type Entry struct {
	Name string `validate:"required"`

	// Source is a file name (resolved against the datasets directory)
	// or an http(s) URL. Exactly one of Source and YearPrefix is set.
	Source string `validate:"required_without=YearPrefix,excluded_with=YearPrefix"`

	// YearPrefix marks a multi-year dataset stored as one file per
	// year: <prefix><year>.csv across [FirstYear, LastYear].
	YearPrefix string `validate:"required_without=Source"`
	FirstYear  int    `validate:"required_with=YearPrefix"`
	LastYear   int    `validate:"required_with=YearPrefix,gtefield=FirstYear"`

	Spec   CleanSpec
	Coerce CoercePolicy
}

var validate = validator.New()

// Validate checks an entry's structural invariants.
func (e Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("dataset %q: %w", e.Name, err)
	}
	for _, cc := range e.Spec.Currency {
		if err := validate.Struct(cc); err != nil {
			return fmt.Errorf("dataset %q currency column: %w", e.Name, err)
		}
	}
	return nil
}

// DefaultRegistry returns the five dashboard datasets with their cleaning
// rules. Funding, award, and budget amounts are stated in thousands of
// dollars, hence the 1000x scale.
func DefaultRegistry() []Entry {
	return []Entry{
		{
			Name:   CityTrends,
			Source: "airqualitybycity2000-2023.csv",
			Spec: CleanSpec{
				ForwardFill: []string{ColCBSA, ColAreaName},
				Required:    []string{ColPollutant, ColStatistic},
			},
			Coerce: CoerceMissing,
		},
		{
			Name:       CountyReadings,
			YearPrefix: "conreport",
			FirstYear:  FirstYear,
			LastYear:   LastYear,
			Spec: CleanSpec{
				Placeholder: ".",
			},
		},
		{
			Name:   Applications,
			Source: "airqualityapplications2024.csv",
			Spec: CleanSpec{
				Currency: []CurrencyColumn{{Name: ColProposed, Scale: 1000}},
			},
		},
		{
			Name:   Awards,
			Source: "AirQualityDirectAwards2022.csv",
			Spec: CleanSpec{
				Currency: []CurrencyColumn{{Name: ColAwarded, Scale: 1000}},
			},
		},
		{
			Name:   Budget,
			Source: "EPAbudget.csv",
			Spec: CleanSpec{
				Currency: []CurrencyColumn{{Name: ColEnacted, Scale: 1000}},
			},
		},
	}
}
