package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"aqdash/internal/dataset"
	"aqdash/pkg/contracts/domain"
)

// TopApplicants is how many bars the funding ranking charts show.
const TopApplicants = 10

// DashboardService answers selection queries against the store's current
// snapshot. Every method is a pure read; nothing here mutates a table.
type DashboardService struct {
	store  *Store
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service backed by the store.
func NewDashboardService(store *Store, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:  store,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// CityOptions lists the city selector options: each distinct CBSA with its
// metro area name, in first-appearance order.
func (s *DashboardService) CityOptions(ctx context.Context) ([]domain.CityOption, error) {
	table, err := s.store.Get(dataset.CityTrends)
	if err != nil {
		return nil, err
	}

	ci, _ := table.Col(dataset.ColCBSA)
	ni, _ := table.Col(dataset.ColAreaName)

	seen := make(map[string]bool)
	options := make([]domain.CityOption, 0, 64)
	for _, row := range table.Rows {
		cbsa := row[ci]
		if dataset.IsMissing(cbsa) || seen[cbsa] {
			continue
		}
		seen[cbsa] = true
		options = append(options, domain.CityOption{CBSA: cbsa, Name: row[ni]})
	}
	return options, nil
}

// CityTrends returns one trend series per (pollutant, statistic) pair for
// the selected CBSA, plus the metro area name. Cells that fail numeric
// coercion follow the dataset's registered policy.
func (s *DashboardService) CityTrends(ctx context.Context, cbsa string) (string, []domain.TrendSeries, error) {
	table, err := s.store.Get(dataset.CityTrends)
	if err != nil {
		return "", nil, err
	}

	subset := dataset.FilterEqual(table, dataset.ColCBSA, cbsa)
	if subset.Len() == 0 {
		return "", nil, fmt.Errorf("%w: cbsa %s", ErrUnknownSelection, cbsa)
	}

	entry, err := s.store.Entry(dataset.CityTrends)
	if err != nil {
		return "", nil, err
	}

	ni, _ := subset.Col(dataset.ColAreaName)
	pi, _ := subset.Col(dataset.ColPollutant)
	si, _ := subset.Col(dataset.ColStatistic)

	name := subset.Rows[0][ni]
	series := make([]domain.TrendSeries, 0, subset.Len())
	for i, row := range subset.Rows {
		points := dataset.YearSeries(subset, i, dataset.FirstYear, dataset.LastYear, entry.Coerce)
		ts := domain.TrendSeries{
			Label:  strings.TrimSpace(row[pi] + " " + row[si]),
			Points: make([]domain.TrendPoint, 0, len(points)),
		}
		for _, p := range points {
			ts.Points = append(ts.Points, domain.TrendPoint{Year: p.Year, Value: p.Value})
		}
		series = append(series, ts)
	}
	return name, series, nil
}

// CountyOptions lists the distinct county names of the readings dataset.
func (s *DashboardService) CountyOptions(ctx context.Context) ([]string, error) {
	table, err := s.store.Get(dataset.CountyReadings)
	if err != nil {
		return nil, err
	}
	return dataset.Unique(table, dataset.ColCounty), nil
}

// CountyPollutants lists the pollutant columns that have at least one
// reading for the selected county.
func (s *DashboardService) CountyPollutants(ctx context.Context, county string) ([]string, error) {
	table, err := s.store.Get(dataset.CountyReadings)
	if err != nil {
		return nil, err
	}

	subset := dataset.FilterEqual(table, dataset.ColCounty, county)
	if subset.Len() == 0 {
		return nil, fmt.Errorf("%w: county %s", ErrUnknownSelection, county)
	}

	pollutants := make([]string, 0, len(subset.Columns))
	for _, col := range subset.Columns {
		if isCountyMetadataColumn(col) {
			continue
		}
		if dataset.CountNonMissing(subset, col) > 0 {
			pollutants = append(pollutants, col)
		}
	}
	return pollutants, nil
}

// CountySeries builds the year series of one pollutant for one county.
// Fewer than the render threshold of non-missing readings yields
// dataset.ErrInsufficientData, which the transport turns into a "no data"
// body rather than an error status.
func (s *DashboardService) CountySeries(ctx context.Context, county, pollutant string) (*domain.ChartData, error) {
	table, err := s.store.Get(dataset.CountyReadings)
	if err != nil {
		return nil, err
	}

	if _, ok := table.Col(pollutant); !ok || isCountyMetadataColumn(pollutant) {
		return nil, fmt.Errorf("%w: pollutant %s", ErrUnknownSelection, pollutant)
	}

	subset := dataset.FilterEqual(table, dataset.ColCounty, county)
	if subset.Len() == 0 {
		return nil, fmt.Errorf("%w: county %s", ErrUnknownSelection, county)
	}

	points, err := dataset.PairSeries(subset, dataset.YearColumn, pollutant)
	if err != nil {
		return nil, err
	}

	x := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		x[i] = strconv.Itoa(p.Year)
		values[i] = p.Value
	}
	return domain.NewChartData(
		fmt.Sprintf("%s in %s", pollutant, county),
		x,
		domain.Series{Label: pollutant, Values: values},
	)
}

// ApplicationStates lists the distinct states of the multi-value project
// state column, split on the list delimiter.
func (s *DashboardService) ApplicationStates(ctx context.Context) ([]string, error) {
	table, err := s.store.Get(dataset.Applications)
	if err != nil {
		return nil, err
	}
	return dataset.UniqueElements(table, dataset.ColStates, dataset.StateDelimiter), nil
}

// Applications returns the grant applications touching the selected state
// (all of them when state is empty) together with a funding summary.
func (s *DashboardService) Applications(ctx context.Context, state string) ([]domain.FundingApplication, *domain.FundingSummary, error) {
	table, err := s.store.Get(dataset.Applications)
	if err != nil {
		return nil, nil, err
	}

	subset := table
	if state != "" {
		subset = dataset.FilterListContains(table, dataset.ColStates, state, dataset.StateDelimiter)
		if subset.Len() == 0 {
			return nil, nil, fmt.Errorf("%w: state %s", ErrUnknownSelection, state)
		}
	}

	ai, _ := subset.Col(dataset.ColApplicant)
	si, _ := subset.Col(dataset.ColStates)
	fi, _ := subset.Col(dataset.ColProposed)

	rows := make([]domain.FundingApplication, 0, subset.Len())
	for _, row := range subset.Rows {
		rows = append(rows, domain.FundingApplication{
			Applicant: row[ai],
			States:    row[si],
			Amount:    parseAmount(row[fi]),
		})
	}

	summary := &domain.FundingSummary{
		Total: dataset.Sum(subset, dataset.ColProposed),
		Count: subset.Len(),
		Top:   rankedBars(subset, dataset.ColProposed, dataset.ColApplicant),
	}
	return rows, summary, nil
}

// AwardRegions lists the distinct EPA regions of the awards dataset.
func (s *DashboardService) AwardRegions(ctx context.Context) ([]string, error) {
	table, err := s.store.Get(dataset.Awards)
	if err != nil {
		return nil, err
	}
	return dataset.Unique(table, dataset.ColRegion), nil
}

// Awards returns the awarded grants for the selected EPA region (all when
// region is empty) together with a funding summary.
func (s *DashboardService) Awards(ctx context.Context, region string) ([]domain.AwardRecord, *domain.FundingSummary, error) {
	table, err := s.store.Get(dataset.Awards)
	if err != nil {
		return nil, nil, err
	}

	subset := table
	if region != "" {
		subset = dataset.FilterEqual(table, dataset.ColRegion, region)
		if subset.Len() == 0 {
			return nil, nil, fmt.Errorf("%w: region %s", ErrUnknownSelection, region)
		}
	}

	ri, _ := subset.Col(dataset.ColRegion)
	gi, _ := subset.Col(dataset.ColRecipient)
	ai, _ := subset.Col(dataset.ColAwarded)

	rows := make([]domain.AwardRecord, 0, subset.Len())
	for _, row := range subset.Rows {
		rows = append(rows, domain.AwardRecord{
			Region:    row[ri],
			Recipient: row[gi],
			Amount:    parseAmount(row[ai]),
		})
	}

	summary := &domain.FundingSummary{
		Total: dataset.Sum(subset, dataset.ColAwarded),
		Count: subset.Len(),
		Top:   rankedBars(subset, dataset.ColAwarded, dataset.ColRecipient),
	}
	return rows, summary, nil
}

// Budget returns the EPA budget lines plus a chart with the enacted budget
// and workforce series over the fiscal years.
func (s *DashboardService) Budget(ctx context.Context) ([]domain.BudgetLine, *domain.ChartData, error) {
	table, err := s.store.Get(dataset.Budget)
	if err != nil {
		return nil, nil, err
	}

	yi, _ := table.Col(dataset.ColFiscalYear)
	ei, _ := table.Col(dataset.ColEnacted)
	wi, _ := table.Col(dataset.ColWorkforce)

	lines := make([]domain.BudgetLine, 0, table.Len())
	x := make([]string, 0, table.Len())
	enacted := make([]float64, 0, table.Len())
	workforce := make([]float64, 0, table.Len())
	for _, row := range table.Rows {
		// Workforce counts come formatted with thousands separators
		wf, _ := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(row[wi]), ",", ""))
		lines = append(lines, domain.BudgetLine{
			FiscalYear: row[yi],
			Enacted:    parseAmount(row[ei]),
			Workforce:  wf,
		})
		x = append(x, row[yi])
		enacted = append(enacted, parseAmount(row[ei]))
		workforce = append(workforce, float64(wf))
	}

	chart, err := domain.NewChartData(
		"EPA budget and workforce",
		x,
		domain.Series{Label: "Enacted Budget", Values: enacted},
		domain.Series{Label: "Workforce", Values: workforce},
	)
	if err != nil {
		return nil, nil, err
	}
	return lines, chart, nil
}

// FilteredTable returns the stored table for a dataset with the optional
// state or region filter applied. Used by the export endpoints.
func (s *DashboardService) FilteredTable(ctx context.Context, name, state, region string) (*dataset.Table, error) {
	table, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}

	switch {
	case name == dataset.Applications && state != "":
		subset := dataset.FilterListContains(table, dataset.ColStates, state, dataset.StateDelimiter)
		if subset.Len() == 0 {
			return nil, fmt.Errorf("%w: state %s", ErrUnknownSelection, state)
		}
		return subset, nil
	case name == dataset.Awards && region != "":
		subset := dataset.FilterEqual(table, dataset.ColRegion, region)
		if subset.Len() == 0 {
			return nil, fmt.Errorf("%w: region %s", ErrUnknownSelection, region)
		}
		return subset, nil
	}
	return table, nil
}

// isCountyMetadataColumn reports whether a county readings column holds
// row identity rather than pollutant values.
func isCountyMetadataColumn(col string) bool {
	switch col {
	case dataset.ColCounty, dataset.ColCountyCode, dataset.YearColumn:
		return true
	}
	return false
}

// rankedBars builds the top-N ranking of a currency column labeled by
// another column.
func rankedBars(t *dataset.Table, amountCol, labelCol string) []domain.RankedBar {
	top := dataset.TopN(t, amountCol, TopApplicants)

	li, _ := top.Col(labelCol)
	ai, _ := top.Col(amountCol)

	bars := make([]domain.RankedBar, 0, top.Len())
	for _, row := range top.Rows {
		bars = append(bars, domain.RankedBar{
			Label:  row[li],
			Amount: parseAmount(row[ai]),
		})
	}
	return bars
}

// parseAmount reads a cleaned currency cell. The cleaner has already
// normalized these to plain decimal strings; anything else counts as zero.
func parseAmount(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0
	}
	return v
}
