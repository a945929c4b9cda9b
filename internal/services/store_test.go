package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqdash/internal/dataset"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// writeAllFixtures lays down a small copy of every registered dataset.
func writeAllFixtures(t *testing.T, dir string) {
	t.Helper()

	writeFixture(t, dir, "airqualitybycity2000-2023.csv",
		`CBSA,Core Based Statistical Area,Pollutant,Trend Statistic,2000,2001,2002
16980,"Chicago-Naperville-Elgin, IL-IN-WI",CO,2nd Max,0.8,0.7,0.6
,,O3,4th Max,0.08,0.07,ND
35620,"New York-Newark-Jersey City, NY-NJ-PA",CO,2nd Max,1.1,1.0,0.9
`)

	writeFixture(t, dir, "conreport2000.csv",
		`County Code,County,CO,Ozone
17031,Cook,0.5,0.07
36061,New York,.,0.08
`)
	writeFixture(t, dir, "conreport2001.csv",
		`County Code,County,CO,Ozone
17031,Cook,0.4,0.06
`)
	writeFixture(t, dir, "conreport2002.csv",
		`County Code,County,CO,Ozone
17031,Cook,0.3,0.05
`)

	writeFixture(t, dir, "airqualityapplications2024.csv",
		`Primary Applicant,Project State(s),Proposed EPA Funding
Great Lakes Partnership,"Michigan, Ohio, Indiana","$1,200.50"
Tri-State Alliance,"Ohio, New York",$800
Desert Air Project,New Mexico,$450.25
`)

	writeFixture(t, dir, "AirQualityDirectAwards2022.csv",
		`EPA Region,Grant Recipient,Amount Awarded
Region 5,City of Chicago,"$2,000"
Region 5,Cook County,"$1,500"
Region 9,Maricopa County,$900
`)

	writeFixture(t, dir, "EPAbudget.csv",
		`Fiscal Year,Enacted Budget,Workforce
FY 2021,"$9,237,153","14,026"
FY 2022,"$9,561,483","14,581"
`)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	writeAllFixtures(t, dir)

	loader := dataset.NewLoader(nil, slog.Default())
	store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: dir}, nil, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func TestStore_LoadAndGet(t *testing.T) {
	store := newTestStore(t)

	table, err := store.Get(dataset.CityTrends)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	// Forward fill resolved the continuation row
	assert.Equal(t, "16980", table.Cell(1, dataset.ColCBSA))

	county, err := store.Get(dataset.CountyReadings)
	require.NoError(t, err)
	assert.Equal(t, 4, county.Len())
	// Placeholder became the missing marker
	assert.Equal(t, dataset.Missing, county.Cell(1, "CO"))

	assert.True(t, store.Ready())
	assert.False(t, store.LoadedAt().IsZero())
}

func TestStore_GetBeforeLoad(t *testing.T) {
	loader := dataset.NewLoader(nil, slog.Default())
	store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: t.TempDir()}, nil, slog.Default())
	require.NoError(t, err)

	_, err = store.Get(dataset.Budget)
	assert.ErrorIs(t, err, dataset.ErrDatasetUnavailable)
	assert.False(t, store.Ready())
}

func TestStore_UnknownDataset(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("no_such_dataset")
	assert.ErrorIs(t, err, ErrUnknownDataset)

	_, err = store.Entry("no_such_dataset")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestStore_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeAllFixtures(t, dir)
	// Remove the budget source so exactly one dataset fails
	require.NoError(t, os.Remove(filepath.Join(dir, "EPAbudget.csv")))

	loader := dataset.NewLoader(nil, slog.Default())
	store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: dir}, nil, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	// The failed dataset answers with its load error
	_, err = store.Get(dataset.Budget)
	assert.ErrorIs(t, err, dataset.ErrDatasetUnavailable)

	// The others keep serving
	_, err = store.Get(dataset.Awards)
	assert.NoError(t, err)

	status := store.Status()
	assert.False(t, status[dataset.Budget].Loaded)
	assert.NotEmpty(t, status[dataset.Budget].Error)
	assert.True(t, status[dataset.Awards].Loaded)
	assert.False(t, store.Ready())
}

func TestStore_MalformedCurrencyAbortsDataset(t *testing.T) {
	dir := t.TempDir()
	writeAllFixtures(t, dir)
	writeFixture(t, dir, "EPAbudget.csv",
		`Fiscal Year,Enacted Budget,Workforce
FY 2021,not-a-number,14026
`)

	loader := dataset.NewLoader(nil, slog.Default())
	store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: dir}, nil, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	_, err = store.Get(dataset.Budget)
	var malformed *dataset.MalformedCurrencyError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, dataset.ColEnacted, malformed.Column)
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeAllFixtures(t, dir)

	loader := dataset.NewLoader(nil, slog.Default())
	store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: dir}, nil, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	before, err := store.Get(dataset.Budget)
	require.NoError(t, err)
	require.Equal(t, 2, before.Len())

	writeFixture(t, dir, "EPAbudget.csv",
		`Fiscal Year,Enacted Budget,Workforce
FY 2021,"$9,237,153","14,026"
FY 2022,"$9,561,483","14,581"
FY 2023,"$10,135,000","14,844"
`)
	require.NoError(t, store.Reload(context.Background()))

	after, err := store.Get(dataset.Budget)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Len())

	// The old table is untouched by the swap
	assert.Equal(t, 2, before.Len())
}

func TestNewStore_InvalidRegistry(t *testing.T) {
	loader := dataset.NewLoader(nil, slog.Default())
	bad := []dataset.Entry{{Name: "broken"}} // neither Source nor YearPrefix

	_, err := NewStore(loader, bad, StoreConfig{DatasetsDir: t.TempDir()}, nil, slog.Default())
	assert.Error(t, err)
}

func TestStore_ResolveSource(t *testing.T) {
	loader := dataset.NewLoader(nil, slog.Default())

	t.Run("local directory", func(t *testing.T) {
		store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{DatasetsDir: "/data/datasets"}, nil, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/data/datasets", "EPAbudget.csv"), store.resolveSource("EPAbudget.csv"))
	})

	t.Run("base URL", func(t *testing.T) {
		store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{BaseURL: "https://example.com/data/"}, nil, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/data/EPAbudget.csv", store.resolveSource("EPAbudget.csv"))
	})

	t.Run("absolute URL passes through", func(t *testing.T) {
		store, err := NewStore(loader, dataset.DefaultRegistry(), StoreConfig{BaseURL: "https://example.com/data/"}, nil, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, "https://other.example.com/x.csv", store.resolveSource("https://other.example.com/x.csv"))
	})
}
