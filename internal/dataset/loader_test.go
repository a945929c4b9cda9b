package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSVFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoader_Load_LocalFile(t *testing.T) {
	dir := t.TempDir()
	writeCSVFile(t, dir, "budget.csv", "Fiscal Year,Enacted Budget,Workforce\n2000,\"$7,562,446\",18036\n2001,\"$7,832,211\",17558\n")

	loader := NewLoader(nil, nil)
	tbl, err := loader.Load(context.Background(), filepath.Join(dir, "budget.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Fiscal Year", "Enacted Budget", "Workforce"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "$7,562,446", tbl.Cell(0, "Enacted Budget"))
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(nil, nil)
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}

func TestLoader_Load_RemoteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.csv" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "County,Ozone\nAdams,0.071\n")
	}))
	defer srv.Close()

	loader := NewLoader(srv.Client(), nil)

	tbl, err := loader.Load(context.Background(), srv.URL+"/conreport.csv")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Adams", tbl.Cell(0, "County"))

	_, err = loader.Load(context.Background(), srv.URL+"/missing.csv")
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}

func TestLoader_LoadYearRange(t *testing.T) {
	tests := []struct {
		name      string
		years     []int
		first     int
		last      int
		wantRows  int
		wantYears []string
		wantErr   error
	}{
		{
			name:      "partial coverage is not an error",
			years:     []int{2000, 2001, 2002, 2003, 2004, 2005},
			first:     2000,
			last:      2023,
			wantRows:  12,
			wantYears: []string{"2000", "2001", "2002", "2003", "2004", "2005"},
		},
		{
			name:      "gap years are skipped in ascending order",
			years:     []int{2001, 2004},
			first:     2000,
			last:      2005,
			wantRows:  4,
			wantYears: []string{"2001", "2004"},
		},
		{
			name:    "zero files is an explicit error",
			years:   nil,
			first:   2000,
			last:    2023,
			wantErr: ErrDatasetUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, year := range tt.years {
				writeCSVFile(t, dir, fmt.Sprintf("conreport%d.csv", year),
					fmt.Sprintf("County,Ozone\nAdams,0.07%d\nAllen,.\n", year%10))
			}

			loader := NewLoader(nil, nil)
			tbl, err := loader.LoadYearRange(context.Background(), dir, "conreport", tt.first, tt.last)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantRows, tbl.Len())

			// Every row carries its file's year; years ascend and rows
			// keep their in-file order.
			var seen []string
			for i := range tbl.Rows {
				y := tbl.Cell(i, YearColumn)
				if len(seen) == 0 || seen[len(seen)-1] != y {
					seen = append(seen, y)
				}
			}
			assert.Equal(t, tt.wantYears, seen)
			assert.Equal(t, "Adams", tbl.Cell(0, "County"))
			assert.Equal(t, "Allen", tbl.Cell(1, "County"))
		})
	}
}

func TestReadCSV_PadsShortRows(t *testing.T) {
	dir := t.TempDir()
	writeCSVFile(t, dir, "ragged.csv", "A,B,C\n1,2,3\n4,5\n")

	loader := NewLoader(nil, nil)
	tbl, err := loader.Load(context.Background(), filepath.Join(dir, "ragged.csv"))
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	assert.True(t, IsMissing(tbl.Cell(1, "C")))
}
