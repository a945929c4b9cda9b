package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationsFixture(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable([]string{ColApplicant, ColStates, ColProposed})
	rows := [][]string{
		{"City of Columbus", "Ohio", "500000"},
		{"Tri-State Alliance", "Ohio, New York", "1250000"},
		{"Hudson Valley Coalition", "New York", "750000"},
		{"Great Lakes Partnership", "Michigan, Ohio, Indiana", "2000000"},
		{"Desert Air Project", "New Mexico", "300000"},
	}
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestFilterEqual(t *testing.T) {
	tbl := applicationsFixture(t)

	got := FilterEqual(tbl, ColStates, "New York")
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "Hudson Valley Coalition", got.Cell(0, ColApplicant))

	assert.Zero(t, FilterEqual(tbl, ColStates, "Narnia").Len())
	assert.Zero(t, FilterEqual(tbl, "No Such Column", "Ohio").Len())
}

func TestFilterListContains(t *testing.T) {
	tbl := applicationsFixture(t)

	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "multi-state rows match each listed state",
			value: "Ohio",
			want:  []string{"City of Columbus", "Tri-State Alliance", "Great Lakes Partnership"},
		},
		{
			name:  "second element of a pair matches",
			value: "New York",
			want:  []string{"Tri-State Alliance", "Hudson Valley Coalition"},
		},
		{
			// "New Mexico" contains "New" as a substring but not as a
			// list element.
			name:  "substring of an element does not match",
			value: "New",
			want:  nil,
		},
		{
			name:  "york alone does not match new york",
			value: "York",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterListContains(tbl, ColStates, tt.value, StateDelimiter)
			var names []string
			for i := range got.Rows {
				names = append(names, got.Cell(i, ColApplicant))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	tbl := applicationsFixture(t)
	before := tbl.Clone()

	out := FilterListContains(tbl, ColStates, "Ohio", StateDelimiter)
	require.NotZero(t, out.Len())
	out.Rows[0][0] = "changed"

	assert.Equal(t, before.Rows, tbl.Rows)
}

func TestUnique(t *testing.T) {
	tbl := NewTable([]string{ColPollutant})
	for _, v := range []string{"O3", "CO", "O3", "", "PM2.5", "CO"} {
		require.NoError(t, tbl.AppendRow([]string{v}))
	}

	assert.Equal(t, []string{"CO", "O3", "PM2.5"}, Unique(tbl, ColPollutant))
	assert.Nil(t, Unique(tbl, "No Such Column"))
}

func TestUniqueElements(t *testing.T) {
	tbl := applicationsFixture(t)

	got := UniqueElements(tbl, ColStates, StateDelimiter)
	assert.Equal(t, []string{"Indiana", "Michigan", "New Mexico", "New York", "Ohio"}, got)
}
