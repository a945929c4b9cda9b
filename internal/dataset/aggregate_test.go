package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	tbl := NewTable([]string{ColRecipient, ColAwarded})
	rows := [][]string{
		{"A", "100.5"},
		{"B", ""},
		{"C", "not a number"},
		{"D", "49.5"},
	}
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}

	assert.InDelta(t, 150.0, Sum(tbl, ColAwarded), 1e-9)
	assert.Zero(t, Sum(tbl, "No Such Column"))
}

func TestCountNonMissing(t *testing.T) {
	tbl := NewTable([]string{ColAwarded})
	for _, v := range []string{"1", "", "3", "  "} {
		require.NoError(t, tbl.AppendRow([]string{v}))
	}
	assert.Equal(t, 2, CountNonMissing(tbl, ColAwarded))
}

func TestTopN(t *testing.T) {
	tbl := NewTable([]string{ColRecipient, ColAwarded})
	for i := 1; i <= 15; i++ {
		require.NoError(t, tbl.AppendRow([]string{
			fmt.Sprintf("Recipient %02d", i),
			fmt.Sprintf("%d", i*1000),
		}))
	}

	got := TopN(tbl, ColAwarded, 10)
	require.Equal(t, 10, got.Len())
	assert.Equal(t, "Recipient 15", got.Cell(0, ColRecipient))
	assert.Equal(t, "Recipient 06", got.Cell(9, ColRecipient))

	// Descending throughout.
	for i := 1; i < got.Len(); i++ {
		prev := Sum(FilterEqual(got, ColRecipient, got.Cell(i-1, ColRecipient)), ColAwarded)
		cur := Sum(FilterEqual(got, ColRecipient, got.Cell(i, ColRecipient)), ColAwarded)
		assert.GreaterOrEqual(t, prev, cur)
	}
}

func TestTopN_StableTiesAndShortInput(t *testing.T) {
	tbl := NewTable([]string{ColRecipient, ColAwarded})
	rows := [][]string{
		{"First Tie", "500"},
		{"Leader", "900"},
		{"Second Tie", "500"},
		{"Skipped", ""},
	}
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}

	got := TopN(tbl, ColAwarded, 10)
	require.Equal(t, 3, got.Len())
	assert.Equal(t, "Leader", got.Cell(0, ColRecipient))
	// Equal amounts keep their source order.
	assert.Equal(t, "First Tie", got.Cell(1, ColRecipient))
	assert.Equal(t, "Second Tie", got.Cell(2, ColRecipient))
}

func TestTopN_DoesNotMutateInput(t *testing.T) {
	tbl := NewTable([]string{ColRecipient, ColAwarded})
	require.NoError(t, tbl.AppendRow([]string{"B", "1"}))
	require.NoError(t, tbl.AppendRow([]string{"A", "2"}))
	before := tbl.Clone()

	out := TopN(tbl, ColAwarded, 1)
	require.Equal(t, 1, out.Len())
	out.Rows[0][0] = "changed"

	assert.Equal(t, before.Rows, tbl.Rows)
}
