package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Frame {
	f := New([]string{"id", "region"})
	f.Rows = []Row{
		{"id": 1, "region": "EU"},
		{"id": 2, "region": "US"},
	}

	return f
}

func TestSelectProjectsDeclaredColumns(t *testing.T) {
	f := sample()
	got := f.Select([]string{"id"})

	assert.Equal(t, []string{"id"}, got.Columns)
	assert.Len(t, got.Rows, 2)
	assert.Equal(t, 1, got.Rows[0]["id"])
	_, hasRegion := got.Rows[0]["region"]
	assert.False(t, hasRegion)
}

func TestDropColumnRemovesFromEveryRow(t *testing.T) {
	f := sample()
	got := f.DropColumn("region")

	assert.Equal(t, []string{"id"}, got.Columns)
	for _, r := range got.Rows {
		_, ok := r["region"]
		assert.False(t, ok)
	}
}

func TestWithLiteralColumnSetsSameValueEverywhere(t *testing.T) {
	f := sample()
	got := f.WithLiteralColumn("country", "IN")

	for _, r := range got.Rows {
		assert.Equal(t, "IN", r["country"])
	}
}

func TestConcatUnionsColumnsAndAppendsRows(t *testing.T) {
	a := sample()
	b := New([]string{"id", "country"})
	b.Rows = []Row{{"id": 3, "country": "US"}}

	out := Concat(a, b)
	assert.Len(t, out.Rows, 3)
	assert.ElementsMatch(t, []string{"id", "region", "country"}, out.Columns)
}

func TestFilterKeepsMatchingRowsOnly(t *testing.T) {
	f := sample()
	got := f.Filter(func(r Row) bool { return r["region"] == "EU" })

	require.Len(t, got.Rows, 1)
	assert.Equal(t, 1, got.Rows[0]["id"])
}

func TestJoinMismatchedKeyCardinalityErrors(t *testing.T) {
	a := sample()
	b := sample()

	_, err := Join(a, b, "inner", []string{"id", "region"}, []string{"id"})
	require.Error(t, err)
}

func TestJoinInnerMatchesOnKey(t *testing.T) {
	left := New([]string{"id", "name"})
	left.Rows = []Row{{"id": 1, "name": "A"}, {"id": 2, "name": "B"}}

	right := New([]string{"id", "amount"})
	right.Rows = []Row{{"id": 1, "amount": 100}}

	out, err := Join(left, right, "inner", []string{"id"}, []string{"id"})
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "A", out.Rows[0]["name"])
	assert.Equal(t, 100, out.Rows[0]["amount"])
}

func TestJoinLeftKeepsUnmatchedLeftRows(t *testing.T) {
	left := New([]string{"id", "name"})
	left.Rows = []Row{{"id": 1, "name": "A"}, {"id": 2, "name": "B"}}

	right := New([]string{"id", "amount"})
	right.Rows = []Row{{"id": 1, "amount": 100}}

	out, err := Join(left, right, "left", []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Len(t, out.Rows, 2)
}
