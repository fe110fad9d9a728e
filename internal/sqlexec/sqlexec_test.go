package sqlexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
)

func sample() *frame.Frame {
	f := frame.New([]string{"id", "region", "amount"})
	f.Rows = []frame.Row{
		{"id": "1", "region": "east", "amount": "12.50"},
		{"id": "2", "region": "west", "amount": "3"},
		{"id": "3", "region": "east", "amount": "100"},
	}

	return f
}

func TestFilterRowsAppliesPredicate(t *testing.T) {
	out, err := FilterRows(sample(), `"region" = 'east'`)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "1", out.Rows[0]["id"])
	assert.Equal(t, "3", out.Rows[1]["id"])
}

func TestFilterRowsEmptyPredicateIsNoOp(t *testing.T) {
	f := sample()

	out, err := FilterRows(f, "")
	require.NoError(t, err)
	assert.Equal(t, f, out)
}

func TestFilterRowsNumericCast(t *testing.T) {
	out, err := FilterRows(sample(), `CAST("amount" AS REAL) > 10`)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
}
