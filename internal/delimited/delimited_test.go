package delimited

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadsEveryCellAsString(t *testing.T) {
	body := "order_id,amount\n1,10.50\n2,7\n"

	f, err := Parse(strings.NewReader(body), ",")
	require.NoError(t, err)

	assert.Equal(t, []string{"order_id", "amount"}, f.Columns)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, "10.50", f.Rows[0]["amount"])
	assert.IsType(t, "", f.Rows[0]["amount"])
}

func TestParseDefaultsToCommaWhenDelimiterEmpty(t *testing.T) {
	f, err := Parse(strings.NewReader("a,b\n1,2\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Columns)
}

func TestParseHandlesPipeDelimiter(t *testing.T) {
	f, err := Parse(strings.NewReader("a|b\n1|2\n"), "|")
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "2", f.Rows[0]["b"])
}

func TestParseEmptyInputReturnsEmptyFrame(t *testing.T) {
	f, err := Parse(strings.NewReader(""), ",")
	require.NoError(t, err)
	assert.Nil(t, f.Columns)
	assert.Len(t, f.Rows, 0)
}

func TestParseShortRowPadsMissingCellsAsEmptyString(t *testing.T) {
	f, err := Parse(strings.NewReader("a,b,c\n1,2\n"), ",")
	require.NoError(t, err)
	assert.Equal(t, "", f.Rows[0]["c"])
}
