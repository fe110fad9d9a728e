package pattern

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedToday() time.Time {
	return time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
}

// renderWithDate is a test-local stand-in for internal/namerender's
// elif-chain token replacement, used to exercise the pattern property
// without creating a test-only inter-package dependency.
func renderWithDate(p string, today time.Time) string {
	switch {
	case strings.Contains(p, "YYYYMMDD"):
		return strings.Replace(p, "YYYYMMDD", today.Format("20060102"), 1)
	case strings.Contains(p, "YYYYMM"):
		return strings.Replace(p, "YYYYMM", today.Format("200601"), 1)
	case strings.Contains(p, "YYYY"):
		return strings.Replace(p, "YYYY", today.Format("2006"), 1)
	default:
		return p
	}
}

func TestValidateYYYYMMDDToken(t *testing.T) {
	ok, err := Validate("sales_YYYYMMDD.csv", "sales_20250101.csv", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateRejectsWrongDigitCount(t *testing.T) {
	ok, err := Validate("sales_YYYYMMDD.csv", "sales_202501.csv", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateWildcard(t *testing.T) {
	ok, err := Validate("sales_*.csv", "sales_anything_here.csv", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateYYYYMMToken(t *testing.T) {
	ok, err := Validate("report_YYYYMM.txt", "report_202501.txt", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateCustomRegex(t *testing.T) {
	ok, err := Validate(`^sales_\d+\.csv$`, "sales_123.csv", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidatePatternPropertyAgainstRenderedName(t *testing.T) {
	// Pattern property (spec.md §8): validate_pattern(p, render(p)) must hold
	// for every pattern p containing only supported tokens, at today's date.
	patterns := []string{"sales_YYYYMMDD.csv", "report_YYYYMM.txt", "snapshot_YYYY.json"}
	today := fixedToday()

	for _, p := range patterns {
		rendered := renderWithDate(p, today)
		ok, err := Validate(p, rendered, false)
		require.NoError(t, err)
		assert.True(t, ok, "pattern %q should match its own rendering %q", p, rendered)
	}
}
