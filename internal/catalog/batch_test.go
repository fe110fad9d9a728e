package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBatchIDFormat(t *testing.T) {
	now := time.Date(2025, time.January, 2, 3, 4, 5, 678900000, time.UTC)

	got := NewBatchID(now)

	// YYYYMMDDhhmmssffffff minus the trailing digit: "20250102030405678900"[:-1]
	want := int64(2025010203040567890)
	assert.Equal(t, want, got)
}

func TestNewBatchIDIsMonotonicForAdvancingClock(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Second)

	assert.Less(t, NewBatchID(t1), NewBatchID(t2))
}
