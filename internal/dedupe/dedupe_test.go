package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSeedsFromInitialMembership(t *testing.T) {
	s := New(map[string]bool{"s3a://bucket/a.csv": true, "s3a://bucket/b.csv": false})

	assert.True(t, s.Contains("s3a://bucket/a.csv"))
	assert.False(t, s.Contains("s3a://bucket/b.csv"))
	assert.Equal(t, 1, s.Len())
}

func TestAddMarksLocationAsSucceeded(t *testing.T) {
	s := New(nil)

	assert.False(t, s.Contains("s3a://bucket/c.csv"))

	s.Add("s3a://bucket/c.csv")

	assert.True(t, s.Contains("s3a://bucket/c.csv"))
	assert.Equal(t, 1, s.Len())
}

func TestSetIsSafeForConcurrentUse(t *testing.T) {
	s := New(nil)

	done := make(chan struct{})

	for i := 0; i < 50; i++ {
		go func(i int) {
			s.Add("loc")
			_ = s.Contains("loc")
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < 50; i++ {
		<-done
	}

	assert.True(t, s.Contains("loc"))
}
