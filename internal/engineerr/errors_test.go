package engineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(SourceUnavailable, "sftp list failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, SourceUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfDefaultsToConfiguration(t *testing.T) {
	assert.Equal(t, Configuration, KindOf(errors.New("plain error")))
}

func TestStackTraceIncludesCapturedStack(t *testing.T) {
	err := New(EmptyWork, "no unprocessed files", nil)
	trace := StackTrace(err)

	assert.Contains(t, trace, "no unprocessed files")
	assert.Contains(t, trace, "goroutine")
}

func TestKindStrings(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{Configuration, "configuration"},
		{SourceUnavailable, "source_unavailable"},
		{EmptyWork, "empty_work"},
		{DuplicateWork, "duplicate_work"},
		{CriticalDQM, "critical_dqm"},
		{UnknownFunction, "unknown_function"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.k.String())
	}
}
