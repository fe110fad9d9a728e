package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesEveryTask(t *testing.T) {
	var count int64

	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = Task[int]{Item: i, Run: func(ctx context.Context, item int) error {
			atomic.AddInt64(&count, 1)
			return nil
		}}
	}

	results, err := Run(context.Background(), 3, tasks)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.EqualValues(t, 10, count)
}

func TestRunWaitsForAllBeforeSurfacingFirstError(t *testing.T) {
	var completed int64

	errBoom := errors.New("boom")

	tasks := []Task[int]{
		{Item: 1, Run: func(ctx context.Context, item int) error {
			atomic.AddInt64(&completed, 1)
			return errBoom
		}},
		{Item: 2, Run: func(ctx context.Context, item int) error {
			atomic.AddInt64(&completed, 1)
			return nil
		}},
		{Item: 3, Run: func(ctx context.Context, item int) error {
			atomic.AddInt64(&completed, 1)
			return nil
		}},
	}

	results, err := Run(context.Background(), 1, tasks)
	require.ErrorIs(t, err, errBoom)
	assert.EqualValues(t, 3, completed)
	assert.Len(t, results, 3)
}

func TestRunEmptyTaskListReturnsNil(t *testing.T) {
	results, err := Run[int](context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRunCapsWorkersAtTaskCount(t *testing.T) {
	tasks := []Task[int]{
		{Item: 1, Run: func(ctx context.Context, item int) error { return nil }},
	}

	results, err := Run(context.Background(), 99, tasks)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
