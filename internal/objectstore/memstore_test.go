package objectstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorePutGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	require.NoError(t, store.Put(ctx, "dev-data", "input/file.csv", strings.NewReader("a,b\n1,2")))

	rc, err := store.Get(ctx, "dev-data", "input/file.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))
}

func TestMemStoreGetMissingReturnsErrNoSuchObject(t *testing.T) {
	store := NewMemStore()

	_, err := store.Get(context.Background(), "dev-data", "missing.csv")

	assert.ErrorIs(t, err, ErrNoSuchObject)
}

func TestMemStoreListFiltersByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	require.NoError(t, store.Put(ctx, "dev-data", "input/a.csv", strings.NewReader("x")))
	require.NoError(t, store.Put(ctx, "dev-data", "input/b.csv", strings.NewReader("y")))
	require.NoError(t, store.Put(ctx, "dev-data", "other/c.csv", strings.NewReader("z")))

	keys, err := store.List(ctx, "dev-data", "input/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"input/a.csv", "input/b.csv"}, keys)
}
