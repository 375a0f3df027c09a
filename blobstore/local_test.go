package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "sets/a/1.rset", []byte("one")))
	require.NoError(t, store.Put(ctx, "sets/a/CURRENT", []byte("sets/a/1.rset")))
	require.NoError(t, store.Put(ctx, "sets/b/1.rset", []byte("two")))

	data, err := store.Get(ctx, "sets/a/1.rset")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	// Overwrite
	require.NoError(t, store.Put(ctx, "sets/a/1.rset", []byte("uno")))
	data, err = store.Get(ctx, "sets/a/1.rset")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(data))

	names, err := store.List(ctx, "sets/a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sets/a/1.rset", "sets/a/CURRENT"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Delete(ctx, "sets/b/1.rset"))
	require.NoError(t, store.Delete(ctx, "sets/b/1.rset"))
	_, err = store.Get(ctx, "sets/b/1.rset")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Lifecycle(t *testing.T) {
	testStoreLifecycle(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_EmptyRoot(t *testing.T) {
	store := NewLocalStore(t.TempDir() + "/does-not-exist")
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "x", data))
	data[0] = 'z'

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestIsCurrent(t *testing.T) {
	assert.True(t, IsCurrent("CURRENT"))
	assert.True(t, IsCurrent("sets/a/CURRENT"))
	assert.False(t, IsCurrent("sets/a/NOTCURRENT"))
	assert.False(t, IsCurrent("sets/a/1.rset"))
}
