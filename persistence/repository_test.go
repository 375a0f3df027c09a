package persistence

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/hupe1980/rulesynth/blobstore"
	"github.com/hupe1980/rulesynth/model"
	"github.com/hupe1980/rulesynth/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	var logs bytes.Buffer
	repo := NewRepository(store,
		WithCompression(CompressionLZ4),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	set := scenarioSet(t)
	key, err := repo.Save(ctx, "models/churn", set)
	require.NoError(t, err)
	assert.Contains(t, key, "models/churn/")
	assert.Contains(t, key, Extension)
	assert.Contains(t, logs.String(), "rule set saved")

	current, err := repo.Current(ctx, "models/churn")
	require.NoError(t, err)
	assert.Equal(t, key, current)

	got, err := repo.Load(ctx, "models/churn")
	require.NoError(t, err)
	assertSameSet(t, set, got)
}

func TestRepository_Versions(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(blobstore.NewMemoryStore())

	full := scenarioSet(t)
	k1, err := repo.Save(ctx, "rs", full)
	require.NoError(t, err)

	sub := full.Subset([]int{0, 2})
	k2, err := repo.Save(ctx, "rs", sub)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)

	versions, err := repo.Versions(ctx, "rs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{k1, k2}, versions)

	got, err := repo.Load(ctx, "rs")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	old, err := repo.LoadKey(ctx, k1)
	require.NoError(t, err)
	assert.Equal(t, full.Len(), old.Len())

	deleted, err := repo.Prune(ctx, "rs")
	require.NoError(t, err)
	assert.Equal(t, []string{k1}, deleted)

	versions, err = repo.Versions(ctx, "rs")
	require.NoError(t, err)
	assert.Equal(t, []string{k2}, versions)
}

func TestRepository_NestedNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(blobstore.NewMemoryStore())

	_, err := repo.Save(ctx, "a", scenarioSet(t))
	require.NoError(t, err)
	_, err = repo.Save(ctx, "a/b", rule.EmptySet(scenarioSet(t).Label()))
	require.NoError(t, err)

	versions, err := repo.Versions(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(blobstore.NewMemoryStore())

	_, err := repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	for _, name := range []string{"", "/abs", "a/../b", "../up", "trailing/"} {
		_, err := repo.Save(ctx, name, rule.EmptySet(model.Label{}))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad/CURRENT", []byte("bad/x.rset")))
	require.NoError(t, store.Put(ctx, "bad/x.rset", []byte("garbage")))
	_, err = NewRepository(store).Load(ctx, "bad")
	assert.Error(t, err)
}
