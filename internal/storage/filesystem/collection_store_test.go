package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/workbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *CollectionStore {
	t.Helper()
	store, err := NewCollectionStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewCollectionStore(t *testing.T) {
	t.Run("creates collections directory if not exists", func(t *testing.T) {
		collectionsDir := filepath.Join(t.TempDir(), "collections")

		store, err := NewCollectionStore(collectionsDir)
		require.NoError(t, err)
		assert.Equal(t, collectionsDir, store.BasePath())

		info, err := os.Stat(collectionsDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestCollectionStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing user loads empty", func(t *testing.T) {
		store := newTestStore(t)
		collections, err := store.LoadCollections(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, collections)
	})

	t.Run("round trips a tree", func(t *testing.T) {
		store := newTestStore(t)

		api := core.NewCollection("API")
		sub := core.NewCollection("Users")
		sub.AddRequest(core.NewRequestDefinition("List", "GET", "https://api.example.com/users"))
		api.AddCollection(sub)

		require.NoError(t, store.SaveCollections(ctx, "alice", []*core.Collection{api}))

		_, err := os.Stat(filepath.Join(store.BasePath(), "alice.yaml"))
		require.NoError(t, err)

		loaded, err := store.LoadCollections(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, api.ID(), loaded[0].ID())
		require.Len(t, loaded[0].Collections(), 1)
		assert.Equal(t, "List", loaded[0].Collections()[0].Requests()[0].Name())
	})

	t.Run("overwrites and leaves no temp files", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveCollections(ctx, "bob", []*core.Collection{core.NewCollection("One")}))
		require.NoError(t, store.SaveCollections(ctx, "bob", []*core.Collection{core.NewCollection("Two")}))

		loaded, err := store.LoadCollections(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "Two", loaded[0].Name())

		entries, err := os.ReadDir(store.BasePath())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("users are isolated", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveCollections(ctx, "alice", []*core.Collection{core.NewCollection("A")}))
		require.NoError(t, store.SaveCollections(ctx, "bob", nil))

		loaded, err := store.LoadCollections(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, loaded)

		users, err := store.Users(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, users)
	})

	t.Run("corrupt file", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, os.WriteFile(filepath.Join(store.BasePath(), "eve.yaml"), []byte("collections: [oops"), 0644))

		_, err := store.LoadCollections(ctx, "eve")
		assert.Error(t, err)
	})

	t.Run("rejects path-like user ids", func(t *testing.T) {
		store := newTestStore(t)
		for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
			_, err := store.LoadCollections(ctx, id)
			assert.Equal(t, core.CodeValidation, core.CodeOf(err), id)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		store := newTestStore(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, store.SaveCollections(canceled, "alice", nil), context.Canceled)
	})
}

func TestCollectionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveCollections(ctx, "alice", nil))

	require.NoError(t, store.Delete(ctx, "alice"))
	assert.ErrorIs(t, store.Delete(ctx, "alice"), core.ErrNotFound)
}
