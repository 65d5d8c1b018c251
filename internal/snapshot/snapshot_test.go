package snapshot

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/vectordb/internal/apperr"
	"github.com/cerplabs/vectordb/internal/store"
)

func populatedRepo(t *testing.T) *store.Repository {
	t.Helper()
	repo := store.NewRepository()
	lib, err := repo.CreateLibrary("lib", "desc", nil)
	require.NoError(t, err)
	doc, err := repo.CreateDocument(lib.ID, "doc", "", nil)
	require.NoError(t, err)
	_, err = repo.CreateChunk(lib.ID, doc.ID, "hello", []float32{1, 2, 3}, nil)
	require.NoError(t, err)
	return repo
}

func TestManager_CreateThenListAndGet(t *testing.T) {
	repo := populatedRepo(t)
	mgr, err := NewManager(t.TempDir(), repo, nil)
	require.NoError(t, err)

	info, err := mgr.Create("nightly")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "nightly", info.Name)
	assert.Positive(t, info.SizeBytes)

	list, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.ID, list[0].ID)
	assert.Equal(t, "nightly", list[0].Name)

	data, err := mgr.Get(info.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"format_version\": 1")
	assert.Contains(t, string(data), "\"name\": \"nightly\"")
}

func TestManager_CreateRejectsDuplicateName(t *testing.T) {
	repo := populatedRepo(t)
	mgr, err := NewManager(t.TempDir(), repo, nil)
	require.NoError(t, err)

	_, err = mgr.Create("nightly")
	require.NoError(t, err)

	_, err = mgr.Create("nightly")
	assert.True(t, apperr.Is(err, apperr.AlreadyExists))
}

func TestManager_GetMissingSnapshotReturnsNotFound(t *testing.T) {
	repo := store.NewRepository()
	mgr, err := NewManager(t.TempDir(), repo, nil)
	require.NoError(t, err)

	_, err = mgr.Get("does-not-exist")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestManager_DeleteRemovesSnapshot(t *testing.T) {
	repo := populatedRepo(t)
	mgr, err := NewManager(t.TempDir(), repo, nil)
	require.NoError(t, err)

	info, err := mgr.Create("nightly")
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(info.ID))

	_, err = mgr.Get(info.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestManager_RestoreReplacesRepositoryContents(t *testing.T) {
	repo := populatedRepo(t)
	var invalidated bool
	mgr, err := NewManager(t.TempDir(), repo, func() { invalidated = true })
	require.NoError(t, err)

	info, err := mgr.Create("nightly")
	require.NoError(t, err)

	// Mutate the live repo after the snapshot was taken.
	_, err = repo.CreateLibrary("extra", "", nil)
	require.NoError(t, err)
	require.Len(t, repo.ListLibraries(), 2)

	require.NoError(t, mgr.Restore(info.ID))
	assert.True(t, invalidated)

	libs := repo.ListLibraries()
	require.Len(t, libs, 1)
	assert.Equal(t, "lib", libs[0].Name)
}

func TestManager_RestoreRejectsUnknownFormatVersion(t *testing.T) {
	repo := store.NewRepository()
	mgr, err := NewManager(t.TempDir(), repo, nil)
	require.NoError(t, err)

	info, err := mgr.Create("nightly")
	require.NoError(t, err)

	// Corrupt the snapshot's format_version directly on disk.
	path := mgr.pathFor(info.ID)
	corrupted := []byte(`{"format_version": 999, "created_at": "2024-01-01T00:00:00Z", "libraries": []}`)
	require.NoError(t, os.WriteFile(path, corrupted, 0o644))

	err = mgr.Restore(info.ID)
	assert.True(t, apperr.Is(err, apperr.SnapshotCorrupt))
}
