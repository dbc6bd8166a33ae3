package prefstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/internal/domain"
	"vantage/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "preferences.json"))
	require.NoError(t, err)
	return store
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.LastDir)
	assert.True(t, doc.Global.IsEmpty())
	assert.Empty(t, doc.Directories)
}

func TestSetDirectoryPreferencesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grid := domain.ViewGrid
	err := store.SetDirectoryPreferences(ctx, "/home/user/Pictures", domain.PartialPreferences{ViewMode: &grid})
	require.NoError(t, err)

	partial, err := store.DirectoryPreferences(ctx, "/home/user/Pictures")
	require.NoError(t, err)
	require.NotNil(t, partial.ViewMode)
	assert.Equal(t, domain.ViewGrid, *partial.ViewMode)
	assert.Nil(t, partial.SortBy)
}

func TestSetDirectoryPreferencesMerges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grid := domain.ViewGrid
	require.NoError(t, store.SetDirectoryPreferences(ctx, "/data", domain.PartialPreferences{ViewMode: &grid}))

	desc := domain.SortDesc
	require.NoError(t, store.SetDirectoryPreferences(ctx, "/data", domain.PartialPreferences{SortOrder: &desc}))

	partial, err := store.DirectoryPreferences(ctx, "/data")
	require.NoError(t, err)
	require.NotNil(t, partial.ViewMode)
	assert.Equal(t, domain.ViewGrid, *partial.ViewMode)
	require.NotNil(t, partial.SortOrder)
	assert.Equal(t, domain.SortDesc, *partial.SortOrder)
}

func TestDirectoryKeysAreNormalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hidden := true
	require.NoError(t, store.SetDirectoryPreferences(ctx, `C:\Users\demo\`, domain.PartialPreferences{ShowHidden: &hidden}))

	partial, err := store.DirectoryPreferences(ctx, "C:/Users/demo")
	require.NoError(t, err)
	require.NotNil(t, partial.ShowHidden)
	assert.True(t, *partial.ShowHidden)
}

func TestSaveMergesGlobalAndLastDir(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	size := 128
	require.NoError(t, store.Save(ctx, &ports.PreferenceDocument{
		Global:  domain.PartialPreferences{GridSize: &size},
		LastDir: "/home/user",
	}))

	// A later save without lastDir must not erase it.
	sortBy := domain.SortBySize
	require.NoError(t, store.Save(ctx, &ports.PreferenceDocument{
		Global: domain.PartialPreferences{SortBy: &sortBy},
	}))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/home/user", doc.LastDir)
	require.NotNil(t, doc.Global.GridSize)
	assert.Equal(t, 128, *doc.Global.GridSize)
	require.NotNil(t, doc.Global.SortBy)
	assert.Equal(t, domain.SortBySize, *doc.Global.SortBy)
}

func TestSetLastDir(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLastDir(ctx, "/srv/media/"))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/srv/media", doc.LastDir)
}

func TestWritePreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.json")
	seed := `{"windowGeometry":{"w":1200,"h":800},"globalPreferences":{"viewMode":"list"}}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	store, err := New(path)
	require.NoError(t, err)

	desc := domain.SortDesc
	require.NoError(t, store.SetDirectoryPreferences(context.Background(), "/tmp", domain.PartialPreferences{SortOrder: &desc}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "windowGeometry")
	assert.JSONEq(t, `{"w":1200,"h":800}`, string(raw["windowGeometry"]))
	assert.Contains(t, raw, "globalPreferences")
	assert.JSONEq(t, `{"viewMode":"list"}`, string(raw["globalPreferences"]))
}

func TestConcurrentReadersNeverSeePartialWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	writer, err := New(path)
	require.NoError(t, err)
	reader, err := New(path)
	require.NoError(t, err)

	ctx := context.Background()
	hidden := true
	require.NoError(t, writer.SetDirectoryPreferences(ctx, "/data", domain.PartialPreferences{ShowHidden: &hidden}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			size := 64 + i
			if err := writer.SetDirectoryPreferences(ctx, "/data", domain.PartialPreferences{GridSize: &size}); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	// Separate store instance, so only the file lock serializes against
	// the writer's truncate-then-write.
	for i := 0; i < 50; i++ {
		doc, err := reader.Load(ctx)
		require.NoError(t, err)
		partial := doc.Directories["/data"]
		require.NotNil(t, partial.ShowHidden)
		assert.True(t, *partial.ShowHidden)
	}
	<-done
}

func TestDefaultPathSeam(t *testing.T) {
	dir := t.TempDir()
	original := prefsPathFunc
	prefsPathFunc = func() (string, error) {
		return filepath.Join(dir, "preferences.json"), nil
	}
	defer func() { prefsPathFunc = original }()

	store, err := New("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "preferences.json"), store.Path())
}
