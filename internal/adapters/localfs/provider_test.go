package localfs

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func TestReadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.pdf"), "pdf")
	writeFile(t, filepath.Join(dir, ".hidden"), "secret")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	writeFile(t, filepath.Join(dir, "sub", "child.txt"), "x")

	provider := New()
	listing, err := provider.ReadDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, domain.NormalizePath(dir), listing.Location.Path)
	assert.True(t, listing.Location.CanGoUp)
	assert.True(t, listing.Capabilities.CanStream)
	assert.True(t, listing.Capabilities.CanTrash)

	byName := make(map[string]domain.FileEntry)
	for _, entry := range listing.Entries {
		byName[entry.Name] = entry
	}
	require.Len(t, byName, 3)

	assert.Equal(t, "pdf", byName["report.pdf"].Extension)
	assert.False(t, byName["report.pdf"].IsDir)
	assert.True(t, byName[".hidden"].IsHidden)

	sub := byName["sub"]
	assert.True(t, sub.IsDir)
	require.NotNil(t, sub.ChildCount)
	assert.Equal(t, 1, *sub.ChildCount)
}

func TestReadDirectoryImageDimensions(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.png"), 8, 6)

	provider := New()
	listing, err := provider.ReadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, listing.Entries, 1)

	entry := listing.Entries[0]
	require.NotNil(t, entry.ImageWidth)
	require.NotNil(t, entry.ImageHeight)
	assert.Equal(t, 8, *entry.ImageWidth)
	assert.Equal(t, 6, *entry.ImageHeight)
}

func TestStartStreamBatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeFile(t, filepath.Join(dir, name), name)
	}

	provider := New(WithBatchSize(2))
	info, batches, err := provider.StartStream(context.Background(), dir, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", info.SessionID)

	var received []domain.Batch
	for batch := range batches {
		received = append(received, batch)
	}
	require.Len(t, received, 3)

	require.NotNil(t, received[0].TotalCount)
	assert.Equal(t, 5, *received[0].TotalCount)

	total := 0
	for i, batch := range received {
		assert.Equal(t, i, batch.BatchIndex)
		assert.Equal(t, "session-1", batch.SessionID)
		total += len(batch.Entries)
	}
	assert.Equal(t, 5, total)
	assert.False(t, received[0].IsFinal)
	assert.True(t, received[2].IsFinal)
}

func TestCancelStreamClosesChannel(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeFile(t, filepath.Join(dir, name), name)
	}

	provider := New(WithBatchSize(1))
	_, batches, err := provider.StartStream(context.Background(), dir, "session-2")
	require.NoError(t, err)

	<-batches
	require.NoError(t, provider.CancelStream(context.Background(), "session-2"))

	done := make(chan struct{})
	go func() {
		for range batches {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch channel did not close after cancel")
	}
}

func TestCancelUnknownSessionIsNoOp(t *testing.T) {
	provider := New()
	assert.NoError(t, provider.CancelStream(context.Background(), "never-started"))
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.txt"), "content")

	provider := New()
	err := provider.Rename(context.Background(), filepath.Join(dir, "old.txt"), filepath.Join(dir, "new.txt"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "new.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "old.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenameTargetExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	provider := New()
	err := provider.Rename(context.Background(), filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestTrashAndUndo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), "doc")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder"), 0755))
	writeFile(t, filepath.Join(dir, "folder", "inner.txt"), "inner")

	provider := New(WithTrashRoot(filepath.Join(t.TempDir(), "trash")))
	ctx := context.Background()

	result, err := provider.Trash(ctx, []string{
		filepath.Join(dir, "doc.txt"),
		filepath.Join(dir, "folder"),
	})
	require.NoError(t, err)
	require.Len(t, result.Trashed, 2)
	require.NotEmpty(t, result.UndoToken)
	assert.False(t, result.FallbackToPermanent)

	_, err = os.Stat(filepath.Join(dir, "doc.txt"))
	assert.True(t, os.IsNotExist(err))

	restore, err := provider.UndoTrash(ctx, result.UndoToken)
	require.NoError(t, err)
	require.Len(t, restore.Restored, 2)

	_, err = os.Stat(filepath.Join(dir, "doc.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "folder", "inner.txt"))
	assert.NoError(t, err)

	// The token is single-use.
	_, err = provider.UndoTrash(ctx, result.UndoToken)
	assert.ErrorIs(t, err, domain.ErrUnknownToken)
}

func TestUndoTrashCollisionRenames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), "original")

	provider := New(WithTrashRoot(filepath.Join(t.TempDir(), "trash")))
	ctx := context.Background()

	result, err := provider.Trash(ctx, []string{filepath.Join(dir, "doc.txt")})
	require.NoError(t, err)

	// Something else takes the original slot before the undo.
	writeFile(t, filepath.Join(dir, "doc.txt"), "newcomer")

	restore, err := provider.UndoTrash(ctx, result.UndoToken)
	require.NoError(t, err)
	require.Len(t, restore.Restored, 1)
	assert.NotEqual(t, domain.NormalizePath(filepath.Join(dir, "doc.txt")), restore.Restored[0])
	assert.Contains(t, restore.Restored[0], "(restored 1)")

	data, err := os.ReadFile(filepath.FromSlash(restore.Restored[0]))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestUndoTrashPartialRestore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	trashRoot := filepath.Join(t.TempDir(), "trash")
	provider := New(WithTrashRoot(trashRoot))
	ctx := context.Background()

	result, err := provider.Trash(ctx, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
	})
	require.NoError(t, err)
	require.Len(t, result.Trashed, 2)

	// One trashed item goes missing before the undo.
	require.NoError(t, os.Remove(filepath.Join(trashRoot, result.UndoToken, "1-b.txt")))

	restore, err := provider.UndoTrash(ctx, result.UndoToken)
	require.Error(t, err)
	require.NotNil(t, restore)
	require.Len(t, restore.Restored, 1)
	assert.Equal(t, domain.NormalizePath(filepath.Join(dir, "a.txt")), restore.Restored[0])

	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.NoError(t, err)

	// The token survives for retrying what is still trashed.
	_, err = provider.UndoTrash(ctx, result.UndoToken)
	assert.NotErrorIs(t, err, domain.ErrUnknownToken)
}

func TestUndoTrashUnknownToken(t *testing.T) {
	provider := New(WithTrashRoot(filepath.Join(t.TempDir(), "trash")))
	_, err := provider.UndoTrash(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrUnknownToken)
}

func TestTrashFallbackWhenRootUnusable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), "doc")

	// A regular file where the trash root should be makes it unusable.
	blocked := filepath.Join(t.TempDir(), "blocked")
	writeFile(t, blocked, "not a directory")

	provider := New(WithTrashRoot(blocked))
	result, err := provider.Trash(context.Background(), []string{filepath.Join(dir, "doc.txt")})
	require.NoError(t, err)
	assert.True(t, result.FallbackToPermanent)
	assert.Empty(t, result.Trashed)

	_, err = os.Stat(filepath.Join(dir, "doc.txt"))
	assert.NoError(t, err)
}

func TestDeletePermanently(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), "doc")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder"), 0755))
	writeFile(t, filepath.Join(dir, "folder", "inner.txt"), "inner")

	provider := New()
	result, err := provider.DeletePermanently(context.Background(), []string{
		filepath.Join(dir, "doc.txt"),
		filepath.Join(dir, "folder"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 2)

	_, err = os.Stat(filepath.Join(dir, "doc.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "folder"))
	assert.True(t, os.IsNotExist(err))
}

func TestIcon(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.png"), 4, 4)
	writeFile(t, filepath.Join(dir, "notes.txt"), "text")

	provider := New()
	ctx := context.Background()

	dataURL, err := provider.Icon(ctx, filepath.Join(dir, "photo.png"), 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	dataURL, err = provider.Icon(ctx, filepath.Join(dir, "notes.txt"), 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/svg+xml;base64,"))

	dataURL, err = provider.Icon(ctx, dir, 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/svg+xml;base64,"))
}

func TestWatchDirectoryEmitsChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := NewWatcher()
	events, err := watcher.WatchDirectory(ctx, dir)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "fresh.txt"), "new")

	select {
	case event := <-events:
		assert.Equal(t, domain.NormalizePath(dir), event.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event received")
	}
}
