package ports

import (
	"context"

	"vantage/internal/domain"
)

// DirectoryReader produces full directory listings
type DirectoryReader interface {
	ReadDirectory(ctx context.Context, path string) (*domain.Listing, error)
}

// DirectoryStreamer produces cancellable streaming listings. The
// caller supplies the opaque session id; batches arrive on the returned
// channel in emission order and the channel closes after the final
// batch or cancellation.
type DirectoryStreamer interface {
	StartStream(ctx context.Context, path, sessionID string) (*domain.StreamInfo, <-chan domain.Batch, error)
	CancelStream(ctx context.Context, sessionID string) error
}

// FileMutator renames filesystem objects
type FileMutator interface {
	Rename(ctx context.Context, fromPath, toPath string) error
}

// TrashOperator moves paths to trash, deletes permanently, and restores
type TrashOperator interface {
	Trash(ctx context.Context, paths []string) (*domain.TrashResult, error)
	DeletePermanently(ctx context.Context, paths []string) (*domain.DeleteResult, error)
	UndoTrash(ctx context.Context, token string) (*domain.RestoreResult, error)
}

// IconFetcher resolves an icon for a path at a pixel size, returned as
// a data URL
type IconFetcher interface {
	Icon(ctx context.Context, path string, size int) (string, error)
}

// FileProvider is the composite interface the view store is built
// against
type FileProvider interface {
	DirectoryReader
	DirectoryStreamer
	FileMutator
	TrashOperator
	IconFetcher
}

// ChangeEvent signals that the contents of a watched directory changed
type ChangeEvent struct {
	Path string
}

// DirectoryWatcher emits change events for one watched directory.
// Watching a new directory replaces the previous watch; the channel
// closes when the watch is replaced or the context ends.
type DirectoryWatcher interface {
	WatchDirectory(ctx context.Context, path string) (<-chan ChangeEvent, error)
}
