package ports

import "context"

// IconCache is a persistent (path, size) -> data URL cache that
// survives restarts. Lookup misses are ("", false, nil).
type IconCache interface {
	GetIcon(ctx context.Context, path string, size int) (dataURL string, ok bool, err error)
	PutIcon(ctx context.Context, path string, size int, dataURL string) error
	Close() error
}
