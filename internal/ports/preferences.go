package ports

import (
	"context"

	"vantage/internal/domain"
)

// PreferenceDocument is the persisted preference shape. Directory keys
// are normalized paths. Adapters must round-trip unknown top-level
// keys (read-merge-write, never overwrite-write).
type PreferenceDocument struct {
	LastDir     string                               `json:"lastDir,omitempty"`
	Global      domain.PartialPreferences            `json:"globalPreferences"`
	Directories map[string]domain.PartialPreferences `json:"directoryPreferences"`
}

// PreferenceChange is an external notification that a directory's
// overlay changed (e.g. another window wrote the document). An empty
// Path signals a global-preferences change.
type PreferenceChange struct {
	Path    string
	Partial domain.PartialPreferences
}

// PreferenceReader loads persisted preferences
type PreferenceReader interface {
	Load(ctx context.Context) (*PreferenceDocument, error)
	DirectoryPreferences(ctx context.Context, path string) (domain.PartialPreferences, error)
}

// PreferenceWriter persists preferences. Writers merge into the stored
// document rather than replacing it.
type PreferenceWriter interface {
	Save(ctx context.Context, doc *PreferenceDocument) error
	SetDirectoryPreferences(ctx context.Context, path string, partial domain.PartialPreferences) error
	SetLastDir(ctx context.Context, path string) error
}

// PreferenceNotifier emits external preference changes
type PreferenceNotifier interface {
	Changes(ctx context.Context) (<-chan PreferenceChange, error)
}

// PreferenceStore is the composite persistence interface
type PreferenceStore interface {
	PreferenceReader
	PreferenceWriter
}
