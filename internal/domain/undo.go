package domain

import "time"

// UndoRecord describes how to reverse one completed file operation.
// It is a closed variant: the four implementations below are the only
// ones.
type UndoRecord interface {
	undoRecord()
}

// MovedFile pairs a file's pre-move and post-move locations.
type MovedFile struct {
	OriginalPath string `json:"originalPath"`
	CurrentPath  string `json:"currentPath"`
}

// MoveRecord reverses a move by renaming each file back to its
// original path.
type MoveRecord struct {
	Files []MovedFile `json:"files"`
}

// CopyRecord reverses a copy by trashing the copies; nothing is
// restored.
type CopyRecord struct {
	CopiedPaths []string `json:"copiedPaths"`
}

// RenameRecord reverses a rename.
type RenameRecord struct {
	OriginalPath string `json:"originalPath"`
	NewPath      string `json:"newPath"`
}

// TrashRecord reverses a trash via the backend token. The restored
// paths come from the backend, since restoration can rename on
// collision.
type TrashRecord struct {
	UndoToken    string   `json:"undoToken"`
	TrashedPaths []string `json:"trashedPaths"`
}

func (MoveRecord) undoRecord()   {}
func (CopyRecord) undoRecord()   {}
func (RenameRecord) undoRecord() {}
func (TrashRecord) undoRecord()  {}

// UndoEntry is one ledger slot. Entries expire TTL after CreatedAt;
// expiry is checked at read time, never by a background sweep.
type UndoEntry struct {
	ID          string     `json:"id"`
	Record      UndoRecord `json:"-"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
}
