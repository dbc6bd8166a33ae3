package domain

// Location describes the directory a listing was produced for.
type Location struct {
	Path    string `json:"path"`
	CanGoUp bool   `json:"canGoUp"`
}

// Capabilities advertises what the backing provider supports for a
// location.
type Capabilities struct {
	CanRename bool `json:"canRename"`
	CanStream bool `json:"canStream"`
	CanTrash  bool `json:"canTrash"`
	CanWatch  bool `json:"canWatch"`
}

// Listing is a full non-streaming directory read.
type Listing struct {
	Entries      []FileEntry  `json:"entries"`
	Location     Location     `json:"location"`
	Capabilities Capabilities `json:"capabilities"`
}

// StreamInfo is the response to starting a streaming session. The
// session id is caller-generated and echoed back.
type StreamInfo struct {
	SessionID    string       `json:"sessionId"`
	Location     Location     `json:"location"`
	Capabilities Capabilities `json:"capabilities"`
}

// Batch is one chunk of entries pushed for a streaming session.
// Batches must be applied in arrival order; TotalCount is nil when this
// batch carries no estimate, in which case an earlier estimate stands.
type Batch struct {
	SessionID  string      `json:"sessionId"`
	BatchIndex int         `json:"batchIndex"`
	Entries    []FileEntry `json:"entries"`
	IsFinal    bool        `json:"isFinal"`
	TotalCount *int        `json:"totalCount,omitempty"`
}

// TrashResult reports the outcome of moving paths to trash. UndoToken
// is empty when the operation is not reversible; FallbackToPermanent is
// set when no trash location was usable and the caller should confirm a
// permanent delete instead.
type TrashResult struct {
	Trashed             []string `json:"trashed"`
	UndoToken           string   `json:"undoToken,omitempty"`
	FallbackToPermanent bool     `json:"fallbackToPermanent,omitempty"`
}

// DeleteResult reports a permanent delete.
type DeleteResult struct {
	Deleted []string `json:"deleted"`
}

// RestoreResult reports a restore-from-trash. Restored paths are as
// chosen by the backend; collisions may have been renamed, so they are
// not assumed to equal the original paths.
type RestoreResult struct {
	Restored []string `json:"restored"`
}
