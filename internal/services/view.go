package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

// ErrUndoBusy is returned when an undo execution is already in flight.
var ErrUndoBusy = errors.New("an undo is already executing")

const remoteCancelTimeout = 5 * time.Second

// Snapshot is an immutable view of the store for rendering. The store
// never hands out its internal slices.
type Snapshot struct {
	Path               string
	Files              []domain.FileEntry
	Selected           []string
	Preferences        domain.ViewPreferences
	Loading            bool
	StreamingComplete  bool
	TotalCountEstimate *int
	CanGoBack          bool
	CanGoForward       bool
	CanGoUp            bool
	Capabilities       domain.Capabilities
}

// ViewStore is the single source of truth for one directory view. It
// composes navigation history, preference resolution, the streaming
// session lifecycle, reconciliation, and the undo ledger over a
// FileProvider. Each window owns its own instance; there is no shared
// mutable state between stores.
type ViewStore struct {
	provider ports.FileProvider
	prefs    *Resolver
	undo     *UndoLedger

	// navMu serializes session hand-offs (open/cancel sequences) so a
	// new start always cancels the outgoing session first.
	navMu sync.Mutex

	mu             sync.RWMutex
	history        *History
	currentPath    string
	files          []domain.FileEntry
	selection      map[string]bool
	active         *streamSession
	streamComplete bool
	totalCount     *int
	loading        bool
	caps           domain.Capabilities

	watcher     ports.DirectoryWatcher
	watchCancel context.CancelFunc
}

// NewViewStore creates a view store over the given provider.
func NewViewStore(provider ports.FileProvider, prefs *Resolver, undo *UndoLedger) *ViewStore {
	return &ViewStore{
		provider:  provider,
		prefs:     prefs,
		undo:      undo,
		history:   NewHistory(),
		selection: make(map[string]bool),
	}
}

// AttachWatcher makes the store refresh the current directory when the
// watcher reports changes. Attach before the first navigation.
func (s *ViewStore) AttachWatcher(w ports.DirectoryWatcher) {
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
}

// Preferences exposes the resolver for callers that adjust settings.
func (s *ViewStore) Preferences() *Resolver {
	return s.prefs
}

// Undo exposes the ledger for callers that render the undo stack.
func (s *ViewStore) Undo() *UndoLedger {
	return s.undo
}

// NavigateTo records a history event and opens a streaming session for
// the path.
func (s *ViewStore) NavigateTo(ctx context.Context, path string) error {
	s.mu.Lock()
	norm := s.history.NavigateTo(path)
	s.mu.Unlock()
	return s.open(ctx, norm)
}

// GoBack moves back in history. No-op at the oldest entry.
func (s *ViewStore) GoBack(ctx context.Context) error {
	s.mu.Lock()
	path, ok := s.history.Back()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.open(ctx, path)
}

// GoForward moves forward in history. No-op at the newest entry.
func (s *ViewStore) GoForward(ctx context.Context) error {
	s.mu.Lock()
	path, ok := s.history.Forward()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.open(ctx, path)
}

// GoUp navigates to the parent directory. No-op at a filesystem or
// drive root.
func (s *ViewStore) GoUp(ctx context.Context) error {
	current := s.CurrentPath()
	if current == "" || domain.IsRoot(current) {
		return nil
	}
	return s.NavigateTo(ctx, domain.ParentPath(current))
}

// Refresh re-opens the current directory without touching history.
// Sticky derived fields survive the refresh via reconciliation.
func (s *ViewStore) Refresh(ctx context.Context) error {
	current := s.CurrentPath()
	if current == "" {
		return nil
	}
	return s.open(ctx, current)
}

// Cancel stops the active session. Local state flips immediately; the
// remote cancel is advisory and its failure is not surfaced.
func (s *ViewStore) Cancel(ctx context.Context) {
	s.navMu.Lock()
	defer s.navMu.Unlock()
	s.cancelActive(ctx)
}

// LoadOnce performs a full non-streaming read of the path, recording a
// history event. Used by providers or callers that do not stream.
func (s *ViewStore) LoadOnce(ctx context.Context, path string) error {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.cancelActive(ctx)

	s.mu.Lock()
	norm := s.history.NavigateTo(path)
	previous := s.files
	s.mu.Unlock()

	listing, err := s.provider.ReadDirectory(ctx, norm)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", norm, err)
	}

	merged := MergeEntries(previous, listing.Entries)
	total := len(merged)

	s.mu.Lock()
	s.currentPath = norm
	s.files = merged
	s.selection = make(map[string]bool)
	s.streamComplete = true
	s.totalCount = &total
	s.loading = false
	s.caps = listing.Capabilities
	s.mu.Unlock()

	s.prefs.ApplySmartDefaults(ctx, norm, merged)
	s.prefs.PersistLastDir(ctx, norm)
	s.rewatch(norm)
	return nil
}

// open hands off from any active session to a fresh streaming session
// for path. The outgoing session is cancelled first (sequential
// hand-off), the file list is cleared, and batches are pumped in
// arrival order.
func (s *ViewStore) open(ctx context.Context, path string) error {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.cancelActive(ctx)

	id := newSessionID()

	s.mu.Lock()
	previous := s.files
	s.currentPath = path
	s.files = nil
	s.selection = make(map[string]bool)
	s.streamComplete = false
	s.totalCount = nil
	s.loading = true
	s.active = &streamSession{id: id, path: path, previous: previous}
	s.mu.Unlock()

	info, batches, err := s.provider.StartStream(ctx, path, id)
	if err != nil {
		s.mu.Lock()
		if s.active != nil && s.active.id == id {
			s.active = nil
			s.loading = false
			// The view must settle rather than report a forever-incomplete
			// stream; the caller gets the error and may retry.
			s.streamComplete = true
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to start listing %s: %w", path, err)
	}

	s.mu.Lock()
	s.caps = info.Capabilities
	s.mu.Unlock()

	go s.pump(batches)

	s.prefs.PersistLastDir(ctx, path)
	s.rewatch(path)
	return nil
}

// Ingest folds one pushed batch into the file list. Batches whose
// session id does not match the active session are stale noise and are
// dropped silently; path equality is irrelevant since two sessions may
// target the same path.
func (s *ViewStore) Ingest(batch domain.Batch) {
	s.mu.Lock()
	active := s.active
	if active == nil || batch.SessionID != active.id {
		s.mu.Unlock()
		logging.Logger.Debug("dropping stale batch",
			"session_id", batch.SessionID,
			"batch_index", batch.BatchIndex)
		return
	}

	s.files = append(s.files, MergeEntries(active.previous, batch.Entries)...)
	if batch.TotalCount != nil {
		// A batch without an estimate never erases a known one
		s.totalCount = batch.TotalCount
	}

	finished := batch.IsFinal
	var path string
	var entries []domain.FileEntry
	if finished {
		s.streamComplete = true
		s.loading = false
		s.active = nil
		path = active.path
		entries = make([]domain.FileEntry, len(s.files))
		copy(entries, s.files)
	}
	s.mu.Unlock()

	if finished {
		s.prefs.ApplySmartDefaults(context.Background(), path, entries)
	}
}

// cancelActive flips local session state immediately and issues a
// fire-and-forget remote cancel. Callers hold navMu.
func (s *ViewStore) cancelActive(ctx context.Context) {
	s.mu.Lock()
	active := s.active
	s.active = nil
	if active != nil {
		s.streamComplete = true
		s.loading = false
	}
	s.mu.Unlock()

	if active == nil {
		return
	}

	go func(id string) {
		cctx, cancel := context.WithTimeout(context.Background(), remoteCancelTimeout)
		defer cancel()
		if err := s.provider.CancelStream(cctx, id); err != nil {
			logging.Logger.Debug("remote cancel failed", "session_id", id, "error", err)
		}
	}(active.id)
}

func (s *ViewStore) pump(batches <-chan domain.Batch) {
	for batch := range batches {
		s.Ingest(batch)
	}
}

// rewatch replaces the directory watch with one for path.
func (s *ViewStore) rewatch(path string) {
	s.mu.Lock()
	w := s.watcher
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if w == nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	s.mu.Unlock()

	events, err := w.WatchDirectory(ctx, path)
	if err != nil {
		logging.Logger.Warn("failed to watch directory", "path", path, "error", err)
		cancel()
		return
	}
	go func() {
		for range events {
			if err := s.Refresh(context.Background()); err != nil {
				logging.Logger.Debug("watcher refresh failed", "path", path, "error", err)
			}
		}
	}()
}

// SetSelection replaces the selection set with the given paths.
func (s *ViewStore) SetSelection(paths []string) {
	selection := make(map[string]bool, len(paths))
	for _, p := range paths {
		selection[domain.NormalizePath(p)] = true
	}
	s.mu.Lock()
	s.selection = selection
	s.mu.Unlock()
}

// ClearSelection empties the selection set.
func (s *ViewStore) ClearSelection() {
	s.SetSelection(nil)
}

// Rename validates the new name, performs the rename, records the
// reversal, and refreshes with the renamed entry selected. A name
// containing a path separator is rejected before any remote call.
func (s *ViewStore) Rename(ctx context.Context, fromPath, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return domain.ErrEmptyName
	}
	if strings.ContainsAny(newName, "/\\") {
		return domain.ErrInvalidName
	}

	from := domain.NormalizePath(fromPath)
	to := domain.NormalizePath(domain.ParentPath(from) + "/" + newName)
	if to == from {
		return nil
	}

	if err := s.provider.Rename(ctx, from, to); err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}

	s.undo.Push(domain.RenameRecord{OriginalPath: from, NewPath: to},
		fmt.Sprintf("Rename to %s", newName))
	s.refreshAfterMutation(ctx)
	s.SetSelection([]string{to})
	return nil
}

// TrashPaths moves the given paths to trash. A reversible result (one
// carrying an undo token) is recorded on the ledger.
func (s *ViewStore) TrashPaths(ctx context.Context, paths []string) (*domain.TrashResult, error) {
	result, err := s.provider.Trash(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("trash failed: %w", err)
	}

	if result.UndoToken != "" {
		s.undo.Push(domain.TrashRecord{
			UndoToken:    result.UndoToken,
			TrashedPaths: result.Trashed,
		}, describeCount("Trash", len(result.Trashed)))
	}
	s.refreshAfterMutation(ctx)
	return result, nil
}

// DeletePaths permanently deletes the given paths. Not reversible, so
// nothing is recorded.
func (s *ViewStore) DeletePaths(ctx context.Context, paths []string) (*domain.DeleteResult, error) {
	result, err := s.provider.DeletePermanently(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}
	s.refreshAfterMutation(ctx)
	return result, nil
}

// RecordMove records a completed move (performed by an external
// engine) so it can be undone.
func (s *ViewStore) RecordMove(files []domain.MovedFile, description string) {
	s.undo.Push(domain.MoveRecord{Files: files}, description)
}

// RecordCopy records a completed copy so undo can remove the copies.
func (s *ViewStore) RecordCopy(copiedPaths []string, description string) {
	s.undo.Push(domain.CopyRecord{CopiedPaths: copiedPaths}, description)
}

// ExecuteUndo reverses the most recent non-expired ledger entry. The
// entry is removed only after the reversal succeeds; on failure it
// stays on the ledger for retry. After success the view refreshes and
// the selection is set to exactly the restored paths, when any.
func (s *ViewStore) ExecuteUndo(ctx context.Context) ([]string, error) {
	if !s.undo.BeginExecute() {
		return nil, ErrUndoBusy
	}
	defer s.undo.EndExecute()

	entry, ok := s.undo.Peek()
	if !ok {
		return nil, nil
	}

	restored, err := s.executeRecord(ctx, entry.Record)
	if err != nil {
		return restored, fmt.Errorf("undo %q failed: %w", entry.Description, err)
	}
	s.undo.Drop(entry.ID)

	s.refreshAfterMutation(ctx)
	if len(restored) > 0 {
		s.SetSelection(restored)
	}
	return restored, nil
}

func (s *ViewStore) executeRecord(ctx context.Context, record domain.UndoRecord) ([]string, error) {
	switch rec := record.(type) {
	case domain.MoveRecord:
		restored := make([]string, 0, len(rec.Files))
		for _, f := range rec.Files {
			if err := s.provider.Rename(ctx, f.CurrentPath, f.OriginalPath); err != nil {
				// Partial completion is reported, not hidden: the paths
				// moved back so far ride along with the error
				return restored, fmt.Errorf("failed to move %s back: %w", f.CurrentPath, err)
			}
			restored = append(restored, f.OriginalPath)
		}
		return restored, nil

	case domain.CopyRecord:
		// Undo-of-copy removes the copies rather than restoring anything
		if _, err := s.provider.Trash(ctx, rec.CopiedPaths); err != nil {
			return nil, fmt.Errorf("failed to remove copies: %w", err)
		}
		return nil, nil

	case domain.RenameRecord:
		if err := s.provider.Rename(ctx, rec.NewPath, rec.OriginalPath); err != nil {
			return nil, fmt.Errorf("failed to rename back: %w", err)
		}
		return []string{rec.OriginalPath}, nil

	case domain.TrashRecord:
		result, err := s.provider.UndoTrash(ctx, rec.UndoToken)
		if err != nil {
			// A partial restore still reports what came back
			var restored []string
			if result != nil {
				restored = result.Restored
			}
			return restored, fmt.Errorf("failed to restore from trash: %w", err)
		}
		return result.Restored, nil

	default:
		return nil, fmt.Errorf("unknown undo record %T", record)
	}
}

func (s *ViewStore) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		logging.Logger.Warn("refresh after mutation failed", "error", err)
	}
}

// CurrentPath returns the directory the store points at.
func (s *ViewStore) CurrentPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPath
}

// GetSnapshot returns an immutable snapshot for rendering.
func (s *ViewStore) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]domain.FileEntry, len(s.files))
	copy(files, s.files)

	selected := make([]string, 0, len(s.selection))
	for p := range s.selection {
		selected = append(selected, p)
	}
	sort.Strings(selected)

	var total *int
	if s.totalCount != nil {
		v := *s.totalCount
		total = &v
	}

	return Snapshot{
		Path:               s.currentPath,
		Files:              files,
		Selected:           selected,
		Preferences:        s.prefs.Effective(s.currentPath),
		Loading:            s.loading,
		StreamingComplete:  s.streamComplete,
		TotalCountEstimate: total,
		CanGoBack:          s.history.CanGoBack(),
		CanGoForward:       s.history.CanGoForward(),
		CanGoUp:            s.currentPath != "" && !domain.IsRoot(s.currentPath),
		Capabilities:       s.caps,
	}
}

func describeCount(verb string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s 1 item", verb)
	}
	return fmt.Sprintf("%s %d items", verb, n)
}
