// Package prefstore persists view preferences as a JSON document
// shared with other windows and tools. Writes are read-merge-write
// under an exclusive file lock so concurrent writers never clobber
// each other, and unknown top-level keys survive round-trips.
package prefstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

const (
	lastDirKey     = "lastDir"
	globalKey      = "globalPreferences"
	directoriesKey = "directoryPreferences"
)

// prefsPathFunc returns the default preferences file path. Overridable
// in tests.
var prefsPathFunc = getDefaultPrefsPath

func getDefaultPrefsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "vantage")
	return filepath.Join(configDir, "preferences.json"), nil
}

// Store reads and writes the preference document on disk.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store backed by the given file. An empty path selects
// the per-user default location.
func New(path string) (*Store, error) {
	if path == "" {
		defaultPath, err := prefsPathFunc()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return &Store{path: path}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full document. A missing file yields an empty
// document, not an error.
func (s *Store) Load(ctx context.Context) (*ports.PreferenceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return decodeDocument(map[string]json.RawMessage{})
		}
		return nil, fmt.Errorf("failed to open preferences file: %w", err)
	}
	defer file.Close()

	// Shared lock so a writer's truncate-then-write is never observed
	// midway.
	if err := lockFileShared(file); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlockFile(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences file: %w", err)
	}

	raw := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}
	return decodeDocument(raw)
}

// DirectoryPreferences returns the stored overlay for one directory.
func (s *Store) DirectoryPreferences(ctx context.Context, path string) (domain.PartialPreferences, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return domain.PartialPreferences{}, err
	}
	return doc.Directories[domain.NormalizePath(path)], nil
}

// Save merges doc into the stored document: the global layer merges
// field by field, directory overlays merge per path, and lastDir is
// updated only when set.
func (s *Store) Save(ctx context.Context, doc *ports.PreferenceDocument) error {
	return s.mergeWrite(func(stored *ports.PreferenceDocument) {
		stored.Global.Merge(doc.Global)
		for path, partial := range doc.Directories {
			norm := domain.NormalizePath(path)
			overlay := stored.Directories[norm]
			overlay.Merge(partial)
			stored.Directories[norm] = overlay
		}
		if doc.LastDir != "" {
			stored.LastDir = doc.LastDir
		}
	})
}

// SetDirectoryPreferences merges partial into one directory's stored
// overlay.
func (s *Store) SetDirectoryPreferences(ctx context.Context, path string, partial domain.PartialPreferences) error {
	norm := domain.NormalizePath(path)
	return s.mergeWrite(func(stored *ports.PreferenceDocument) {
		overlay := stored.Directories[norm]
		overlay.Merge(partial)
		stored.Directories[norm] = overlay
	})
}

// SetLastDir records the most recently opened directory.
func (s *Store) SetLastDir(ctx context.Context, path string) error {
	norm := domain.NormalizePath(path)
	return s.mergeWrite(func(stored *ports.PreferenceDocument) {
		stored.LastDir = norm
	})
}

// Changes watches the backing file and emits one change per stored
// overlay (plus the global layer) whenever another writer touches it.
// Re-applying an overlay the receiver already holds is harmless, so
// no diffing is needed. The watcher closes when ctx is done.
func (s *Store) Changes(ctx context.Context) (<-chan ports.PreferenceChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create preference watcher: %w", err)
	}

	// Watch the directory: editors and atomic writers replace the file,
	// which drops a watch placed on the file itself.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch preferences directory: %w", err)
	}

	changes := make(chan ports.PreferenceChange)
	go func() {
		defer watcher.Close()
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				s.emitChanges(ctx, changes)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Logger.Warn("preference watcher error", "error", err)
			}
		}
	}()
	return changes, nil
}

func (s *Store) emitChanges(ctx context.Context, changes chan<- ports.PreferenceChange) {
	doc, err := s.Load(ctx)
	if err != nil {
		logging.Logger.Warn("failed to reload preferences after change", "error", err)
		return
	}

	pending := []ports.PreferenceChange{{Partial: doc.Global}}
	for path, partial := range doc.Directories {
		pending = append(pending, ports.PreferenceChange{Path: path, Partial: partial})
	}
	for _, change := range pending {
		select {
		case changes <- change:
		case <-ctx.Done():
			return
		}
	}
}

// mergeWrite applies mutate to the stored document while holding an
// exclusive lock on the file, preserving top-level keys written by
// other tools.
func (s *Store) mergeWrite(mutate func(*ports.PreferenceDocument)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open preferences file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer unlockFile(file)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read preferences file: %w", err)
	}

	raw := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return err
	}
	mutate(doc)
	if err := encodeDocument(raw, doc); err != nil {
		return err
	}

	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}
	if _, err := file.Write(out); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	return nil
}

func decodeDocument(raw map[string]json.RawMessage) (*ports.PreferenceDocument, error) {
	doc := &ports.PreferenceDocument{
		Directories: make(map[string]domain.PartialPreferences),
	}
	if data, ok := raw[lastDirKey]; ok {
		if err := json.Unmarshal(data, &doc.LastDir); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last directory: %w", err)
		}
	}
	if data, ok := raw[globalKey]; ok {
		if err := json.Unmarshal(data, &doc.Global); err != nil {
			return nil, fmt.Errorf("failed to unmarshal global preferences: %w", err)
		}
	}
	if data, ok := raw[directoriesKey]; ok {
		if err := json.Unmarshal(data, &doc.Directories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal directory preferences: %w", err)
		}
		if doc.Directories == nil {
			doc.Directories = make(map[string]domain.PartialPreferences)
		}
	}
	return doc, nil
}

func encodeDocument(raw map[string]json.RawMessage, doc *ports.PreferenceDocument) error {
	global, err := json.Marshal(doc.Global)
	if err != nil {
		return fmt.Errorf("failed to marshal global preferences: %w", err)
	}
	directories, err := json.Marshal(doc.Directories)
	if err != nil {
		return fmt.Errorf("failed to marshal directory preferences: %w", err)
	}

	raw[globalKey] = global
	raw[directoriesKey] = directories
	if doc.LastDir != "" {
		lastDir, err := json.Marshal(doc.LastDir)
		if err != nil {
			return fmt.Errorf("failed to marshal last directory: %w", err)
		}
		raw[lastDirKey] = lastDir
	}
	return nil
}
