package services

import (
	"context"
	"strings"
	"sync"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

// folderDefaults maps lower-cased base folder names to the overlay a
// freshly-visited directory of that name receives when the user has
// not configured it.
var folderDefaults = map[string]domain.PartialPreferences{
	"downloads":   sortDefaults(domain.SortByModified, domain.SortDesc),
	"screenshots": gridDefaults(),
	"pictures":    gridDefaults(),
	"photos":      gridDefaults(),
	"movies":      gridDefaults(),
	"videos":      gridDefaults(),
}

func sortDefaults(by domain.SortBy, order domain.SortOrder) domain.PartialPreferences {
	return domain.PartialPreferences{SortBy: &by, SortOrder: &order}
}

func gridDefaults() domain.PartialPreferences {
	mode := domain.ViewGrid
	p := sortDefaults(domain.SortByModified, domain.SortDesc)
	p.ViewMode = &mode
	return p
}

// mediaDefaultThreshold: a directory whose non-directory entries are at
// least this fraction media files defaults to a grid view.
const mediaDefaultNumerator, mediaDefaultDenominator = 3, 4

// Resolver merges global and per-directory preference overlays and
// computes smart defaults for unconfigured directories. Persistence is
// best-effort: a failing store never blocks resolution.
type Resolver struct {
	mu       sync.Mutex
	global   domain.PartialPreferences
	overlays map[string]domain.PartialPreferences
	applied  map[string]bool // smart-default pass ran for this path
	store    ports.PreferenceStore
}

// NewResolver creates a resolver. store may be nil for a purely
// in-memory resolver (tests, ephemeral windows).
func NewResolver(store ports.PreferenceStore) *Resolver {
	return &Resolver{
		overlays: make(map[string]domain.PartialPreferences),
		applied:  make(map[string]bool),
		store:    store,
	}
}

// LoadPersisted seeds the resolver from the preference store. Missing
// or unreadable documents leave the resolver at defaults.
func (r *Resolver) LoadPersisted(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	doc, err := r.store.Load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = doc.Global
	for path, partial := range doc.Directories {
		r.overlays[domain.NormalizePath(path)] = partial
	}
	return nil
}

// Effective resolves the preferences for a directory: built-in
// defaults, then the global layer, then the per-directory overlay,
// each winning field by field.
func (r *Resolver) Effective(path string) domain.ViewPreferences {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefs := r.global.Apply(domain.DefaultPreferences())
	if overlay, ok := r.overlays[domain.NormalizePath(path)]; ok {
		prefs = overlay.Apply(prefs)
	}
	return prefs
}

// Overlay returns the raw per-directory overlay, if any.
func (r *Resolver) Overlay(path string) (domain.PartialPreferences, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	overlay, ok := r.overlays[domain.NormalizePath(path)]
	return overlay, ok
}

// Update merges partial into the directory's overlay, creating it if
// absent. A caller setting only sortOrder does not clobber an existing
// viewMode. The change is persisted best-effort.
func (r *Resolver) Update(ctx context.Context, path string, partial domain.PartialPreferences) {
	norm := domain.NormalizePath(path)

	r.mu.Lock()
	overlay := r.overlays[norm]
	overlay.Merge(partial)
	r.overlays[norm] = overlay
	r.mu.Unlock()

	r.persistDirectory(ctx, norm, overlay)
}

// UpdateGlobal merges partial into the global layer and persists it
// best-effort.
func (r *Resolver) UpdateGlobal(ctx context.Context, partial domain.PartialPreferences) {
	r.mu.Lock()
	r.global.Merge(partial)
	global := r.global
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, &ports.PreferenceDocument{Global: global}); err != nil {
		logging.Logger.Warn("failed to persist global preferences", "error", err)
	}
}

// FoldExternal applies a preference change reported by the
// environment (e.g. another window) using the same merge rule as
// Update, without writing it back.
func (r *Resolver) FoldExternal(change ports.PreferenceChange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if change.Path == "" {
		r.global.Merge(change.Partial)
		return
	}
	norm := domain.NormalizePath(change.Path)
	overlay := r.overlays[norm]
	overlay.Merge(change.Partial)
	r.overlays[norm] = overlay
}

// ApplySmartDefaults runs the heuristic-default pass for a
// freshly-visited directory. It never runs when the directory already
// has a user-set viewMode or sortBy, and runs at most once per
// directory per process lifetime.
func (r *Resolver) ApplySmartDefaults(ctx context.Context, path string, entries []domain.FileEntry) {
	norm := domain.NormalizePath(path)

	r.mu.Lock()
	if r.applied[norm] {
		r.mu.Unlock()
		return
	}
	r.applied[norm] = true

	if overlay, ok := r.overlays[norm]; ok && (overlay.ViewMode != nil || overlay.SortBy != nil) {
		r.mu.Unlock()
		return
	}

	defaults, ok := smartDefaultsFor(norm, entries)
	if !ok {
		r.mu.Unlock()
		return
	}

	overlay := r.overlays[norm]
	overlay.Merge(defaults)
	r.overlays[norm] = overlay
	r.mu.Unlock()

	logging.Logger.Debug("applied smart defaults", "path", norm)
	r.persistDirectory(ctx, norm, overlay)
}

// smartDefaultsFor picks defaults by folder name first, then by the
// listing's media ratio.
func smartDefaultsFor(norm string, entries []domain.FileEntry) (domain.PartialPreferences, bool) {
	name := strings.ToLower(domain.BaseName(norm))
	if defaults, ok := folderDefaults[name]; ok {
		return defaults, true
	}

	files, media := 0, 0
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		files++
		if domain.IsMediaExtension(entry.Extension) {
			media++
		}
	}
	if files > 0 && media*mediaDefaultDenominator >= files*mediaDefaultNumerator {
		return gridDefaults(), true
	}
	return domain.PartialPreferences{}, false
}

// PersistLastDir records the most recently opened directory,
// best-effort.
func (r *Resolver) PersistLastDir(ctx context.Context, path string) {
	if r.store == nil {
		return
	}
	if err := r.store.SetLastDir(ctx, domain.NormalizePath(path)); err != nil {
		logging.Logger.Warn("failed to persist last directory", "error", err)
	}
}

// LastDir returns the persisted last-opened directory, or "".
func (r *Resolver) LastDir(ctx context.Context) string {
	if r.store == nil {
		return ""
	}
	doc, err := r.store.Load(ctx)
	if err != nil {
		return ""
	}
	return doc.LastDir
}

func (r *Resolver) persistDirectory(ctx context.Context, norm string, overlay domain.PartialPreferences) {
	if r.store == nil {
		return
	}
	if err := r.store.SetDirectoryPreferences(ctx, norm, overlay); err != nil {
		logging.Logger.Warn("failed to persist directory preferences", "path", norm, "error", err)
	}
}
