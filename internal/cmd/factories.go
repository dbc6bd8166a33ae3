package cmd

import (
	"context"
	"time"

	adapterlocalfs "vantage/internal/adapters/localfs"
	adapterprefstore "vantage/internal/adapters/prefstore"
	adapterstorage "vantage/internal/adapters/storage"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/services"
)

// maxCachedIcons bounds the persistent icon cache; the least recently
// written renditions are pruned at startup.
const maxCachedIcons = 10000

// Container holds all dependencies for the application
type Container struct {
	PrefStore *adapterprefstore.Store
	Provider  *adapterlocalfs.Provider
	Resolver  *services.Resolver
	Undo      *services.UndoLedger
	Icons     *services.IconService
	View      *services.ViewStore

	// Internal - for cleanup only
	iconCache *adapterstorage.SQLiteIconCache
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(settings *config.Settings) (*Container, error) {
	if settings == nil {
		settings = &config.Settings{}
	}

	prefStore, err := adapterprefstore.New(settings.PreferencesPath)
	if err != nil {
		return nil, err
	}

	iconCachePath := settings.IconCachePath
	if iconCachePath == "" {
		iconCachePath = config.GetIconCachePath()
	}
	iconCache, err := adapterstorage.NewSQLiteIconCache(iconCachePath)
	if err != nil {
		return nil, err
	}
	if err := iconCache.Prune(context.Background(), maxCachedIcons); err != nil {
		logging.Logger.Warn("icon cache prune failed", "error", err)
	}

	var providerOpts []adapterlocalfs.Option
	if settings.StreamBatchSize != nil {
		providerOpts = append(providerOpts, adapterlocalfs.WithBatchSize(*settings.StreamBatchSize))
	}
	if settings.TrashPath != "" {
		providerOpts = append(providerOpts, adapterlocalfs.WithTrashRoot(settings.TrashPath))
	}
	provider := adapterlocalfs.New(providerOpts...)

	resolver := services.NewResolver(prefStore)
	if err := resolver.LoadPersisted(context.Background()); err != nil {
		logging.Logger.Warn("failed to load persisted preferences", "error", err)
	}

	undoDepth := 0
	if settings.UndoDepth != nil {
		undoDepth = *settings.UndoDepth
	}
	undoTTL := time.Duration(0)
	if settings.UndoTTLSeconds != nil {
		undoTTL = time.Duration(*settings.UndoTTLSeconds) * time.Second
	}
	undo := services.NewUndoLedger(undoDepth, undoTTL)

	iconWorkers := 0
	if settings.IconWorkers != nil {
		iconWorkers = *settings.IconWorkers
	}
	icons := services.NewIconService(provider, iconCache, iconWorkers)

	view := services.NewViewStore(provider, resolver, undo)
	view.AttachWatcher(adapterlocalfs.NewWatcher())

	return &Container{
		PrefStore: prefStore,
		Provider:  provider,
		Resolver:  resolver,
		Undo:      undo,
		Icons:     icons,
		View:      view,
		iconCache: iconCache,
	}, nil
}

// StartPreferenceSync folds preference-document changes made by other
// windows into the resolver until ctx ends.
func (c *Container) StartPreferenceSync(ctx context.Context) error {
	changes, err := c.PrefStore.Changes(ctx)
	if err != nil {
		return err
	}
	go func() {
		for change := range changes {
			c.Resolver.FoldExternal(change)
		}
	}()
	return nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.iconCache != nil {
		return c.iconCache.Close()
	}
	return nil
}
