package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"vantage/internal/logging"
	"vantage/internal/ports"
)

// DefaultIconWorkers caps simultaneous icon fetches.
const DefaultIconWorkers = 4

// IconService resolves icons through three layers: an in-memory map, a
// persistent cache, and finally the provider, with concurrent
// first-requests for the same key coalesced and real fetches gated by
// the limiter.
type IconService struct {
	provider ports.IconFetcher
	cache    ports.IconCache // optional
	limiter  *Limiter
	group    singleflight.Group

	mu     sync.RWMutex
	memory map[string]string
}

// NewIconService creates an icon service. cache may be nil.
func NewIconService(provider ports.IconFetcher, cache ports.IconCache, workers int) *IconService {
	if workers <= 0 {
		workers = DefaultIconWorkers
	}
	return &IconService{
		provider: provider,
		cache:    cache,
		limiter:  NewLimiter(workers),
		memory:   make(map[string]string),
	}
}

// Icon returns the data URL for (path, size). Repeated requests for a
// resolved key never re-enter the queue; concurrent first requests
// share a single fetch.
func (s *IconService) Icon(ctx context.Context, path string, size int) (string, error) {
	key := iconKey(path, size)

	s.mu.RLock()
	dataURL, ok := s.memory[key]
	s.mu.RUnlock()
	if ok {
		return dataURL, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		// A coalesced waiter may land after the winner populated the map
		s.mu.RLock()
		cached, ok := s.memory[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		if s.cache != nil {
			if stored, ok, err := s.cache.GetIcon(ctx, path, size); err != nil {
				logging.Logger.Warn("icon cache read failed", "path", path, "error", err)
			} else if ok {
				s.remember(key, stored)
				return stored, nil
			}
		}

		var fetched string
		err := s.limiter.Do(ctx, func() error {
			var fetchErr error
			fetched, fetchErr = s.provider.Icon(ctx, path, size)
			return fetchErr
		})
		if err != nil {
			return "", err
		}

		s.remember(key, fetched)
		if s.cache != nil {
			if err := s.cache.PutIcon(ctx, path, size, fetched); err != nil {
				logging.Logger.Warn("icon cache write failed", "path", path, "error", err)
			}
		}
		return fetched, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Forget drops every cached size for a path from the in-memory layer,
// e.g. after the file changed on disk.
func (s *IconService) Forget(path string) {
	prefix := path + "|"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.memory {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(s.memory, key)
		}
	}
}

func (s *IconService) remember(key, dataURL string) {
	s.mu.Lock()
	s.memory[key] = dataURL
	s.mu.Unlock()
}

func iconKey(path string, size int) string {
	return fmt.Sprintf("%s|%d", path, size)
}
