// Package localfs implements the file provider against the local
// filesystem. It is the reference backend: listings stream in ordered
// batches, trash is a tokened directory with a JSON manifest, and
// icons are inline data URLs.
package localfs

import (
	"context"
	"fmt"
	"os"
	"sync"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

// DefaultBatchSize is the number of entries per streamed batch.
const DefaultBatchSize = 100

// Provider implements ports.FileProvider for local directories.
type Provider struct {
	batchSize int
	trashRoot string

	mu      sync.Mutex
	streams map[string]context.CancelFunc
}

// Verify interface compliance at compile time
var _ ports.FileProvider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithBatchSize overrides the streamed batch size.
func WithBatchSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithTrashRoot overrides the trash directory location.
func WithTrashRoot(path string) Option {
	return func(p *Provider) {
		if path != "" {
			p.trashRoot = path
		}
	}
}

// New creates a local filesystem provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		batchSize: DefaultBatchSize,
		streams:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) capabilities() domain.Capabilities {
	return domain.Capabilities{
		CanRename: true,
		CanStream: true,
		CanTrash:  true,
		CanWatch:  true,
	}
}

func (p *Provider) location(norm string) domain.Location {
	return domain.Location{
		Path:    norm,
		CanGoUp: !domain.IsRoot(norm),
	}
}

// ReadDirectory implements ports.DirectoryReader.
func (p *Provider) ReadDirectory(ctx context.Context, path string) (*domain.Listing, error) {
	norm := domain.NormalizePath(path)
	entries, err := readEntries(norm)
	if err != nil {
		return nil, err
	}
	return &domain.Listing{
		Entries:      entries,
		Location:     p.location(norm),
		Capabilities: p.capabilities(),
	}, nil
}

// StartStream implements ports.DirectoryStreamer. Entries are read up
// front and pushed as ordered batches from a goroutine; the first batch
// carries the total count and the last one is flagged final. The
// channel closes after the final batch or on cancellation.
func (p *Provider) StartStream(ctx context.Context, path, sessionID string) (*domain.StreamInfo, <-chan domain.Batch, error) {
	norm := domain.NormalizePath(path)
	entries, err := readEntries(norm)
	if err != nil {
		return nil, nil, err
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Lock()
	p.streams[sessionID] = cancel
	p.mu.Unlock()

	batches := make(chan domain.Batch)
	go func() {
		defer close(batches)
		defer p.dropStream(sessionID)

		total := len(entries)
		index := 0
		for start := 0; ; start += p.batchSize {
			end := start + p.batchSize
			if end > total {
				end = total
			}

			batch := domain.Batch{
				SessionID:  sessionID,
				BatchIndex: index,
				Entries:    entries[start:end],
				IsFinal:    end == total,
			}
			if index == 0 {
				count := total
				batch.TotalCount = &count
			}

			select {
			case batches <- batch:
			case <-streamCtx.Done():
				logging.Logger.Debug("listing stream cancelled", "sessionId", sessionID, "path", norm)
				return
			}

			if batch.IsFinal {
				return
			}
			index++
		}
	}()

	info := &domain.StreamInfo{
		SessionID:    sessionID,
		Location:     p.location(norm),
		Capabilities: p.capabilities(),
	}
	return info, batches, nil
}

// CancelStream implements ports.DirectoryStreamer. Cancelling an
// unknown or already-finished session is a no-op.
func (p *Provider) CancelStream(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	cancel, ok := p.streams[sessionID]
	delete(p.streams, sessionID)
	p.mu.Unlock()

	if ok {
		cancel()
	}
	return nil
}

func (p *Provider) dropStream(sessionID string) {
	p.mu.Lock()
	if cancel, ok := p.streams[sessionID]; ok {
		delete(p.streams, sessionID)
		cancel()
	}
	p.mu.Unlock()
}

// Rename implements ports.FileMutator. The target must not exist.
func (p *Provider) Rename(ctx context.Context, fromPath, toPath string) error {
	from := domain.NormalizePath(fromPath)
	to := domain.NormalizePath(toPath)

	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("destination already exists: %s", to)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}
	return nil
}
