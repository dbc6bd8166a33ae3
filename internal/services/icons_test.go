package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	fetches atomic.Int32
	block   chan struct{} // when set, fetches wait on it
	result  string
	err     error
}

func (f *stubFetcher) Icon(ctx context.Context, path string, size int) (string, error) {
	f.fetches.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

type stubCache struct {
	mu    sync.Mutex
	icons map[string]string
	puts  int
}

func newStubCache() *stubCache {
	return &stubCache{icons: make(map[string]string)}
}

func (c *stubCache) GetIcon(ctx context.Context, path string, size int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dataURL, ok := c.icons[iconKey(path, size)]
	return dataURL, ok, nil
}

func (c *stubCache) PutIcon(ctx context.Context, path string, size int, dataURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.icons[iconKey(path, size)] = dataURL
	c.puts++
	return nil
}

func (c *stubCache) Close() error { return nil }

func TestIconFetchesOnceAndRemembers(t *testing.T) {
	fetcher := &stubFetcher{result: "data:icon"}
	svc := NewIconService(fetcher, nil, 2)
	ctx := context.Background()

	dataURL, err := svc.Icon(ctx, "/a.png", 64)
	require.NoError(t, err)
	assert.Equal(t, "data:icon", dataURL)

	_, err = svc.Icon(ctx, "/a.png", 64)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.fetches.Load())
}

func TestIconCoalescesConcurrentRequests(t *testing.T) {
	fetcher := &stubFetcher{result: "data:icon", block: make(chan struct{})}
	svc := NewIconService(fetcher, nil, 4)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dataURL, err := svc.Icon(context.Background(), "/shared.png", 64)
			assert.NoError(t, err)
			results[i] = dataURL
		}(i)
	}

	close(fetcher.block)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.fetches.Load())
	for _, r := range results {
		assert.Equal(t, "data:icon", r)
	}
}

func TestIconDistinctSizesFetchSeparately(t *testing.T) {
	fetcher := &stubFetcher{result: "data:icon"}
	svc := NewIconService(fetcher, nil, 2)
	ctx := context.Background()

	_, err := svc.Icon(ctx, "/a.png", 64)
	require.NoError(t, err)
	_, err = svc.Icon(ctx, "/a.png", 128)
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetcher.fetches.Load())
}

func TestIconServedFromPersistentCache(t *testing.T) {
	fetcher := &stubFetcher{result: "data:fresh"}
	cache := newStubCache()
	require.NoError(t, cache.PutIcon(context.Background(), "/a.png", 64, "data:stored"))
	cache.puts = 0

	svc := NewIconService(fetcher, cache, 2)
	dataURL, err := svc.Icon(context.Background(), "/a.png", 64)
	require.NoError(t, err)

	assert.Equal(t, "data:stored", dataURL)
	assert.Equal(t, int32(0), fetcher.fetches.Load())
	assert.Equal(t, 0, cache.puts)
}

func TestIconWritesThroughToCache(t *testing.T) {
	fetcher := &stubFetcher{result: "data:fresh"}
	cache := newStubCache()

	svc := NewIconService(fetcher, cache, 2)
	_, err := svc.Icon(context.Background(), "/a.png", 64)
	require.NoError(t, err)

	stored, ok, err := cache.GetIcon(context.Background(), "/a.png", 64)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data:fresh", stored)
}

func TestForgetDropsMemoryForAllSizes(t *testing.T) {
	fetcher := &stubFetcher{result: "data:icon"}
	svc := NewIconService(fetcher, nil, 2)
	ctx := context.Background()

	_, err := svc.Icon(ctx, "/a.png", 64)
	require.NoError(t, err)
	_, err = svc.Icon(ctx, "/a.png", 128)
	require.NoError(t, err)

	svc.Forget("/a.png")

	_, err = svc.Icon(ctx, "/a.png", 64)
	require.NoError(t, err)
	assert.Equal(t, int32(3), fetcher.fetches.Load())
}
