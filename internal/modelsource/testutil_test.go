package modelsource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeFetcher serves body for every name; gate, when set, blocks Open until closed.
type fakeFetcher struct {
	mu      sync.Mutex
	body    string
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func (f *fakeFetcher) setBody(s string) {
	f.mu.Lock()
	f.body = s
	f.mu.Unlock()
}

func (f *fakeFetcher) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f.calls.Add(1)
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

var errFetch = errors.New("fetch failed")

func newTestDownloader(t *testing.T, f Fetcher, net NetworkMonitor) *Downloader {
	t.Helper()
	d, err := NewDownloader(f, DownloaderOptions{CacheDir: t.TempDir(), Network: net})
	require.NoError(t, err)
	return d
}

func writeCache(t *testing.T, d *Downloader, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(d.CachePath(name)), 0o755))
	require.NoError(t, os.WriteFile(d.CachePath(name), []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
