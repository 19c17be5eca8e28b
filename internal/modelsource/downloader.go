package modelsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"predictd/internal/common/fsutil"
	"predictd/internal/session"
)

// CacheExt is appended to the model name to form the cache file name.
const CacheExt = ".tflite"

// Downloader implements session.ModelSource on top of a Fetcher and an
// on-disk cache. Concurrent fetches of the same model share one transfer.
type Downloader struct {
	fetcher  Fetcher
	cacheDir string
	network  NetworkMonitor
	log      zerolog.Logger

	// OnUpdated, when set, is called after a background refresh replaced the cached copy.
	OnUpdated func(name string)

	group singleflight.Group
	bg    sync.WaitGroup
}

// DownloaderOptions configures NewDownloader.
type DownloaderOptions struct {
	CacheDir string
	Network  NetworkMonitor
	Logger   *zerolog.Logger
}

// NewDownloader returns a Downloader caching into opts.CacheDir.
func NewDownloader(f Fetcher, opts DownloaderOptions) (*Downloader, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	dir, err := fsutil.ExpandHome(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	d := &Downloader{fetcher: f, cacheDir: dir, network: opts.Network, log: zerolog.Nop()}
	if d.network == nil {
		d.network = StaticNetwork{}
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	return d, nil
}

// CachePath returns where name is cached.
func (d *Downloader) CachePath(name string) string {
	return filepath.Join(d.cacheDir, name+CacheExt)
}

// GetModel resolves name according to dt:
//   - local_model: the cached copy when present, otherwise a fresh download.
//   - local_model_update_in_background: the cached copy when present while a
//     refresh runs in the background, otherwise a fresh download.
//   - latest_model: always a fresh download.
//
// Conditions are only checked when a transfer is actually needed.
func (d *Downloader) GetModel(ctx context.Context, name string, dt session.DownloadType, cond session.Conditions) (session.Artifact, error) {
	if err := validName(name); err != nil {
		return session.Artifact{}, err
	}
	path := d.CachePath(name)
	cached := fsutil.IsRegularFile(path)

	switch dt {
	case session.DownloadLocalModel, "":
		if cached {
			d.log.Debug().Str("model", name).Str("path", path).Msg("using cached model")
			return session.FileArtifact(path), nil
		}
	case session.DownloadLocalModelUpdateInBackground:
		if cached {
			d.refreshInBackground(ctx, name, cond)
			return session.FileArtifact(path), nil
		}
	case session.DownloadLatestModel:
	default:
		return session.Artifact{}, fmt.Errorf("unknown download type %q", dt)
	}

	if err := d.checkConditions(ctx, cond); err != nil {
		return session.Artifact{}, err
	}
	if err := d.fetch(ctx, name); err != nil {
		return session.Artifact{}, err
	}
	return session.FileArtifact(path), nil
}

// Wait blocks until background refreshes have finished.
func (d *Downloader) Wait() { d.bg.Wait() }

func (d *Downloader) refreshInBackground(ctx context.Context, name string, cond session.Conditions) {
	ctx = context.WithoutCancel(ctx)
	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		if err := d.checkConditions(ctx, cond); err != nil {
			d.log.Debug().Err(err).Str("model", name).Msg("background refresh skipped")
			return
		}
		if err := d.fetch(ctx, name); err != nil {
			d.log.Warn().Err(err).Str("model", name).Msg("background refresh failed")
			return
		}
		if d.OnUpdated != nil {
			d.OnUpdated(name)
		}
	}()
}

func (d *Downloader) checkConditions(ctx context.Context, cond session.Conditions) error {
	if !cond.RequireUnmetered {
		return nil
	}
	metered, err := d.network.Metered(ctx)
	if err != nil {
		return fmt.Errorf("query network: %w", err)
	}
	if metered {
		return conditionsUnmetError{reason: "unmetered network required"}
	}
	return nil
}

func (d *Downloader) fetch(ctx context.Context, name string) error {
	_, err, shared := d.group.Do(name, func() (any, error) {
		startTs := time.Now()
		rc, err := d.fetcher.Open(ctx, name)
		if err != nil {
			downloadsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		defer rc.Close()
		br := bufio.NewReader(rc)
		if _, err := br.Peek(1); err != nil {
			downloadsTotal.WithLabelValues("error").Inc()
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("fetch model %s: empty download", name)
			}
			return nil, fmt.Errorf("fetch model %s: %w", name, err)
		}
		n, err := fsutil.WriteFileAtomic(d.CachePath(name), br)
		if err != nil {
			downloadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("cache model %s: %w", name, err)
		}
		downloadsTotal.WithLabelValues("ok").Inc()
		downloadBytes.Add(float64(n))
		d.log.Info().Str("model", name).Int64("bytes", n).Dur("dur", time.Since(startTs)).Msg("model downloaded")
		return n, nil
	})
	if shared {
		d.log.Debug().Str("model", name).Msg("joined in-flight download")
	}
	return err
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid model name %q", name)
	}
	return nil
}
