package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"predictd/internal/common/fsutil"
	"predictd/internal/config"
	"predictd/internal/engine"
	"predictd/internal/modelsource"
	"predictd/internal/registry"
	"predictd/internal/session"
	"predictd/pkg/types"
)

// stack is a wired but not yet started controller plus its supporting pieces.
type stack struct {
	ctrl       *session.Controller
	downloader *modelsource.Downloader
	assetPath  string
	closers    []func() error
}

func (s *stack) Close() error {
	var errs []error
	if s.ctrl != nil {
		errs = append(errs, s.ctrl.Close())
	}
	if s.downloader != nil {
		s.downloader.Wait()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// buildStack translates cfg into a session.Config with concrete collaborators.
func buildStack(ctx context.Context, cfg config.Config, log zerolog.Logger, h session.Handlers) (*stack, error) {
	st := &stack{}
	rt := engine.NewTFLite(cfg.Runtime.Threads)
	scfg := session.Config{
		ModelID:          cfg.Model.Name,
		Policy:           session.Policy(cfg.Model.Policy),
		DownloadType:     session.DownloadType(cfg.Remote.DownloadType),
		Conditions:       session.Conditions{RequireUnmetered: cfg.Remote.RequireUnmetered},
		StrictCapability: cfg.Runtime.StrictCapability,
		Threads:          cfg.Runtime.Threads,
		Capability:       engine.NewDeviceDetector(cfg.Runtime.GPUDevices, cfg.Runtime.DisableGPU),
		Runtime:          rt,
		Engines:          rt,
		Logger:           &log,
	}

	switch cfg.Model.Policy {
	case config.PolicyLocal:
		st.assetPath = resolveAsset(cfg.Model.AssetsDir, cfg.Model.Name)
		scfg.AssetPath = st.assetPath
		scfg.Assets = modelsource.AssetLoader{Offset: cfg.Model.AssetOffset, Length: cfg.Model.AssetLength}
	default:
		fetcher, closer, err := newFetcher(ctx, cfg.Remote, cfg)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			st.closers = append(st.closers, closer)
		}
		sl := log.With().Str("component", "modelsource").Logger()
		d, err := modelsource.NewDownloader(fetcher, modelsource.DownloaderOptions{
			CacheDir: cfg.Remote.CacheDir,
			Network:  modelsource.StaticNetwork{IsMetered: cfg.Remote.NetworkMetered},
			Logger:   &sl,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
		st.downloader = d
		scfg.Source = d
	}

	st.ctrl = session.New(scfg, h)
	if st.downloader != nil {
		ctrl := st.ctrl
		st.downloader.OnUpdated = func(name string) {
			if err := ctrl.Reload(context.Background()); err != nil {
				log.Debug().Err(err).Str("model", name).Msg("refreshed model not applied")
			}
		}
	}
	return st, nil
}

func newFetcher(ctx context.Context, rc config.RemoteConfig, cfg config.Config) (modelsource.Fetcher, func() error, error) {
	switch rc.Source {
	case config.SourceGCS:
		g, err := modelsource.NewGCSFetcher(ctx, rc.Bucket, rc.Prefix, rc.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case config.SourceHTTP:
		h, err := modelsource.NewHTTPFetcher(rc.BaseURL, cfg.RemoteTimeout())
		if err != nil {
			return nil, nil, err
		}
		return h, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote source: %q", rc.Source)
	}
}

// resolveAsset finds name among the bundled assets. An unknown name still
// yields a path so the failure surfaces as a model load error.
func resolveAsset(dir, name string) string {
	if m, err := registry.Resolve(dir, name); err == nil {
		return m.Path
	}
	if base, err := fsutil.ExpandHome(dir); err == nil {
		dir = base
	}
	return filepath.Join(dir, name)
}

// service adapts the controller and the asset registry to httpapi.Service.
type service struct {
	*session.Controller
	assetsDir string
	log       zerolog.Logger
}

func (s *service) ListModels() []types.Model {
	models, err := registry.LoadDir(s.assetsDir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.assetsDir).Msg("list assets")
		return nil
	}
	return models
}
