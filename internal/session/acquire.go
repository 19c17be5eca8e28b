package session

import (
	"context"
	"errors"
	"fmt"
)

// acquireModel obtains the artifact according to the configured policy and
// installs a new engine built from it. Calls are serialized.
func (c *Controller) acquireModel(ctx context.Context) error {
	c.acqMu.Lock()
	defer c.acqMu.Unlock()

	art, err := c.fetchArtifact(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := art.Release(); rerr != nil {
			c.log.Warn().Err(rerr).Msg("artifact release failed")
		}
	}()
	return c.installEngine(art)
}

func (c *Controller) fetchArtifact(ctx context.Context) (Artifact, error) {
	switch c.cfg.Policy {
	case PolicyRemote:
		if c.cfg.Source == nil {
			return Artifact{}, newError(KindModelDownload, errors.New("no model source configured"))
		}
		art, err := c.cfg.Source.GetModel(ctx, c.cfg.ModelID, c.cfg.DownloadType, c.cfg.Conditions)
		if err == nil {
			err = art.Validate()
		}
		if err != nil {
			if c.closed() {
				return Artifact{}, ErrClosed
			}
			c.publish("download_error", map[string]any{"error": err.Error()})
			return Artifact{}, newError(KindModelDownload, err)
		}
		if c.closed() {
			_ = art.Release()
			return Artifact{}, ErrClosed
		}
		c.log.Info().Str("kind", art.Kind.String()).Str("path", art.Path).Msg("download available")
		c.publish("download_available", map[string]any{"kind": art.Kind.String(), "path": art.Path})
		c.handlers.downloadAvailable()
		return art, nil
	case PolicyLocal:
		if c.cfg.Assets == nil {
			return Artifact{}, newError(KindModelLoad, errors.New("no asset loader configured"))
		}
		art, err := c.cfg.Assets.Load(c.cfg.AssetPath)
		if err == nil {
			if verr := art.Validate(); verr != nil {
				_ = art.Release()
				err = verr
			}
		}
		if err != nil {
			c.publish("model_load_error", map[string]any{"error": err.Error(), "path": c.cfg.AssetPath})
			return Artifact{}, newError(KindModelLoad, err)
		}
		return art, nil
	default:
		return Artifact{}, newError(KindModelLoad, fmt.Errorf("unknown acquisition policy %q", c.cfg.Policy))
	}
}

// installEngine releases the previous handle and installs one built from art.
// Both happen under the exclusive engine lock, so Close and Predict observe
// either the old handle, no handle, or the new one.
func (c *Controller) installEngine(art Artifact) error {
	opts := EngineOptions{
		Runtime:     RuntimeFromSystemOnly,
		Accelerated: c.GPUCapable(),
		Threads:     c.cfg.Threads,
	}

	c.engMu.Lock()
	defer c.engMu.Unlock()
	if c.closed() {
		return ErrClosed
	}
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			c.log.Warn().Err(err).Msg("previous engine close failed")
		}
		c.engine = nil
	}
	if c.cfg.Engines == nil {
		err := errors.New("no engine factory configured")
		c.publish("engine_error", map[string]any{"error": err.Error()})
		return newError(KindInterpreterInitialization, err)
	}
	eng, err := createEngine(c.cfg.Engines, art, opts)
	if err != nil {
		c.publish("engine_error", map[string]any{"error": err.Error()})
		return newError(KindInterpreterInitialization, err)
	}
	c.engine = eng
	c.loads.Add(1)
	loadsTotal.Inc()
	c.log.Info().Bool("accelerated", opts.Accelerated).Str("artifact", art.Kind.String()).Msg("engine ready")
	c.publish("engine_ready", map[string]any{"accelerated": opts.Accelerated, "artifact": art.Kind.String()})
	return nil
}

// createEngine converts factory panics into errors; no partially built handle escapes.
func createEngine(f EngineFactory, art Artifact, opts EngineOptions) (eng Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			eng = nil
			err = fmt.Errorf("engine construction panicked: %v", r)
		}
	}()
	eng, err = f.Create(art, opts)
	if err == nil && eng == nil {
		err = errors.New("engine factory returned no engine")
	}
	if err != nil && eng != nil {
		_ = eng.Close()
		eng = nil
	}
	return eng, err
}
