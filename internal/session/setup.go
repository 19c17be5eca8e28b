package session

import (
	"context"
	"errors"
	"time"
)

// stageFn is one step of the setup pipeline. It returns the next stage, or nil
// when the pipeline has reached a settled state.
type stageFn func(ctx context.Context) stageFn

// Start launches the setup pipeline on its own goroutine and returns immediately.
// Outcomes are delivered through Handlers; Done and Wait observe completion.
// Subsequent calls are no-ops. Close cancels the context handed to the stages.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			close(c.done)
			return
		}
		ctx, c.cancel = context.WithCancel(ctx)
		c.mu.Unlock()
		go c.run(ctx)
	})
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	startTs := time.Now()
	c.log.Info().Str("policy", string(c.cfg.Policy)).Msg("setup start")
	for stage := c.checkCapability; stage != nil; {
		stage = stage(ctx)
	}
	c.log.Info().Str("state", string(c.State())).Dur("dur", time.Since(startTs)).Msg("setup end")
}

func (c *Controller) checkCapability(ctx context.Context) stageFn {
	if !c.transition(StateCheckingCapability) {
		return nil
	}
	gpu := false
	if c.cfg.Capability != nil {
		ok, err := c.cfg.Capability.GPUAvailable(ctx)
		if err != nil {
			if c.cfg.StrictCapability {
				c.publish("capability_error", map[string]any{"error": err.Error(), "fatal": true})
				c.fail(newError(KindCapabilityCheck, err))
				return nil
			}
			c.log.Warn().Err(err).Msg("capability query failed; continuing without acceleration")
			c.publish("capability_error", map[string]any{"error": err.Error(), "fatal": false})
		} else {
			gpu = ok
		}
	}
	c.mu.Lock()
	c.gpuCapable = gpu
	c.mu.Unlock()
	c.publish("capability_checked", map[string]any{"gpu": gpu})
	return c.initRuntime
}

func (c *Controller) initRuntime(ctx context.Context) stageFn {
	if !c.transition(StateInitializingRuntime) {
		return nil
	}
	opts := RuntimeOptions{EnableGPUDelegate: c.GPUCapable(), Threads: c.cfg.Threads}
	if c.cfg.Runtime != nil {
		if err := c.cfg.Runtime.Initialize(ctx, opts); err != nil {
			c.publish("runtime_error", map[string]any{"error": err.Error()})
			c.fail(newError(KindRuntimeInitialization, err))
			return nil
		}
	}
	c.publish("runtime_ready", map[string]any{"gpu_delegate": opts.EnableGPUDelegate})
	return c.acquire
}

func (c *Controller) acquire(ctx context.Context) stageFn {
	if !c.transition(StateAcquiringModel) {
		return nil
	}
	if err := c.acquireModel(ctx); err != nil {
		if !errors.Is(err, ErrClosed) {
			c.fail(err)
		}
		return nil
	}
	if c.transition(StateReady) {
		c.handlers.ready()
	}
	return nil
}
