package session

import (
	"context"
	"errors"
)

// Close releases the engine handle if present and moves to the closed state.
// It is safe to call multiple times and before the controller is ready. Any
// in-flight setup is canceled; a late acquisition discards its engine.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	from := c.state
	c.state = StateClosed
	cancel := c.cancel
	c.mu.Unlock()
	setStateGauge(from, StateClosed)
	if cancel != nil {
		cancel()
	}
	// Unblock waiters when setup was never started.
	c.startOnce.Do(func() { close(c.done) })

	c.engMu.Lock()
	eng := c.engine
	c.engine = nil
	c.engMu.Unlock()

	c.publish("close", map[string]any{"engine_loaded": eng != nil})
	c.log.Info().Bool("engine_loaded", eng != nil).Msg("session closed")
	if eng != nil {
		return eng.Close()
	}
	return nil
}

// Reload re-enters model acquisition on a ready controller and swaps the engine
// handle. A failure before engine construction (download or asset load) is
// reported and the previous engine keeps serving; a construction failure leaves
// the controller failed without a handle.
func (c *Controller) Reload(ctx context.Context) error {
	if c.State() != StateReady {
		return ErrNotReady
	}
	c.publish("reload_start", nil)
	c.log.Info().Msg("reload start")
	err := c.acquireModel(ctx)
	switch {
	case err == nil:
		c.publish("reload_done", nil)
		return nil
	case errors.Is(err, ErrClosed):
		return err
	case IsKind(err, KindInterpreterInitialization):
		c.fail(err)
	default:
		c.report(err)
	}
	return err
}
