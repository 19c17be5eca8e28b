package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Controller is a single inference session: it owns the engine handle and drives
// the setup pipeline from capability detection to a ready engine.
type Controller struct {
	cfg       Config
	handlers  Handlers
	publisher EventPublisher
	log       zerolog.Logger

	id        string
	startTime time.Time

	mu         sync.Mutex // guards state, gpuCapable, lastErr, cancel
	state      State
	gpuCapable bool
	lastErr    error
	cancel     context.CancelFunc

	// engMu guards engine. Readers hold it across Engine.Run; release and
	// replacement hold it exclusively.
	engMu  sync.RWMutex
	engine Engine
	// runMu serializes Engine.Run; engines are not safe for concurrent use.
	runMu sync.Mutex

	// acqMu serializes model acquisition between setup and Reload.
	acqMu sync.Mutex

	loads       atomic.Uint64
	predictions atomic.Uint64

	startOnce sync.Once
	done      chan struct{}
}

// New constructs a Controller in the uninitialized state. Call Start to run setup.
func New(cfg Config, h Handlers) *Controller {
	cfg = cfg.withDefaults()
	id := uuid.NewString()
	c := &Controller{
		cfg:       cfg,
		handlers:  h,
		publisher: cfg.Publisher,
		log:       cfg.Logger.With().Str("session", id).Str("model", cfg.ModelID).Logger(),
		id:        id,
		startTime: time.Now(),
		state:     StateUninitialized,
		done:      make(chan struct{}),
	}
	setStateGauge("", StateUninitialized)
	return c
}

// Open constructs a Controller and immediately starts its setup pipeline.
func Open(ctx context.Context, cfg Config, h Handlers) *Controller {
	c := New(cfg, h)
	c.Start(ctx)
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// ModelID returns the configured model identifier.
func (c *Controller) ModelID() string { return c.cfg.ModelID }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether a live engine handle exists.
func (c *Controller) Ready() bool {
	c.engMu.RLock()
	defer c.engMu.RUnlock()
	return c.engine != nil
}

// GPUCapable reports the capability recorded during setup.
func (c *Controller) GPUCapable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gpuCapable
}

// Err returns the last reported error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Done is closed when the setup pipeline has finished, successfully or not.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Wait blocks until setup finishes or ctx is done. It returns nil when the
// controller is ready and the setup error otherwise.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		if c.lastErr != nil {
			return c.lastErr
		}
		return ErrNotReady
	}
}

// Snapshot returns a read-only view of the controller state.
func (c *Controller) Snapshot() Snapshot {
	loaded := c.Ready()
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		SessionID:    c.id,
		State:        c.state,
		ModelID:      c.cfg.ModelID,
		Policy:       c.cfg.Policy,
		GPUCapable:   c.gpuCapable,
		EngineLoaded: loaded,
	}
	if c.lastErr != nil {
		s.Err = c.lastErr.Error()
	}
	return s
}

// transition moves to the given state unless the controller was closed.
func (c *Controller) transition(to State) bool {
	c.mu.Lock()
	from := c.state
	if from == StateClosed {
		c.mu.Unlock()
		return false
	}
	c.state = to
	c.mu.Unlock()
	setStateGauge(from, to)
	c.log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("state transition")
	return true
}

func (c *Controller) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateClosed
}

// fail records err, moves to failed and reports err once through OnError.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateFailed
	c.lastErr = err
	c.mu.Unlock()
	setStateGauge(from, StateFailed)
	c.log.Error().Err(err).Str("from", string(from)).Msg("session failed")
	c.handlers.fail(err)
}

// report records and surfaces err without changing state.
func (c *Controller) report(err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.lastErr = err
	c.mu.Unlock()
	c.log.Warn().Err(err).Msg("session error")
	c.handlers.fail(err)
}

func (c *Controller) publish(name string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	c.publisher.Publish(Event{Name: name, ModelID: c.cfg.ModelID, Fields: fields})
}
