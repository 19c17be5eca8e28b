package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	gpu bool
	err error
}

func (f fakeDetector) GPUAvailable(ctx context.Context) (bool, error) { return f.gpu, f.err }

type fakeRuntime struct {
	mu    sync.Mutex
	err   error
	calls int
	got   RuntimeOptions
}

func (f *fakeRuntime) Initialize(ctx context.Context, opts RuntimeOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = opts
	return f.err
}

// fakeSource returns art/err; when gate is non-nil it blocks until gate is closed.
type fakeSource struct {
	art     Artifact
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
	rec     *recorder
}

func (f *fakeSource) GetModel(ctx context.Context, name string, dt DownloadType, cond Conditions) (Artifact, error) {
	f.calls.Add(1)
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.rec != nil {
		f.rec.add("fetch")
	}
	return f.art, f.err
}

type fakeAssets struct {
	art  Artifact
	err  error
	path string
}

func (f *fakeAssets) Load(path string) (Artifact, error) {
	f.path = path
	return f.art, f.err
}

type fakeEngine struct {
	id      int
	out     float32
	err     error
	panicky bool
	runs    atomic.Int32
	closes  atomic.Int32
	// ranAfterClose counts Run calls observed after Close began.
	ranAfterClose atomic.Int32
}

func (e *fakeEngine) Run(in, out []float32) error {
	if e.closes.Load() > 0 {
		e.ranAfterClose.Add(1)
	}
	e.runs.Add(1)
	if e.panicky {
		panic("kaboom")
	}
	if e.err != nil {
		return e.err
	}
	out[0] = in[0]*2 + e.out
	return nil
}

func (e *fakeEngine) Close() error {
	e.closes.Add(1)
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	err     error
	panicky bool
	engErr  error
	engines []*fakeEngine
	opts    []EngineOptions
	arts    []Artifact
	rec     *recorder
	// liveAtCreate records how many engines were still open when a new one was built.
	liveAtCreate []int
}

func (f *fakeFactory) Create(a Artifact, opts EngineOptions) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec != nil {
		f.rec.add("create")
	}
	if f.panicky {
		panic("factory exploded")
	}
	f.opts = append(f.opts, opts)
	f.arts = append(f.arts, a)
	if f.err != nil {
		return nil, f.err
	}
	live := 0
	for _, e := range f.engines {
		if e.closes.Load() == 0 {
			live++
		}
	}
	f.liveAtCreate = append(f.liveAtCreate, live)
	e := &fakeEngine{id: len(f.engines) + 1, out: 0.5, err: f.engErr}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *fakeFactory) engine(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[i]
}

// recorder captures handler invocations in order.
type recorder struct {
	mu      sync.Mutex
	seq     []string
	results []string
	errs    []error
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.seq = append(r.seq, s)
	r.mu.Unlock()
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnReady:             func() { r.add("ready") },
		OnDownloadAvailable: func() { r.add("download") },
		OnResult: func(s string) {
			r.mu.Lock()
			r.results = append(r.results, s)
			r.seq = append(r.seq, "result")
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.seq = append(r.seq, "error")
			r.mu.Unlock()
		},
	}
}

func (r *recorder) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seq...)
}

func (r *recorder) resultList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.results...)
}

func (r *recorder) errList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

// remoteConfig wires fakes for a successful remote setup.
func remoteConfig(src *fakeSource, f *fakeFactory) Config {
	return Config{
		ModelID:    "Rice-Stock",
		Policy:     PolicyRemote,
		Conditions: Conditions{RequireUnmetered: true},
		Capability: fakeDetector{},
		Runtime:    &fakeRuntime{},
		Source:     src,
		Engines:    f,
	}
}

// openAndWait starts a controller and waits for setup to settle.
func openAndWait(t *testing.T, cfg Config, h Handlers) *Controller {
	t.Helper()
	c := Open(testCtx(t), cfg, h)
	t.Cleanup(func() { _ = c.Close() })
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("setup did not settle; state=%s", c.State())
	}
	return c
}

var errBoom = errors.New("boom")

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	k, ok := KindOf(err)
	require.True(t, ok, "not a session error: %v", err)
	require.Equal(t, kind, k, "err=%v", err)
}
