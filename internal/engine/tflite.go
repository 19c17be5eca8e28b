//go:build tflite

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
	"github.com/mattn/go-tflite/delegates/gpu/gl"
	"github.com/mattn/go-tflite/delegates/xnnpack"

	"predictd/internal/session"
)

// tfliteBuilt indicates this binary was compiled with real TensorFlow Lite support.
var tfliteBuilt = true

// TFLite implements session.Runtime and session.EngineFactory.
type TFLite struct {
	threads int

	mu          sync.Mutex
	initialized bool
	gpuDelegate bool
}

func NewTFLite(threads int) *TFLite {
	return &TFLite{threads: threads}
}

// Initialize verifies the runtime library is usable and records the options.
func (t *TFLite) Initialize(ctx context.Context, opts session.RuntimeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := tflite.NewInterpreterOptions()
	if o == nil {
		return errors.New("tflite runtime unavailable: cannot create interpreter options")
	}
	o.Delete()
	t.mu.Lock()
	t.initialized = true
	t.gpuDelegate = opts.EnableGPUDelegate
	if opts.Threads > 0 {
		t.threads = opts.Threads
	}
	t.mu.Unlock()
	return nil
}

// tfliteEngine owns the model, interpreter and optional delegate. mu guards
// the interpreter's tensors across one Run.
type tfliteEngine struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	delegate    delegates.Delegater
	interpreter *tflite.Interpreter
}

func (t *TFLite) Create(a session.Artifact, opts session.EngineOptions) (session.Engine, error) {
	t.mu.Lock()
	initialized, gpuDelegate, threads := t.initialized, t.gpuDelegate, t.threads
	t.mu.Unlock()
	if !initialized {
		return nil, errors.New("tflite runtime not initialized")
	}
	if opts.Runtime != session.RuntimeFromSystemOnly && opts.Runtime != session.RuntimeFromApplicationOnly {
		return nil, fmt.Errorf("unsupported runtime source %q", opts.Runtime)
	}
	if opts.Threads > 0 {
		threads = opts.Threads
	}

	e := &tfliteEngine{}
	switch a.Kind {
	case session.ArtifactBuffer:
		// NewModel copies the bytes into C memory, so the artifact can be released afterwards.
		e.model = tflite.NewModel(a.Buffer)
	case session.ArtifactFile:
		e.model = tflite.NewModelFromFile(a.Path)
	default:
		return nil, fmt.Errorf("unsupported artifact kind %s", a.Kind)
	}
	if e.model == nil {
		return nil, errors.New("cannot load model")
	}

	e.options = tflite.NewInterpreterOptions()
	if threads > 0 {
		e.options.SetNumThread(threads)
	}
	if opts.Accelerated && gpuDelegate {
		e.delegate = acceleratedDelegate(threads)
		if e.delegate != nil {
			e.options.AddDelegate(e.delegate)
		}
	}
	e.interpreter = tflite.NewInterpreter(e.model, e.options)
	if e.interpreter == nil {
		_ = e.Close()
		return nil, errors.New("cannot create interpreter")
	}
	if status := e.interpreter.AllocateTensors(); status != tflite.OK {
		_ = e.Close()
		return nil, fmt.Errorf("allocate tensors: status %v", status)
	}
	return e, nil
}

// Delegate constructors; tests replace them.
var (
	newGPUDelegate = func() delegates.Delegater { return gl.New(nil) }
	newCPUDelegate = func(threads int) delegates.Delegater {
		return xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads))})
	}
)

// acceleratedDelegate prefers the OpenGL GPU delegate and falls back to the
// XNNPACK CPU delegate when no GPU context can be created.
func acceleratedDelegate(threads int) delegates.Delegater {
	if d := newGPUDelegate(); d != nil {
		return d
	}
	return newCPUDelegate(threads)
}

func (e *tfliteEngine) Run(input, output []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interpreter == nil {
		return errors.New("interpreter released")
	}
	in := e.interpreter.GetInputTensor(0)
	if in == nil {
		return errors.New("model has no input tensor")
	}
	dst := in.Float32s()
	if len(dst) != len(input) {
		return fmt.Errorf("input size mismatch: model wants %d values, got %d", len(dst), len(input))
	}
	copy(dst, input)
	if status := e.interpreter.Invoke(); status != tflite.OK {
		return fmt.Errorf("invoke: status %v", status)
	}
	out := e.interpreter.GetOutputTensor(0)
	if out == nil {
		return errors.New("model has no output tensor")
	}
	src := out.Float32s()
	if len(src) < len(output) {
		return fmt.Errorf("output size mismatch: model produced %d values, want %d", len(src), len(output))
	}
	copy(output, src)
	return nil
}

func (e *tfliteEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interpreter != nil {
		e.interpreter.Delete()
		e.interpreter = nil
	}
	if e.delegate != nil {
		e.delegate.Delete()
		e.delegate = nil
	}
	if e.options != nil {
		e.options.Delete()
		e.options = nil
	}
	if e.model != nil {
		e.model.Delete()
		e.model = nil
	}
	return nil
}
