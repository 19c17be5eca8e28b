package session

import "context"

// CapabilityDetector reports whether hardware-accelerated execution is available.
// A non-nil error means the query itself failed, which is distinct from false.
type CapabilityDetector interface {
	GPUAvailable(ctx context.Context) (bool, error)
}

// RuntimeOptions configures runtime initialization.
type RuntimeOptions struct {
	EnableGPUDelegate bool
	Threads           int
}

// Runtime is the inference runtime that must be initialized before any engine is built.
type Runtime interface {
	Initialize(ctx context.Context, opts RuntimeOptions) error
}

// DownloadType selects between cached and update-checking downloads.
type DownloadType string

const (
	// DownloadLocalModel returns the cached model when present, else downloads it.
	DownloadLocalModel DownloadType = "local_model"
	// DownloadLocalModelUpdateInBackground returns the cached model and refreshes it asynchronously.
	DownloadLocalModelUpdateInBackground DownloadType = "local_model_update_in_background"
	// DownloadLatestModel always fetches the latest model.
	DownloadLatestModel DownloadType = "latest_model"
)

// Conditions constrain when a download may run.
type Conditions struct {
	RequireUnmetered bool
}

// ModelSource downloads a named model.
type ModelSource interface {
	GetModel(ctx context.Context, name string, dt DownloadType, cond Conditions) (Artifact, error)
}

// AssetLoader maps a bundled asset into memory.
type AssetLoader interface {
	Load(path string) (Artifact, error)
}

// RuntimeSource selects where the engine's native runtime comes from.
type RuntimeSource string

const (
	RuntimeFromSystemOnly      RuntimeSource = "system_only"
	RuntimeFromApplicationOnly RuntimeSource = "application_only"
)

// EngineOptions configures engine construction.
type EngineOptions struct {
	Runtime     RuntimeSource
	Accelerated bool
	Threads     int
}

// EngineFactory builds an engine from a model artifact.
type EngineFactory interface {
	Create(a Artifact, opts EngineOptions) (Engine, error)
}

// Engine is a constructed, ready-to-run model.
type Engine interface {
	// Run executes one synchronous inference writing into output. Calls are
	// never concurrent on the same engine.
	Run(input, output []float32) error
	// Close releases any resources associated with the engine.
	Close() error
}
