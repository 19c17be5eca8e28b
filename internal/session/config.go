package session

import "github.com/rs/zerolog"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultModelID      = "Rice-Stock"
	defaultPolicy       = PolicyRemote
	defaultDownloadType = DownloadLocalModel
)

// Handlers are the caller-supplied outcome callbacks. All are optional and are
// invoked from the goroutine that produced the outcome.
type Handlers struct {
	// OnReady fires once the engine handle is live.
	OnReady func()
	// OnResult receives the textual model output of Predict.
	OnResult func(output string)
	// OnError receives every reported failure, classified as *Error where applicable.
	OnError func(err error)
	// OnDownloadAvailable fires once a remote artifact exists, before the engine is built.
	OnDownloadAvailable func()
}

func (h Handlers) ready() {
	if h.OnReady != nil {
		h.OnReady()
	}
}

func (h Handlers) result(s string) {
	if h.OnResult != nil {
		h.OnResult(s)
	}
}

func (h Handlers) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Handlers) downloadAvailable() {
	if h.OnDownloadAvailable != nil {
		h.OnDownloadAvailable()
	}
}

// Config encapsulates all tunables and collaborators for Controller construction.
type Config struct {
	// ModelID is the remote model key (remote policy) or a label for the asset (local policy).
	ModelID string
	Policy  Policy
	// AssetPath locates the bundled model for the local policy.
	AssetPath    string
	DownloadType DownloadType
	Conditions   Conditions
	// StrictCapability turns a failed capability query into a fatal CapabilityCheckError.
	// By default the query failure is logged and setup continues without acceleration.
	StrictCapability bool
	Threads          int

	Capability CapabilityDetector
	Runtime    Runtime
	Source     ModelSource
	Assets     AssetLoader
	Engines    EngineFactory

	Publisher EventPublisher
	Logger    *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.ModelID == "" {
		c.ModelID = defaultModelID
	}
	if c.Policy == "" {
		c.Policy = defaultPolicy
	}
	if c.DownloadType == "" {
		c.DownloadType = defaultDownloadType
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
	return c
}
