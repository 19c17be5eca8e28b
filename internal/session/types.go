package session

// State represents the lifecycle state of a Controller.
type State string

const (
	StateUninitialized       State = "uninitialized"
	StateCheckingCapability  State = "checking_capability"
	StateInitializingRuntime State = "initializing_runtime"
	StateAcquiringModel      State = "acquiring_model"
	StateReady               State = "ready"
	StateFailed              State = "failed"
	StateClosed              State = "closed"
)

// Settled reports whether the setup pipeline has finished in s.
func (s State) Settled() bool {
	return s == StateReady || s == StateFailed || s == StateClosed
}

// Policy selects how the model artifact is obtained.
type Policy string

const (
	PolicyRemote Policy = "remote"
	PolicyLocal  Policy = "local"
)

// Snapshot is a read-only projection of the controller state.
type Snapshot struct {
	SessionID    string
	State        State
	ModelID      string
	Policy       Policy
	GPUCapable   bool
	EngineLoaded bool
	Err          string
}
