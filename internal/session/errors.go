package session

import "errors"

// ErrorKind classifies failures reported through OnError.
type ErrorKind string

const (
	KindCapabilityCheck           ErrorKind = "CapabilityCheckError"
	KindRuntimeInitialization     ErrorKind = "RuntimeInitializationError"
	KindModelDownload             ErrorKind = "ModelDownloadError"
	KindModelLoad                 ErrorKind = "ModelLoadError"
	KindInterpreterInitialization ErrorKind = "InterpreterInitializationError"
	KindInputParse                ErrorKind = "InputParseError"
	KindInferenceExecution        ErrorKind = "InferenceExecutionError"
)

// Error is a classified session failure. Err carries the underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error { return &Error{Kind: kind, Err: err} }

// KindOf extracts the ErrorKind from err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a session error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// notReadyError signals that no engine handle is live.
type notReadyError struct{}

func (notReadyError) Error() string { return "session not ready" }

// ErrNotReady is returned by Infer and Reload when no engine is loaded.
var ErrNotReady error = notReadyError{}

// IsNotReady reports whether err indicates a session without a live engine.
func IsNotReady(err error) bool {
	var nr notReadyError
	return errors.As(err, &nr)
}

// ErrClosed is returned for work abandoned because the controller was closed.
var ErrClosed = errors.New("session closed")

// dependencyUnavailableError signals a missing external dependency (e.g. the
// inference runtime was not compiled in) so callers can surface 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
