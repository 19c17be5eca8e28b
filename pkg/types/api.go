package types

// PredictRequest represents a prediction request payload.
type PredictRequest struct {
	// Required textual numeric input fed to the model.
	// example: 3.0
	Input string `json:"input" example:"3.0"`
}

// PredictResponse carries the single scalar produced by the model.
type PredictResponse struct {
	// Model output rendered as text.
	// example: 41.75
	Output string `json:"output" example:"41.75"`
	// Identifier of the model that served the request.
	// example: Rice-Stock
	Model string `json:"model" example:"Rice-Stock"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of bundled models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ReloadResponse is returned by POST /reload.
type ReloadResponse struct {
	// Lifecycle state after the reload attempt.
	// example: ready
	State string `json:"state" example:"ready"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Identifier of this session (changes on every process start).
	// example: 5b1c2f0e-7d4c-4a8e-9d57-1f0a3b2c4d5e
	SessionID string `json:"session_id" example:"5b1c2f0e-7d4c-4a8e-9d57-1f0a3b2c4d5e"`
	// Lifecycle state (uninitialized, checking_capability, initializing_runtime,
	// acquiring_model, ready, failed, closed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Model identifier or asset name being served.
	// example: Rice-Stock
	ModelID string `json:"model_id" example:"Rice-Stock"`
	// Model acquisition policy (remote or local).
	// example: remote
	Policy string `json:"policy" example:"remote"`
	// Whether the accelerated execution path was requested.
	// example: false
	GPUCapable bool `json:"gpu_capable" example:"false"`
	// Whether a live engine handle exists.
	// example: true
	EngineLoaded bool `json:"engine_loaded" example:"true"`
	// Last error observed by the session (if any).
	LastError string `json:"last_error,omitempty"`
	// Total number of engine constructions.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Total number of predictions attempted against a live engine.
	// example: 12
	PredictionsTotal uint64 `json:"predictions_total" example:"12"`
	// Uptime of the session in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
