package types

// Model represents a model file available to the daemon.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: rice_stock.tflite
	ID string `json:"id" example:"rice_stock.tflite"`
	// Human-friendly name.
	// example: rice_stock
	Name string `json:"name" example:"rice_stock"`
	// Absolute path to the model file on disk.
	// example: /srv/predictd/assets/rice_stock.tflite
	Path string `json:"path" example:"/srv/predictd/assets/rice_stock.tflite"`
	// Size of the model file in bytes.
	// example: 4096
	SizeBytes int64 `json:"size_bytes" example:"4096"`
}
