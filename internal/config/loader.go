package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Default() values in ApplyDefaults.
type Config struct {
	Addr     string        `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	Model    ModelConfig   `json:"model" yaml:"model" toml:"model"`
	Remote   RemoteConfig  `json:"remote" yaml:"remote" toml:"remote"`
	Runtime  RuntimeConfig `json:"runtime" yaml:"runtime" toml:"runtime"`
	HTTP     HTTPConfig    `json:"http" yaml:"http" toml:"http"`
}

// ModelConfig selects the model and how it is acquired.
type ModelConfig struct {
	// Name is the remote model key (remote policy) or the asset file name (local policy).
	Name string `json:"name" yaml:"name" toml:"name"`
	// Policy is "remote" or "local".
	Policy string `json:"policy" yaml:"policy" toml:"policy"`
	// AssetsDir holds bundled models for the local policy.
	AssetsDir string `json:"assets_dir" yaml:"assets_dir" toml:"assets_dir"`
	// AssetOffset and AssetLength bound the model inside its container file.
	// A zero length maps to the end of the file.
	AssetOffset int64 `json:"asset_offset" yaml:"asset_offset" toml:"asset_offset"`
	AssetLength int64 `json:"asset_length" yaml:"asset_length" toml:"asset_length"`
	// Watch reloads the model when the local asset changes on disk.
	Watch bool `json:"watch" yaml:"watch" toml:"watch"`
}

// RemoteConfig configures the model download service.
type RemoteConfig struct {
	// Source is "gcs" or "http".
	Source          string `json:"source" yaml:"source" toml:"source"`
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix          string `json:"prefix" yaml:"prefix" toml:"prefix"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" toml:"credentials_file"`
	BaseURL         string `json:"base_url" yaml:"base_url" toml:"base_url"`
	CacheDir        string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	// DownloadType is local_model, local_model_update_in_background or latest_model.
	DownloadType     string `json:"download_type" yaml:"download_type" toml:"download_type"`
	RequireUnmetered bool   `json:"require_unmetered" yaml:"require_unmetered" toml:"require_unmetered"`
	// NetworkMetered declares the host network as metered.
	NetworkMetered bool `json:"network_metered" yaml:"network_metered" toml:"network_metered"`
	// RefreshSchedule is a cron spec (e.g. "@every 6h") for periodic re-acquisition.
	RefreshSchedule string `json:"refresh_schedule" yaml:"refresh_schedule" toml:"refresh_schedule"`
	TimeoutSeconds  int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// RuntimeConfig configures capability detection and the inference engine.
type RuntimeConfig struct {
	DisableGPU       bool     `json:"disable_gpu" yaml:"disable_gpu" toml:"disable_gpu"`
	StrictCapability bool     `json:"strict_capability" yaml:"strict_capability" toml:"strict_capability"`
	GPUDevices       []string `json:"gpu_devices" yaml:"gpu_devices" toml:"gpu_devices"`
	Threads          int      `json:"threads" yaml:"threads" toml:"threads"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
