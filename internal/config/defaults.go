package config

import (
	"fmt"
	"time"
)

const (
	PolicyRemote = "remote"
	PolicyLocal  = "local"

	SourceGCS  = "gcs"
	SourceHTTP = "http"

	DownloadLocalModel                   = "local_model"
	DownloadLocalModelUpdateInBackground = "local_model_update_in_background"
	DownloadLatestModel                  = "latest_model"
)

// Default returns the configuration used when no file or flag overrides a field.
func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Model: ModelConfig{
			Name:      "Rice-Stock",
			Policy:    PolicyRemote,
			AssetsDir: "./assets",
		},
		Remote: RemoteConfig{
			Source:           SourceHTTP,
			CacheDir:         "~/.cache/predictd/models",
			DownloadType:     DownloadLocalModel,
			RequireUnmetered: true,
			TimeoutSeconds:   60,
		},
		HTTP: HTTPConfig{
			MaxBodyBytes: 1 << 20,
		},
	}
}

// ApplyDefaults fills unspecified fields of cfg from Default().
func ApplyDefaults(cfg Config) Config {
	d := Default()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.Model.Policy == "" {
		cfg.Model.Policy = d.Model.Policy
	}
	if cfg.Model.Name == "" {
		if cfg.Model.Policy == PolicyLocal {
			cfg.Model.Name = "rice_stock.tflite"
		} else {
			cfg.Model.Name = d.Model.Name
		}
	}
	if cfg.Model.AssetsDir == "" {
		cfg.Model.AssetsDir = d.Model.AssetsDir
	}
	if cfg.Remote.Source == "" {
		cfg.Remote.Source = d.Remote.Source
	}
	if cfg.Remote.CacheDir == "" {
		cfg.Remote.CacheDir = d.Remote.CacheDir
	}
	if cfg.Remote.DownloadType == "" {
		cfg.Remote.DownloadType = d.Remote.DownloadType
	}
	if cfg.Remote.TimeoutSeconds <= 0 {
		cfg.Remote.TimeoutSeconds = d.Remote.TimeoutSeconds
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = d.HTTP.MaxBodyBytes
	}
	return cfg
}

// Validate rejects values outside the supported enumerations.
func (c Config) Validate() error {
	switch c.Model.Policy {
	case PolicyRemote, PolicyLocal:
	default:
		return fmt.Errorf("unknown model policy: %q", c.Model.Policy)
	}
	if c.Model.AssetOffset < 0 || c.Model.AssetLength < 0 {
		return fmt.Errorf("asset offset and length must be non-negative")
	}
	if c.Model.Policy == PolicyRemote {
		switch c.Remote.Source {
		case SourceGCS:
			if c.Remote.Bucket == "" {
				return fmt.Errorf("remote.bucket is required for the gcs source")
			}
		case SourceHTTP:
			if c.Remote.BaseURL == "" {
				return fmt.Errorf("remote.base_url is required for the http source")
			}
		default:
			return fmt.Errorf("unknown remote source: %q", c.Remote.Source)
		}
	}
	switch c.Remote.DownloadType {
	case DownloadLocalModel, DownloadLocalModelUpdateInBackground, DownloadLatestModel:
	default:
		return fmt.Errorf("unknown download type: %q", c.Remote.DownloadType)
	}
	return nil
}

// RemoteTimeout is the per-download timeout.
func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}
