package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"predictd/internal/config"
)

// app carries state shared by subcommands after PersistentPreRunE.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "predictd",
		Short:         "Serve a single-input regression model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("PREDICTD_CONFIG"), "Path to a .yaml, .json or .toml config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "json", "Log format: json|console")
	root.PersistentFlags().String("policy", "", "Model acquisition policy: remote|local")
	root.PersistentFlags().String("model", "", "Remote model name or bundled asset name")
	root.PersistentFlags().String("assets-dir", "", "Directory holding bundled .tflite assets")
	root.PersistentFlags().String("base-url", "", "Base URL of the HTTP model store")
	root.PersistentFlags().String("download-type", "", "local_model|local_model_update_in_background|latest_model")
	root.PersistentFlags().Bool("disable-gpu", false, "Skip accelerator detection")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(a.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if a.logLevel != "" {
			cfg.LogLevel = a.logLevel
		}
		cfg = config.ApplyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err := newLogger(cfg.LogLevel, a.logFormat, os.Stderr)
		if err != nil {
			return err
		}
		a.cfg, a.log = cfg, logger
		return nil
	}

	root.AddCommand(newServeCmd(a), newPredictCmd(a))
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set persistent flags over file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if f := flags.Lookup("policy"); f != nil && f.Changed {
		cfg.Model.Policy = f.Value.String()
	}
	if f := flags.Lookup("model"); f != nil && f.Changed {
		cfg.Model.Name = f.Value.String()
	}
	if f := flags.Lookup("assets-dir"); f != nil && f.Changed {
		cfg.Model.AssetsDir = f.Value.String()
	}
	if f := flags.Lookup("base-url"); f != nil && f.Changed {
		cfg.Remote.Source = config.SourceHTTP
		cfg.Remote.BaseURL = f.Value.String()
	}
	if f := flags.Lookup("download-type"); f != nil && f.Changed {
		cfg.Remote.DownloadType = f.Value.String()
	}
	if v, err := flags.GetBool("disable-gpu"); err == nil && v {
		cfg.Runtime.DisableGPU = true
	}
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	switch format {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
