package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"predictd/internal/config"
	"predictd/internal/engine"
	"predictd/internal/httpapi"
	"predictd/internal/refresh"
	"predictd/internal/session"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP inference daemon",
		Example: "  predictd serve --config predictd.yaml\n" +
			"  predictd serve --policy local --assets-dir ./assets --model rice_stock.tflite",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") || os.Getenv("PREDICTD_ADDR") != "" {
				a.cfg.Addr = addr
			}
			if corsOrigins != "" {
				a.cfg.HTTP.CORSEnabled = true
				a.cfg.HTTP.CORSOrigins = splitCSV(corsOrigins)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	defaultAddr := ":8080"
	if v := os.Getenv("PREDICTD_ADDR"); v != "" {
		defaultAddr = v
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "HTTP listen address (defaults PREDICTD_ADDR or :8080)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	st, err := buildStack(ctx, cfg, log, session.Handlers{
		OnReady:             func() { log.Info().Str("model", cfg.Model.Name).Msg("model ready") },
		OnDownloadAvailable: func() { log.Info().Str("model", cfg.Model.Name).Msg("model download available") },
		OnError:             func(err error) { log.Error().Err(err).Msg("session error") },
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown cleanup")
		}
	}()
	st.ctrl.Start(ctx)

	stopRefresh, err := startRefresh(ctx, cfg, st, a)
	if err != nil {
		return err
	}
	defer stopRefresh()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetReloadTimeout(cfg.RemoteTimeout())
	httpapi.SetCORSOptions(cfg.HTTP.CORSEnabled, cfg.HTTP.CORSOrigins, nil, nil)

	svc := &service{Controller: st.ctrl, assetsDir: cfg.Model.AssetsDir, log: log}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("policy", cfg.Model.Policy).Str("model", cfg.Model.Name).Bool("tflite", engine.Built()).Msg("predictd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// startRefresh wires the asset watcher (local policy) and the cron refresher
// (remote policy) to the controller.
func startRefresh(ctx context.Context, cfg config.Config, st *stack, a *app) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}
	rl := a.log.With().Str("component", "refresh").Logger()

	if cfg.Model.Policy == config.PolicyLocal && cfg.Model.Watch {
		w, err := refresh.NewWatcher(refresh.WatcherConfig{Path: st.assetPath, Target: st.ctrl, Logger: &rl})
		if err != nil {
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			return nil, err
		}
		stops = append(stops, func() { _ = w.Stop() })
	}
	if cfg.Model.Policy == config.PolicyRemote && cfg.Remote.RefreshSchedule != "" {
		s, err := refresh.NewScheduler(cfg.Remote.RefreshSchedule, st.ctrl, &rl)
		if err != nil {
			stopAll()
			return nil, err
		}
		s.Start(ctx)
		stops = append(stops, s.Stop)
	}
	return stopAll, nil
}
