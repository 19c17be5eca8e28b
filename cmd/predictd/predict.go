package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"predictd/internal/session"
)

func newPredictCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:     "predict <value>",
		Short:   "Load the model once and print the prediction for value",
		Example: "  predictd predict 3.0 --policy local --assets-dir ./assets",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			out, err := predictOnce(ctx, a, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time to wait for setup and inference")
	return cmd
}

// predictOnce runs setup to completion and delivers one Predict through the
// session callbacks.
func predictOnce(ctx context.Context, a *app, input string) (string, error) {
	results := make(chan string, 1)
	errs := make(chan error, 1)
	h := session.Handlers{
		OnResult: func(out string) { results <- out },
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	}
	st, err := buildStack(ctx, a.cfg, a.log, h)
	if err != nil {
		return "", err
	}
	defer st.Close()

	st.ctrl.Start(ctx)
	if err := st.ctrl.Wait(ctx); err != nil {
		return "", fmt.Errorf("model setup: %w", err)
	}
	// Setup completed without error; anything queued is stale.
	select {
	case <-errs:
	default:
	}

	st.ctrl.Predict(input)
	select {
	case out := <-results:
		return out, nil
	case err := <-errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
