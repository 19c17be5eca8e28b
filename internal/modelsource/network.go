package modelsource

import (
	"context"
	"errors"
)

// NetworkMonitor reports properties of the current network connection.
type NetworkMonitor interface {
	Metered(ctx context.Context) (bool, error)
}

// StaticNetwork is a NetworkMonitor with a fixed answer, typically from config.
type StaticNetwork struct {
	IsMetered bool
}

func (s StaticNetwork) Metered(context.Context) (bool, error) { return s.IsMetered, nil }

type conditionsUnmetError struct{ reason string }

func (e conditionsUnmetError) Error() string { return "download conditions not met: " + e.reason }

// IsConditionsUnmet reports whether err was caused by unsatisfied download conditions.
func IsConditionsUnmet(err error) bool {
	var ce conditionsUnmetError
	return errors.As(err, &ce)
}
