//go:build !tflite

package engine

// This file provides a no-CGO stub for the TensorFlow Lite adapter. It is compiled
// when the 'tflite' build tag is NOT set, keeping default builds and CI CGO-free.

import (
	"context"

	"predictd/internal/session"
)

var tfliteBuilt = false

const notBuiltMsg = "tflite support not built (missing 'tflite' build tag)"

// TFLite is a stub that satisfies session.Runtime and session.EngineFactory but
// refuses to run without the 'tflite' build tag.
type TFLite struct {
	threads int
}

func NewTFLite(threads int) *TFLite {
	return &TFLite{threads: threads}
}

func (t *TFLite) Initialize(ctx context.Context, opts session.RuntimeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return session.ErrDependencyUnavailable(notBuiltMsg)
}

func (t *TFLite) Create(a session.Artifact, opts session.EngineOptions) (session.Engine, error) {
	return nil, session.ErrDependencyUnavailable(notBuiltMsg)
}
