package modelsource

import (
	"context"
	"io"
)

// Fetcher streams the latest copy of a named model from a remote store.
// Callers must close the returned reader.
type Fetcher interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
