package refresh

import (
	"context"
	"sync/atomic"
)

type countingReloader struct {
	calls atomic.Int32
	fired chan struct{}
	err   error
}

func newCountingReloader() *countingReloader {
	return &countingReloader{fired: make(chan struct{}, 16)}
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls.Add(1)
	r.fired <- struct{}{}
	return r.err
}
