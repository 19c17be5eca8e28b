// Package refresh triggers model reacquisition: on changes to a bundled asset
// file (fsnotify) or on a cron schedule for remote models.
package refresh

import "context"

// Reloader re-runs model acquisition. *session.Controller satisfies it.
type Reloader interface {
	Reload(ctx context.Context) error
}
