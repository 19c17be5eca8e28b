package refresh

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler reloads a target on a cron spec such as "@every 6h" or "0 3 * * *".
// Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	target Reloader
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses spec and prepares a stopped scheduler.
func NewScheduler(spec string, target Reloader, logger *zerolog.Logger) (*Scheduler, error) {
	if target == nil {
		return nil, fmt.Errorf("reload target is required")
	}
	s := &Scheduler{target: target, log: zerolog.Nop()}
	if logger != nil {
		s.log = *logger
	}
	cl := cronLogger{l: s.log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until Stop; reloads use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
}

// Stop halts the schedule and waits for a running reload to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	s.log.Info().Msg("scheduled model refresh")
	if err := s.target.Reload(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled refresh failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
