// internal/service/aggregation/scheduler.go

package aggregation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Importer is a secondary job run in the same daily slot as the refresh
type Importer interface {
	Import(ctx context.Context) (int, error)
}

// SchedulerConfig contains configuration for the daily refresh
type SchedulerConfig struct {
	Hour       int
	RunTimeout time.Duration
}

// Scheduler runs the aggregation engine once a day at a fixed local hour.
// Runs happen on a single goroutine, so a run never overlaps the previous
// scheduled one.
type Scheduler struct {
	engine    *Engine
	importers []Importer
	config    SchedulerConfig
	log       zerolog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new daily scheduler
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewScheduler(engine *Engine, config SchedulerConfig, log zerolog.Logger, importers ...Importer) *Scheduler {
	if config.RunTimeout <= 0 {
		config.RunTimeout = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		engine:    engine,
		importers: importers,
		config:    config,
		log:       log,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins waiting for the next scheduled slot
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()

	s.log.Info().
		Int("hour", s.config.Hour).
		Time("next_run", NextRun(s.now(), s.config.Hour)).
		Msg("restaurant refresh scheduled")
}

// Stop cancels the loop and waits for an active run to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	c := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		wait := NextRun(s.now(), s.config.Hour).Sub(s.now())
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.config.RunTimeout)
	defer cancel()

	// Errors are logged and recorded by the engine
	_, _ = s.engine.run(ctx, TriggerScheduled)

	for _, imp := range s.importers {
		n, err := imp.Import(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("scheduled import failed")
			continue
		}
		s.log.Info().Int("count", n).Msg("scheduled import complete")
	}
}

// NextRun returns the first time strictly after now at hour:00 local time
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
