// Package scheduler drives periodic snapshot collection.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/surge-devops/surge/internal/collect"
)

// ErrInterval is returned by Run when the interval is not positive.
var ErrInterval = errors.New("interval must be positive")

// Sink consumes a collected snapshot.
type Sink func(ctx context.Context, snap *collect.Snapshot) error

// Scheduler collects on a fixed interval and hands each snapshot to every
// sink in order.
type Scheduler struct {
	Interval time.Duration
	Collect  func(ctx context.Context) (*collect.Snapshot, error)
	Sinks    []Sink
}

// Run collects immediately and then once per interval until ctx is done.
// Collection and sink errors are logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		return ErrInterval
	}
	if s.Collect == nil {
		return errors.New("scheduler: no collect function")
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", s.Interval).Int("sinks", len(s.Sinks)).Msg("scheduler started")
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	snap, err := s.Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("collection failed")
		if snap == nil {
			return
		}
	}
	for i, sink := range s.Sinks {
		if err := sink(ctx, snap); err != nil {
			log.Warn().Err(err).Int("sink", i).Msg("sink failed")
		}
	}
}
