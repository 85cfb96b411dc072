// Package rebuild coalesces change notifications into serialized index rebuilds.
package rebuild

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Rebuilder runs one full index build.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Scheduler turns bursts of Notify calls into a single rebuild once the corpus
// has been quiet for the debounce window. Builds run one at a time on the
// Run goroutine; a request arriving mid-build causes exactly one more build.
type Scheduler struct {
	rebuilder Rebuilder
	debounce  time.Duration
	logger    *zap.Logger

	notify chan struct{}
	now    chan struct{}
	builds atomic.Int64
	failed atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the quiet period after the last notification.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = utils.OrNop(l) }
}

// NewScheduler creates a scheduler around r. Call Run to start it.
func NewScheduler(r Rebuilder, opts ...Option) *Scheduler {
	s := &Scheduler{
		rebuilder: r,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		notify:    make(chan struct{}, 1),
		now:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify records that the corpus changed. It never blocks.
func (s *Scheduler) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TriggerNow requests a rebuild without waiting for the debounce window.
func (s *Scheduler) TriggerNow() {
	select {
	case s.now <- struct{}{}:
	default:
	}
}

// Builds returns how many builds have run, successful or not.
func (s *Scheduler) Builds() int64 {
	return s.builds.Load()
}

// Failures returns how many builds returned an error.
func (s *Scheduler) Failures() int64 {
	return s.failed.Load()
}

// Run processes notifications until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.notify:
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
			pending = true
		case <-timer.C:
			pending = false
			s.build(ctx, "debounced")
		case <-s.now:
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			pending = false
			s.build(ctx, "manual")
		}
	}
}

func (s *Scheduler) build(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	s.builds.Add(1)
	started := time.Now()
	s.logger.Info("index rebuild started", zap.String("reason", reason))
	if err := s.rebuilder.Rebuild(ctx); err != nil {
		s.failed.Add(1)
		s.logger.Warn("index rebuild failed", zap.String("reason", reason), zap.Error(err),
			zap.Duration("elapsed", time.Since(started)))
		return
	}
	s.logger.Info("index rebuild finished", zap.String("reason", reason),
		zap.Duration("elapsed", time.Since(started)))
}
