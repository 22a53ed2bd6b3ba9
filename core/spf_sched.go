package core

import (
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/encodeous/rbridge/state"
)

// SpfScheduler coalesces SPF requests. Runs are at least MinInterval apart, a
// burst of requests inside the interval produces one run, and a periodic run
// is armed after every run. All methods must be called from the dispatch
// goroutine.
type SpfScheduler struct {
	env *state.Env
	run func(s *state.State) error

	MinInterval  time.Duration
	Periodic     time.Duration
	StartupDelay time.Duration

	created time.Time
	lastRun time.Time
	pending bool
	timer   *clock.Timer
	// gen identifies the armed timer, fires of older timers are dropped
	gen uint64
}

func NewSpfScheduler(env *state.Env, run func(s *state.State) error) *SpfScheduler {
	return &SpfScheduler{
		env:          env,
		run:          run,
		MinInterval:  env.LocalCfg.SpfMinInterval,
		Periodic:     env.LocalCfg.SpfPeriodicInterval,
		StartupDelay: state.SpfStartupDelay,
		created:      env.Now(),
	}
}

// Jitter shortens d by up to pct percent.
func Jitter(d time.Duration, pct int) time.Duration {
	span := d * time.Duration(pct) / 100
	if span <= 0 {
		return d
	}
	return d - rand.N(span+1)
}

func (s *SpfScheduler) arm(delay time.Duration) {
	s.stop()
	gen := s.gen
	s.timer = s.env.ScheduleTask(func(st *state.State) error {
		if gen != s.gen {
			return nil
		}
		return s.fire(st)
	}, delay)
}

func (s *SpfScheduler) stop() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *SpfScheduler) fire(st *state.State) error {
	s.pending = false
	return s.runNow(st)
}

func (s *SpfScheduler) runNow(st *state.State) error {
	s.lastRun = s.env.Now()
	err := s.run(st)
	s.arm(Jitter(s.Periodic, state.SpfJitterPercent))
	return err
}

// Schedule requests a run. It runs immediately when the last run is old
// enough, otherwise a single deferred run is armed.
func (s *SpfScheduler) Schedule(st *state.State) error {
	if s.pending {
		return nil
	}
	now := s.env.Now()
	if since := now.Sub(s.created); since < s.StartupDelay {
		s.arm(s.StartupDelay - since)
		s.pending = true
		return nil
	}
	if diff := now.Sub(s.lastRun); diff < s.MinInterval {
		s.arm(s.MinInterval - diff)
		s.pending = true
		return nil
	}
	s.stop()
	return s.runNow(st)
}

// Pending reports whether a deferred run is armed.
func (s *SpfScheduler) Pending() bool {
	return s.pending
}

func (s *SpfScheduler) Stop() {
	s.stop()
	s.pending = false
}
