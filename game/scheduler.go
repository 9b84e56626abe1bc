package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker delivers ticks on C until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. Tests swap in a manual implementation.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct {
	t *time.Ticker
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// RealClock is the wall-clock Clock
var RealClock Clock = realClock{}

// Scheduler invokes a callback once per period on its own goroutine.
// Stop never waits for the loop, so it is safe to call from inside the
// callback; use Wait to join.
type Scheduler struct {
	interval time.Duration
	clock    Clock

	mu      sync.Mutex
	stop    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup

	tickCount atomic.Uint64
}

// NewScheduler creates a stopped scheduler
func NewScheduler(interval time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		interval: interval,
		clock:    clock,
	}
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the loop with fn as the tick callback. Returns false if a
// loop is already running.
func (s *Scheduler) Start(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}
	s.running.Store(true)
	s.stop = make(chan struct{})

	ticker := s.clock.NewTicker(s.interval)
	s.wg.Add(1)
	go s.loop(ticker, s.stop, fn)
	return true
}

// Stop halts the loop. A callback that already passed its stop check may
// still run once; callers guard their state with an epoch.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	close(s.stop)
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Wait blocks until every loop started so far has exited
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Ticks returns the number of callbacks run since creation
func (s *Scheduler) Ticks() uint64 {
	return s.tickCount.Load()
}

func (s *Scheduler) loop(ticker Ticker, stop <-chan struct{}, fn func()) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			// A tick and a stop can be ready together; stop wins
			select {
			case <-stop:
				return
			default:
			}
			s.tickCount.Add(1)
			fn()
		}
	}
}
