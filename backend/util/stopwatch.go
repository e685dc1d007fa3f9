package util

import (
	"sync"
	"time"
)

// Stopwatch accumulates running time across Start/Stop pairs.
// It is safe for concurrent use; the zero value is stopped at 0.
type Stopwatch struct {
	mu      sync.Mutex
	running bool
	started time.Time
	elapsed time.Duration
}

func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

func (s *Stopwatch) startLocked() {
	if !s.running {
		s.started = time.Now()
		s.running = true
	}
}

func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.elapsed += time.Since(s.started)
		s.running = false
	}
}

// Restart zeroes the stopwatch and, if run is true, starts it again.
func (s *Stopwatch) Restart(run bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.elapsed = 0
	if run {
		s.startLocked()
	}
}

func (s *Stopwatch) Reset() {
	s.Restart(false)
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.elapsed + time.Since(s.started)
	}
	return s.elapsed
}
