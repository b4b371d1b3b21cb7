// Package monitoring provides operation latency sampling, periodic
// performance snapshots and threshold-based degradation detection for the
// cache and content read paths.
package monitoring

import (
	"sync"
	"time"
)

// Outcome classifies an instrumented operation's result
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Sample is a single recorded operation measurement
type Sample struct {
	DurationMs float64   `json:"durationMs"`
	Outcome    Outcome   `json:"outcome"`
	Timestamp  time.Time `json:"timestamp"`
}

// ring is a bounded FIFO buffer of samples for one operation name
type ring struct {
	samples []Sample
	next    int
	filled  bool
	fresh   int // samples recorded since the last aggregation
}

func (r *ring) push(s Sample) {
	r.samples[r.next] = s
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.filled = true
	}
	r.fresh++
}

// window returns the retained samples in FIFO order
func (r *ring) window() []Sample {
	if !r.filled {
		out := make([]Sample, r.next)
		copy(out, r.samples[:r.next])
		return out
	}
	out := make([]Sample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	out = append(out, r.samples[:r.next]...)
	return out
}

// Sampler records operation durations into bounded per-operation ring
// buffers. Record is safe for concurrent use from all instrumented paths;
// aggregation happens only on the monitor's own timer.
type Sampler struct {
	mu         sync.Mutex
	windowSize int
	rings      map[string]*ring
	now        func() time.Time
}

// NewSampler creates a sampler with the given per-operation window size
func NewSampler(windowSize int) *Sampler {
	if windowSize <= 0 {
		windowSize = 256
	}
	return &Sampler{
		windowSize: windowSize,
		rings:      make(map[string]*ring),
		now:        time.Now,
	}
}

// Record appends one sample. O(1), never blocks on aggregation.
func (s *Sampler) Record(operation string, duration time.Duration, outcome Outcome) {
	sample := Sample{
		DurationMs: float64(duration.Microseconds()) / 1000.0,
		Outcome:    outcome,
		Timestamp:  s.now(),
	}

	s.mu.Lock()
	r, ok := s.rings[operation]
	if !ok {
		r = &ring{samples: make([]Sample, s.windowSize)}
		s.rings[operation] = r
	}
	r.push(sample)
	s.mu.Unlock()
}

// OperationWindow is one operation's retained samples at aggregation time
type OperationWindow struct {
	Operation string
	Samples   []Sample
	Fresh     int
}

// Windows copies out every operation window that received at least one new
// sample since the previous call, and resets the fresh counters. The copy
// happens under the lock so aggregation never observes a torn sample.
func (s *Sampler) Windows() []OperationWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var windows []OperationWindow
	for op, r := range s.rings {
		if r.fresh == 0 {
			continue
		}
		windows = append(windows, OperationWindow{
			Operation: op,
			Samples:   r.window(),
			Fresh:     r.fresh,
		})
		r.fresh = 0
	}
	return windows
}
