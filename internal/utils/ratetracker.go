package utils

import "sync"

// RateTracker stores recent boolean outcomes and computes their acceptance
// rate over a bounded window. The sampler uses one per run to report windowed
// acceptance without holding the full chain history.
type RateTracker struct {
	mu       sync.RWMutex
	outcomes []bool
	maxSize  int
}

// NewRateTracker creates a tracker storing up to maxSize outcomes.
func NewRateTracker(maxSize int) *RateTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &RateTracker{maxSize: maxSize}
}

// Observe records a new outcome.
func (r *RateTracker) Observe(accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, accepted)
	if len(r.outcomes) > r.maxSize {
		// Drop oldest outcome to bound memory.
		copy(r.outcomes[0:], r.outcomes[1:])
		r.outcomes = r.outcomes[:r.maxSize]
	}
}

// Rate returns the fraction of accepted outcomes in the window, or zero when
// nothing has been observed.
func (r *RateTracker) Rate() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.outcomes) == 0 {
		return 0
	}
	accepted := 0
	for _, ok := range r.outcomes {
		if ok {
			accepted++
		}
	}
	return float64(accepted) / float64(len(r.outcomes))
}

// Count returns the number of outcomes recorded in the window.
func (r *RateTracker) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outcomes)
}
