package domain

import "sync"

// PipelineStats counts translation outcomes for the process lifetime.
// Safe for concurrent use; reset only on explicit request.
type PipelineStats struct {
	mu        sync.Mutex
	attempted int
	succeeded int
	failed    int
}

// RecordSuccess counts one accepted translation.
func (s *PipelineStats) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted++
	s.succeeded++
}

// RecordFailure counts one translation that fell back to the original text.
func (s *PipelineStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted++
	s.failed++
}

// Snapshot returns the current counters.
func (s *PipelineStats) Snapshot() (attempted, succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempted, s.succeeded, s.failed
}

// Reset zeroes all counters.
func (s *PipelineStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted, s.succeeded, s.failed = 0, 0, 0
}
