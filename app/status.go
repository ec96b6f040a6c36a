package app

import (
	"sync"

	"github.com/IbnNafis007/tlgen/core/registry"
)

// Tracker keeps the most recent compilation result for the status surface.
// The watch daemon records every run; the status server reads concurrently.
type Tracker struct {
	mu   sync.RWMutex
	last *Result
	reg  *registry.Registry
	runs int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record stores res as the latest run. A failed run does not clear the
// registry of the last good one.
func (t *Tracker) Record(res *Result) {
	if res == nil {
		return
	}
	t.mu.Lock()
	t.last = res
	if res.Registry != nil {
		t.reg = res.Registry
	}
	t.runs++
	t.mu.Unlock()
}

// Last returns the most recent result, or nil when nothing ran yet.
func (t *Tracker) Last() *Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Registry returns the registry of the last run that built one, or nil.
func (t *Tracker) Registry() *registry.Registry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reg
}

// Runs returns how many results have been recorded.
func (t *Tracker) Runs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runs
}
