// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Telemetry Ports
// -----------------------------------------------------------------------------

// Run outcome labels recorded by CompileMetrics.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// CompileMetrics records compilation telemetry.
type CompileMetrics interface {
	// RunCompleted records one finished compilation run.
	RunCompleted(outcome string, duration time.Duration)

	// DefinitionsCompiled records how many definitions the last run
	// produced, split by kind.
	DefinitionsCompiled(types, functions int)

	// DiagnosticsReported counts diagnostics by kind name.
	DiagnosticsReported(kind string, count int)

	// FilesWritten counts generated artifacts written to disk.
	FilesWritten(count int)

	// ReloadRecorded records a watch-mode reload attempt.
	ReloadRecorded(err error)
}

// NopMetrics discards all telemetry. Useful for one-shot commands that
// have nowhere to expose metrics.
type NopMetrics struct{}

func (NopMetrics) RunCompleted(string, time.Duration) {}
func (NopMetrics) DefinitionsCompiled(int, int)       {}
func (NopMetrics) DiagnosticsReported(string, int)    {}
func (NopMetrics) FilesWritten(int)                   {}
func (NopMetrics) ReloadRecorded(error)               {}

var _ CompileMetrics = NopMetrics{}
