// Package wfserr holds the sentinel errors shared across the rendering core.
package wfserr

import "errors"

// Configuration-time errors (§7): surfaced synchronously from prepare/start,
// never from the audio callback.
var (
	// ErrNotPrepared is returned when start/process/release is called before prepare.
	ErrNotPrepared = errors.New("wfsrender: engine not prepared")

	// ErrAlreadyRunning is returned when prepare or start is called on a running engine.
	ErrAlreadyRunning = errors.New("wfsrender: engine already running")

	// ErrCapacityExceeded is returned when numInputs/numOutputs exceeds the
	// capacity the engine was built for.
	ErrCapacityExceeded = errors.New("wfsrender: channel count exceeds prepared capacity")

	// ErrInvalidGeometry is returned when a position/layout computation would
	// produce a non-finite coefficient.
	ErrInvalidGeometry = errors.New("wfsrender: geometry produced non-finite coefficients")

	// ErrDimensionMismatch is returned when buffers passed to process() don't
	// match the prepared channel counts.
	ErrDimensionMismatch = errors.New("wfsrender: buffer dimension mismatch")
)

// ConfigError wraps a sentinel with the offending value for diagnostics.
type ConfigError struct {
	Op      string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return e.Op + ": " + e.Wrapped.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
