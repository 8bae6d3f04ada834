// Package routing implements the calculation engine (§4.6, C6): the
// per-(input,output) delay/gain/HF/mute matrix, recomputed lazily from
// positions and scene parameters and published to readers through an
// atomic pointer swap so no consumer ever observes a torn mix of two
// matrix versions (§4.6, Testable property 1).
package routing

import "sync/atomic"

// Cell is one computed (input,output) routing coefficient (§3).
type Cell struct {
	DelaySamples float64
	GainLinear   float64
	HFShelfDb    float64
	Muted        bool
}

// Matrix is one complete, immutable snapshot of the routing table. Readers
// never mutate a Matrix they've been handed; the engine always builds a new
// one and swaps the pointer.
type Matrix struct {
	NumInputs  int
	NumOutputs int
	Version    uint64

	Cells []Cell // input-major, length NumInputs*NumOutputs

	// FloorCells holds the image-source floor-reflection variant, one per
	// primary cell whose input has FloorReflection active; entries with
	// Muted set stand in for inputs without floor reflection (§4.6).
	FloorCells []Cell
}

// At returns the cell for (i,j).
func (m *Matrix) At(i, j int) Cell {
	return m.Cells[i*m.NumOutputs+j]
}

// FloorAt returns the floor-reflection cell for (i,j).
func (m *Matrix) FloorAt(i, j int) Cell {
	return m.FloorCells[i*m.NumOutputs+j]
}

// newMatrix allocates an empty matrix of the given shape.
func newMatrix(numInputs, numOutputs int, version uint64) *Matrix {
	n := numInputs * numOutputs
	return &Matrix{
		NumInputs:  numInputs,
		NumOutputs: numOutputs,
		Version:    version,
		Cells:      make([]Cell, n),
		FloorCells: make([]Cell, n),
	}
}

// Snapshot is the lock-free published pointer to the current Matrix. Readers
// call Load once at block start and use that pointer for the whole block
// (§4.6, §5: "readers hold it by copying the pointer at block start").
type Snapshot struct {
	ptr atomic.Pointer[Matrix]
}

// Load returns the current matrix.
func (s *Snapshot) Load() *Matrix { return s.ptr.Load() }

// Store atomically publishes a new matrix.
func (s *Snapshot) Store(m *Matrix) { s.ptr.Store(m) }
