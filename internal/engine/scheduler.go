// Package engine implements the audio-thread schedulers (C9/C10) and the
// Engine facade that wires the routing, position, tamer, level and binaural
// components into a single prepare/process/release lifecycle (§4.9, §4.10,
// §6). Grounded on the teacher's `internal/sim/parallel.go` /
// `internal/dynamo/parallel.go` goroutine-per-unit `Ensemble` idiom,
// generalized from "one goroutine per simulation run" to "one worker per
// input/output channel", and on `internal/audio/audio.go`'s portaudio
// callback shape for the prepare/process/release contract.
package engine

import (
	"math"
	"sync/atomic"
)

// Algorithm selects which scheduler drives the audio path (§6 setActiveAlgorithm).
type Algorithm int

const (
	// InputBuffer is C9: one worker per input, writing into a shared output accumulator.
	InputBuffer Algorithm = iota
	// OutputBuffer is C10: one worker per output, summing across all inputs itself.
	OutputBuffer
)

// ThreadPerformance is the per-worker timing snapshot C11 polls (§4.11).
type ThreadPerformance struct {
	CPUPercent   float64
	MicrosPerBlock float64
}

// atomicAddFloat64 adds delta into the float64 stored in bits using a
// compare-and-swap loop (§5: "output accumulator writes use relaxed atomic
// adds").
func atomicAddFloat64(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		newF := math.Float64frombits(old) + delta
		if bits.CompareAndSwap(old, math.Float64bits(newF)) {
			return
		}
	}
}
