package routing

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/san-kum/wfsrender/internal/compute"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// minParallelCells is the fan-out threshold below which Recompute just runs
// serially (§4.6, mirroring compute.ParallelFor's own minChunk guard).
const minParallelCells = 64

// PositionSource resolves an input's current composite position. The
// engine takes this as an interface rather than holding a pointer to the
// position pipeline, per the shared-snapshot design: both C6 and C7 read
// positions through the same read-only surface instead of holding
// references to each other.
type PositionSource interface {
	CompositePosition(in *model.Input, timeSeconds float64) wfsmath.Vec3
}

// GainMultipliers is the N×M array the Live-Source Tamer publishes (§4.7),
// folded multiplicatively into step 9's gain. A nil table means "no
// tamer active", equivalent to all 1.0.
type GainMultipliers struct {
	NumInputs, NumOutputs int
	Values                []float64
}

func (g *GainMultipliers) at(i, j int) float64 {
	if g == nil || g.Values == nil {
		return 1.0
	}
	return g.Values[i*g.NumOutputs+j]
}

// Engine is the calculation engine (C6): it recomputes the routing matrix
// from scene geometry and publishes it through a Snapshot.
type Engine struct {
	SampleRate   float64
	SpeedOfSound float64 // m/s, nominally 343
	SystemLatencySamples float64

	snapshot Snapshot
	version  atomic.Uint64

	dirty atomic.Bool

	masterLevel atomic.Uint64 // float64 bits, linear gain applied to every cell (§4.6 step 9)

	matrixPool sync.Pool
}

// NewEngine creates an Engine and seeds its snapshot with an empty matrix of
// the given shape.
func NewEngine(sampleRate, speedOfSound float64, numInputs, numOutputs int) *Engine {
	e := &Engine{SampleRate: sampleRate, SpeedOfSound: speedOfSound}
	e.matrixPool.New = func() any { return newMatrix(numInputs, numOutputs, 0) }
	e.snapshot.Store(newMatrix(numInputs, numOutputs, 0))
	e.dirty.Store(true)
	e.SetMasterLevel(1.0)
	return e
}

// SetMasterLevel sets the engine-wide linear gain applied to every cell
// (§4.6 step 9's masterLevel factor) — a single global fader distinct from
// each output's own Attenuation. Safe to call from the parameter-store
// thread while the audio thread recomputes.
func (e *Engine) SetMasterLevel(linear float64) {
	e.masterLevel.Store(math.Float64bits(linear))
	e.MarkDirty()
}

// MasterLevel returns the current engine-wide linear gain.
func (e *Engine) MasterLevel() float64 {
	return math.Float64frombits(e.masterLevel.Load())
}

// MarkDirty flags the engine for recompute on the next control tick. Called
// by SetMasterLevel, and by the Engine facade on SetScene, on a parameter-store
// version change, and once per control tick so that moving composite
// positions are picked up (§4.6).
func (e *Engine) MarkDirty() { e.dirty.Store(true) }

// Dirty reports whether a recompute is pending.
func (e *Engine) Dirty() bool { return e.dirty.Load() }

// Snapshot returns the engine's published matrix pointer holder. Audio
// workers call Load() once per block.
func (e *Engine) Snapshot() *Snapshot { return &e.snapshot }

// Recompute rebuilds the routing matrix for the given scene and atomically
// publishes it, if the engine is dirty. The new matrix is taken from
// matrixPool, but no matrix is ever put back (audio workers may still hold
// the one Store just replaced, which Go's GC reclaims), so each recompute
// allocates a fresh matrix and a fresh positions cache (§4.6, §9: borrowed
// from the teacher's sync.Pool state allocator, here holding routing-matrix
// buffers instead of ODE state vectors).
func (e *Engine) Recompute(inputs []model.Input, outputs []model.Output, positions PositionSource, timeSeconds float64, tamer *GainMultipliers) {
	if !e.dirty.Load() {
		return
	}
	e.dirty.Store(false)

	numInputs := len(inputs)
	numOutputs := len(outputs)

	m := e.matrixPool.Get().(*Matrix)
	if m.NumInputs != numInputs || m.NumOutputs != numOutputs {
		m = newMatrix(numInputs, numOutputs, 0)
	}
	m.Version = e.version.Add(1)

	positionsCache := make([]wfsmath.Vec3, numInputs)
	for i := range inputs {
		positionsCache[i] = positions.CompositePosition(&inputs[i], timeSeconds)
	}

	n := numInputs * numOutputs
	compute.ParallelFor(n, minParallelCells, func(start, end int) {
		for idx := start; idx < end; idx++ {
			i := idx / numOutputs
			j := idx % numOutputs
			e.computeCell(m, &inputs[i], &outputs[j], positionsCache[i], i, j, tamer)
		}
	})

	e.snapshot.Store(m)
}

func (e *Engine) computeCell(m *Matrix, in *model.Input, out *model.Output, inputPos wfsmath.Vec3, i, j int, tamer *GainMultipliers) {
	primary := e.cell(in, out, inputPos, out.Position, false)
	primary.GainLinear *= tamer.at(i, j)
	m.Cells[i*m.NumOutputs+j] = primary

	if in.FloorReflection.Active {
		mirrored := inputPos.Mirror()
		fr := e.cell(in, out, mirrored, out.Position, true)
		fr.GainLinear *= math.Pow(10, -in.FloorReflection.AttenDb/20) * tamer.at(i, j)
		m.FloorCells[i*m.NumOutputs+j] = fr
	} else {
		m.FloorCells[i*m.NumOutputs+j] = Cell{Muted: true}
	}
}

// cell computes one (input,output) cell's coefficients (§4.6 steps 1-9) for
// the given (possibly mirrored) input position.
func (e *Engine) cell(in *model.Input, out *model.Output, inputPos, speakerPos wfsmath.Vec3, floor bool) Cell {
	delta := inputPos.Sub(speakerPos).HeightWeighted(in.HeightFactor)
	d := delta.Norm()
	dClamped := clampDistance(d)

	delaySamples := (dClamped-out.ParallaxHorizontal)*e.SampleRate/e.SpeedOfSound + out.DelaySeconds*e.SampleRate
	if delaySamples < 0 {
		if out.MinLatencyEnable {
			delaySamples = e.SystemLatencySamples
		} else {
			delaySamples = 0
		}
	} else if out.MinLatencyEnable {
		delaySamples += e.SystemLatencySamples
	}

	toSpeaker := speakerPos.Sub(inputPos)
	alpha := directivityFactor(in.Directivity.RotationDeg, in.Directivity.TiltDeg, in.Directivity.OnAngleDeg, in.Directivity.OffAngleDeg, toSpeaker)

	toInput := inputPos.Sub(speakerPos)
	beta := receiveFactor(out.OrientationDeg, out.PitchDeg, out.OnAngleDeg, out.OffAngleDeg, toInput)

	gamma := distanceAttenuation(in.AttenuationLaw, dClamped, in.DistanceCoefficient, out.DistanceAttenPercent)

	hfShelfDb := dClamped*in.Directivity.HFShelfPerM + dClamped*out.HFDampingPerM
	if floor {
		hfShelfDb += in.FloorReflection.HighShelfDb
	}
	if hfShelfDb > 0 {
		hfShelfDb = 0
	}

	muted := out.Index >= 0 && out.Index < len(in.Mute) && in.Mute[out.Index]

	gain := alpha * beta * gamma * in.CommonAttenuation * out.Attenuation * e.MasterLevel()
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		gain = 0
	}

	return Cell{
		DelaySamples: delaySamples,
		GainLinear:   gain,
		HFShelfDb:    hfShelfDb,
		Muted:        muted,
	}
}
