// Package tamer implements the Live-Source Tamer (§4.7, C7): a per-input,
// per-output gain-modulation array driven by that input's distance to each
// speaker and by its own level detectors, folded multiplicatively into the
// calculation engine's gain (§4.6 step 9).
package tamer

import (
	"math"
	"sync"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/routing"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// enableRampSeconds is the 500 ms ramp applied when LS is toggled (§4.7).
const enableRampSeconds = 0.5

// LevelSource reports the per-input gain-reduction values C4 publishes.
type LevelSource interface {
	PeakGR(inputIndex int) float64
	SlowGR(inputIndex int) float64
}

// shapeFactor computes s(t) for the given shape, t = d/radius clamped to
// [0,1] by the caller (§4.7, Testable property 8: s(0)=1, s(1)=0).
func shapeFactor(shape model.LiveSourceShape, t float64) float64 {
	switch shape {
	case model.ShapeLog:
		return 1 - math.Log10(1+9*t)
	case model.ShapeSquare:
		return 1 - t*t
	case model.ShapeSine:
		return (1 + wfsmath.FastCos(math.Pi*t)) / 2
	default: // model.ShapeLinear
		return 1 - t
	}
}

// inputRamp tracks one input's enable-ramp progress between 1.0 (LS off)
// and its target cell multipliers.
type inputRamp struct {
	enabled bool
	factor  float64 // 0 = fully off (multiplier forced to 1), 1 = fully on
}

// Tamer computes and publishes the N×M gain-multiplier array.
type Tamer struct {
	mu       sync.RWMutex
	values   []float64
	numIn    int
	numOut   int
	ramps    []inputRamp
	rampStep float64
}

// New creates a Tamer sized for numInputs×numOutputs, with a ramp step
// derived from the control-tick rate.
func New(numInputs, numOutputs int, controlTickSeconds float64) *Tamer {
	t := &Tamer{
		values:   make([]float64, numInputs*numOutputs),
		numIn:    numInputs,
		numOut:   numOutputs,
		ramps:    make([]inputRamp, numInputs),
		rampStep: controlTickSeconds / enableRampSeconds,
	}
	for i := range t.values {
		t.values[i] = 1
	}
	return t
}

// SetEnabled toggles LS for input i, starting the enable ramp.
func (t *Tamer) SetEnabled(i int, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ramps[i].enabled = enabled
}

// Tick recomputes the gain-multiplier array for one control tick (§4.7).
func (t *Tamer) Tick(inputs []model.Input, outputs []model.Output, positions routing.PositionSource, levels LevelSource, timeSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range inputs {
		in := &inputs[i]
		r := &t.ramps[i]
		if r.enabled {
			r.factor = math.Min(1, r.factor+t.rampStep)
		} else {
			r.factor = math.Max(0, r.factor-t.rampStep)
		}

		inputPos := positions.CompositePosition(in, timeSeconds)
		peakGR := levels.PeakGR(i)
		slowGR := levels.SlowGR(i)
		fixedAttenLinear := math.Pow(10, in.LiveSource.FixedAttenDb/20)
		combined := fixedAttenLinear * peakGR * slowGR

		for j := range outputs {
			out := &outputs[j]
			idx := i*t.numOut + j

			if !in.LiveSource.Active || !out.LiveSourceEnable || in.LiveSource.RadiusMeters <= 0 {
				t.values[idx] = 1
				continue
			}

			d := inputPos.Sub(out.Position).Norm()
			var target float64
			if d >= in.LiveSource.RadiusMeters {
				target = 1
			} else {
				tn := d / in.LiveSource.RadiusMeters
				s := shapeFactor(in.LiveSource.Shape, tn)
				target = 1 - s*(1-combined)
			}

			t.values[idx] = 1 + (target-1)*r.factor
		}
	}
}

// Snapshot returns a copy of the gain-multiplier array as a
// routing.GainMultipliers, safe to hand to the calculation engine.
func (t *Tamer) Snapshot() *routing.GainMultipliers {
	t.mu.RLock()
	defer t.mu.RUnlock()
	values := make([]float64, len(t.values))
	copy(values, t.values)
	return &routing.GainMultipliers{NumInputs: t.numIn, NumOutputs: t.numOut, Values: values}
}
