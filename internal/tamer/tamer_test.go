package tamer_test

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/tamer"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

type fixedPositions struct{ pos wfsmath.Vec3 }

func (f fixedPositions) CompositePosition(*model.Input, float64) wfsmath.Vec3 { return f.pos }

type bypassLevels struct{}

func (bypassLevels) PeakGR(int) float64 { return 1 }
func (bypassLevels) SlowGR(int) float64 { return 1 }

func TestS2LiveSourceMultiplier(t *testing.T) {
	inputs := []model.Input{{
		Index: 0,
		LiveSource: model.LiveSourceParams{
			Active:       true,
			RadiusMeters: 2,
			Shape:        model.ShapeLinear,
			FixedAttenDb: -6,
			PeakRatio:    1,
			SlowRatio:    1,
		},
	}}
	outputs := []model.Output{{Index: 0, LiveSourceEnable: true, Position: wfsmath.Vec3{X: 1}}}

	tm := tamer.New(1, 1, 1.0) // coarse tick so the enable ramp reaches 1.0 in one Tick
	tm.SetEnabled(0, true)
	tm.Tick(inputs, outputs, fixedPositions{pos: wfsmath.Vec3{}}, bypassLevels{}, 0)

	snap := tm.Snapshot()
	got := snap.Values[0]
	want := 1 - 0.5*(1-math.Pow(10, -0.3))
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("LS multiplier = %v, want %v", got, want)
	}
}

func TestShapeEndpointsAllVariants(t *testing.T) {
	shapes := []model.LiveSourceShape{model.ShapeLinear, model.ShapeLog, model.ShapeSquare, model.ShapeSine}
	for _, shape := range shapes {
		inputs := []model.Input{{
			Index: 0,
			LiveSource: model.LiveSourceParams{
				Active: true, RadiusMeters: 1, Shape: shape, FixedAttenDb: 0, PeakRatio: 1, SlowRatio: 1,
			},
		}}
		outputs := []model.Output{{Index: 0, LiveSourceEnable: true}}

		tm := tamer.New(1, 1, 1.0)
		tm.SetEnabled(0, true)

		// d=0 ⇒ t=0 ⇒ s(0)=1 ⇒ target = 1 - 1*(1-combined) = combined = 1 (fixedAttenDb=0, GR bypass).
		tm.Tick(inputs, outputs, fixedPositions{pos: wfsmath.Vec3{}}, bypassLevels{}, 0)
		atZero := tm.Snapshot().Values[0]
		if math.Abs(atZero-1.0) > 1e-6 {
			t.Fatalf("shape %v: multiplier at d=0 = %v, want 1.0 (s(0)=1)", shape, atZero)
		}

		// d=radius ⇒ t=1 ⇒ target forced to 1 by the d>=radius branch regardless of s(1).
		outputs[0].Position = wfsmath.Vec3{X: 1}
		tm.Tick(inputs, outputs, fixedPositions{pos: wfsmath.Vec3{}}, bypassLevels{}, 0)
		atRadius := tm.Snapshot().Values[0]
		if math.Abs(atRadius-1.0) > 1e-6 {
			t.Fatalf("shape %v: multiplier at d=radius = %v, want 1.0", shape, atRadius)
		}
	}
}

func TestDisabledLiveSourceIsUnityMultiplier(t *testing.T) {
	inputs := []model.Input{{Index: 0, LiveSource: model.LiveSourceParams{Active: false, RadiusMeters: 5}}}
	outputs := []model.Output{{Index: 0, LiveSourceEnable: true}}

	tm := tamer.New(1, 1, 0.02)
	tm.Tick(inputs, outputs, fixedPositions{pos: wfsmath.Vec3{}}, bypassLevels{}, 0)

	if got := tm.Snapshot().Values[0]; got != 1 {
		t.Fatalf("inactive LS should leave multiplier at 1, got %v", got)
	}
}
