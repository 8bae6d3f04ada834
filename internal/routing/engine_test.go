package routing_test

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/routing"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

type fixedPositions struct {
	pos []wfsmath.Vec3
}

func (f fixedPositions) CompositePosition(in *model.Input, _ float64) wfsmath.Vec3 {
	return f.pos[in.Index]
}

func TestS1ImpulseDelayAndEqualGain(t *testing.T) {
	inputs := []model.Input{{
		Index:               0,
		CommonAttenuation:   1,
		AttenuationLaw:      model.AttenuationLog,
		DistanceCoefficient: 0,
		Mute:                []bool{false, false},
	}}
	outputs := []model.Output{
		{Index: 0, Position: wfsmath.Vec3{X: -1}, Attenuation: 1, DistanceAttenPercent: 100},
		{Index: 1, Position: wfsmath.Vec3{X: 1}, Attenuation: 1, DistanceAttenPercent: 100},
	}

	e := routing.NewEngine(48000, 343, 1, 2)
	e.MarkDirty()
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)

	m := e.Snapshot().Load()
	c0 := m.At(0, 0)
	c1 := m.At(0, 1)

	wantDelay := 1.0 * 48000 / 343
	if math.Abs(c0.DelaySamples-wantDelay) > 0.5 {
		t.Fatalf("output0 delay = %v, want ~%v", c0.DelaySamples, wantDelay)
	}
	if math.Abs(c1.DelaySamples-wantDelay) > 0.5 {
		t.Fatalf("output1 delay = %v, want ~%v", c1.DelaySamples, wantDelay)
	}
	if c0.GainLinear <= 0 || c1.GainLinear <= 0 {
		t.Fatalf("expected non-zero gain on both outputs, got %v and %v", c0.GainLinear, c1.GainLinear)
	}
	if math.Abs(c0.GainLinear-c1.GainLinear) > 1e-9 {
		t.Fatalf("expected equal gain on both symmetric outputs, got %v and %v", c0.GainLinear, c1.GainLinear)
	}
}

func TestFloorReflectionMirrorsThroughZPlane(t *testing.T) {
	inputs := []model.Input{{
		Index:             0,
		CommonAttenuation: 1,
		HeightFactor:      1,
		Mute:              []bool{false},
		FloorReflection:   model.FloorReflectionParams{Active: true, AttenDb: 6},
	}}
	outputs := []model.Output{
		{Index: 0, Position: wfsmath.Vec3{X: 2, Y: 0, Z: 0}, Attenuation: 1, DistanceAttenPercent: 100},
	}

	e := routing.NewEngine(48000, 343, 1, 1)
	e.MarkDirty()
	sourcePos := wfsmath.Vec3{X: 0, Y: 0, Z: 1.5}
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{sourcePos}}, 0, nil)

	m := e.Snapshot().Load()
	primary := m.At(0, 0)
	floor := m.FloorAt(0, 0)

	mirroredDistance := wfsmath.Vec3{X: 0, Y: 0, Z: -1.5}.Sub(outputs[0].Position).Norm()
	wantFloorDelay := mirroredDistance * 48000 / 343

	if math.Abs(floor.DelaySamples-wantFloorDelay) > 0.5 {
		t.Fatalf("floor delay = %v, want ~%v", floor.DelaySamples, wantFloorDelay)
	}
	if floor.GainLinear <= 0 {
		t.Fatalf("expected non-zero floor-reflection gain")
	}
	if floor.GainLinear >= primary.GainLinear {
		t.Fatalf("floor reflection should be attenuated relative to the primary cell: floor=%v primary=%v", floor.GainLinear, primary.GainLinear)
	}
}

func TestMuteBitOverridesGain(t *testing.T) {
	inputs := []model.Input{{
		Index:             0,
		CommonAttenuation: 1,
		Mute:              []bool{true},
	}}
	outputs := []model.Output{{Index: 0, Attenuation: 1, DistanceAttenPercent: 100, Position: wfsmath.Vec3{X: 1}}}

	e := routing.NewEngine(48000, 343, 1, 1)
	e.MarkDirty()
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)

	c := e.Snapshot().Load().At(0, 0)
	if !c.Muted {
		t.Fatal("expected muted cell")
	}
}

// TestMasterLevelScalesGain covers §4.6 step 9: the engine-wide master
// level is a genuine multiplicative factor on every cell's gain, distinct
// from each output's own Attenuation.
func TestMasterLevelScalesGain(t *testing.T) {
	inputs := []model.Input{{Index: 0, CommonAttenuation: 1, Mute: []bool{false}}}
	outputs := []model.Output{{Index: 0, Attenuation: 1, DistanceAttenPercent: 100, Position: wfsmath.Vec3{X: 1}}}

	e := routing.NewEngine(48000, 343, 1, 1)
	e.MarkDirty()
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)
	unityGain := e.Snapshot().Load().At(0, 0).GainLinear

	e.SetMasterLevel(0.25)
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)
	scaledGain := e.Snapshot().Load().At(0, 0).GainLinear

	if want := unityGain * 0.25; math.Abs(scaledGain-want) > 1e-9 {
		t.Fatalf("gain with masterLevel=0.25 = %v, want %v (unity gain %v scaled)", scaledGain, want, unityGain)
	}
}

func TestRecomputeSkippedWhenNotDirty(t *testing.T) {
	inputs := []model.Input{{Index: 0, CommonAttenuation: 1, Mute: []bool{false}}}
	outputs := []model.Output{{Index: 0, Attenuation: 1, DistanceAttenPercent: 100, Position: wfsmath.Vec3{X: 1}}}

	e := routing.NewEngine(48000, 343, 1, 1)
	e.MarkDirty()
	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)
	first := e.Snapshot().Load()

	e.Recompute(inputs, outputs, fixedPositions{pos: []wfsmath.Vec3{{}}}, 0, nil)
	second := e.Snapshot().Load()

	if first != second {
		t.Fatal("expected Recompute to be a no-op when the engine is not dirty")
	}
}
