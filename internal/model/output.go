package model

import "github.com/san-kum/wfsrender/internal/wfsmath"

// OutputEQBand is one biquad stage in a speaker's output EQ chain (§3).
type OutputEQBand struct {
	FrequencyHz float64
	GainDb      float64
	Q           float64
}

// Output is one physical loudspeaker at a fixed position with orientation
// and coverage parameters (§3).
type Output struct {
	Index int // unique index in [0, M)

	Position       wfsmath.Vec3
	OrientationDeg float64 // 0 = facing audience
	OnAngleDeg     float64
	OffAngleDeg    float64
	PitchDeg       float64 // -90..90

	HFDampingPerM float64 // dB/m

	ArrayID int // 0 = single, 1-10 = named array

	Attenuation float64 // linear

	DelaySeconds     float64 // user latency, ±100ms
	MinLatencyEnable bool
	LiveSourceEnable bool

	DistanceAttenPercent float64 // 0-200%, 100% nominal

	ParallaxHorizontal float64 // listener target distance
	ParallaxVertical   float64

	EQ []OutputEQBand
}

// ClampInvariants clamps out-of-range parameters to the documented range (§7).
func (o *Output) ClampInvariants() {
	if o.ArrayID < 0 {
		o.ArrayID = 0
	}
	if o.ArrayID > 10 {
		o.ArrayID = 10
	}
	if o.DelaySeconds < -0.1 {
		o.DelaySeconds = -0.1
	}
	if o.DelaySeconds > 0.1 {
		o.DelaySeconds = 0.1
	}
	if o.DistanceAttenPercent < 0 {
		o.DistanceAttenPercent = 0
	}
	if o.DistanceAttenPercent > 200 {
		o.DistanceAttenPercent = 200
	}
	if o.HFDampingPerM > 0 {
		o.HFDampingPerM = 0
	}
}
