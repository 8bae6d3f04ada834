package model

import "github.com/san-kum/wfsrender/internal/wfsmath"

// LFOAxisParams configures one axis of a position LFO (§3).
type LFOAxisParams struct {
	Shape     LFOShape
	RateHz    float64
	Amplitude float64 // metres
	PhaseRad  float64
}

// LFOParams configures the whole-input LFO that displaces composite
// position (§3, §4.5).
type LFOParams struct {
	Active           bool
	PeriodSeconds    float64 // 0.01-100s
	GlobalPhaseRad   float64
	Axes             [3]LFOAxisParams // X, Y, Z
	GyrophoneForward bool              // gyrophone direction, true = clockwise
}

// LiveSourceParams configures the per-input Live-Source Tamer (§3, §4.7).
type LiveSourceParams struct {
	Active          bool
	RadiusMeters    float64 // 0-50
	Shape           LiveSourceShape
	FixedAttenDb    float64
	PeakThreshold   float64
	PeakRatio       float64
	SlowThreshold   float64
	SlowRatio       float64
}

// FloorReflectionParams configures the image-source floor reflection for an
// input (§3, §4.6 floor-reflection variant).
type FloorReflectionParams struct {
	Active       bool
	AttenDb      float64
	Diffusion    float64
	LowCutHz     float64
	HighShelfDb  float64
}

// AutomotionParams configures a scripted point-to-point move (§3).
type AutomotionParams struct {
	Destination   wfsmath.Vec3
	Absolute      bool // false = relative to current position
	ReturnToStart bool // false = stay at destination
	SpeedMPS      float64
	Trigger       AutomotionTrigger
	Threshold     float64 // level (dB) that fires TriggerLevel
	AutoReset     bool
}

// DirectivityParams configures the keystone coverage pattern an input
// projects toward speakers (§3, §4.6 step 3).
type DirectivityParams struct {
	OnAngleDeg     float64 // 1-180
	OffAngleDeg    float64 // 0-179
	RotationDeg    float64 // -179..180
	TiltDeg        float64 // -90..90
	HFShelfPerM    float64 // dB/m, <= 0
}

// Input is one logical mono audio object positioned in 3-D space (§3).
type Input struct {
	Index int // unique index in [0, N)

	TargetPosition wfsmath.Vec3 // mutated by the parameter store
	Offset         wfsmath.Vec3 // tracking/user nudge

	FlipX, FlipY, FlipZ bool
	HeightFactor        float64 // 0-1

	ClusterID        int // 0 = single, 1-10 = named cluster
	TrackingActive   bool
	MaxSpeedMPS      float64 // 0.01-20

	AttenuationLaw        AttenuationLaw
	DistanceCoefficient   float64 // dB/m (Log) or ratio (OneOverD)
	CommonAttenuation     float64 // linear, object-wide

	Directivity DirectivityParams

	LiveSource      LiveSourceParams
	FloorReflection FloorReflectionParams
	LFO             LFOParams
	Automotion      AutomotionParams

	Mute []bool // length M, per-output mute bit
}

// ClampInvariants clamps out-of-range parameters to the documented range
// (§7 "Parameter out-of-range: clamped silently").
func (in *Input) ClampInvariants() {
	if in.ClusterID < 0 {
		in.ClusterID = 0
	}
	if in.ClusterID > 10 {
		in.ClusterID = 10
	}
	if in.HeightFactor < 0 {
		in.HeightFactor = 0
	}
	if in.HeightFactor > 1 {
		in.HeightFactor = 1
	}
	if in.MaxSpeedMPS < 0.01 {
		in.MaxSpeedMPS = 0.01
	}
	if in.MaxSpeedMPS > 20 {
		in.MaxSpeedMPS = 20
	}
	if in.LiveSource.RadiusMeters < 0 {
		in.LiveSource.RadiusMeters = 0
	}
	if in.LiveSource.RadiusMeters > 50 {
		in.LiveSource.RadiusMeters = 50
	}
	if in.Directivity.HFShelfPerM > 0 {
		in.Directivity.HFShelfPerM = 0
	}
}
