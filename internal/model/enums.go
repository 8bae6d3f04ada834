package model

// AttenuationLaw selects the per-input distance-attenuation formula (§4.6
// step 5). Small closed enum — branched on directly in the calculation
// engine's hot loop rather than dispatched through an interface (§9 design
// note).
type AttenuationLaw int

const (
	AttenuationLog AttenuationLaw = iota
	AttenuationOneOverD
)

// LiveSourceShape selects the Live-Source Tamer's distance shaping curve (§4.7).
type LiveSourceShape int

const (
	ShapeLinear LiveSourceShape = iota
	ShapeLog
	ShapeSquare
	ShapeSine
)

// LFOShape selects the waveform used by a position LFO axis (§3).
type LFOShape int

const (
	LFOSine LFOShape = iota
	LFOTriangle
	LFOSquare
	LFORandom
)

// EngineAlgorithm selects the active audio scheduler (§4.9/§4.10, §6).
type EngineAlgorithm int

const (
	AlgorithmInputBuffer EngineAlgorithm = iota
	AlgorithmOutputBuffer
)

// AutomotionTrigger selects what starts a scripted automotion move (§3).
type AutomotionTrigger int

const (
	TriggerNone AutomotionTrigger = iota
	TriggerLevel
	TriggerManual
)
