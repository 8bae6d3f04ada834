package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

const (
	DefaultSampleRate    = 48000.0
	DefaultSpeedOfSound  = 343.0
	DefaultMaxBlockSize  = 256
	DefaultMaxDelaySecs  = 0.5
)

// Config is the top-level engine + scene configuration a host loads at
// startup (§6 prepare() parameters plus the scene the calculation engine
// renders).
type Config struct {
	SampleRate   float64 `yaml:"sample_rate"`
	SpeedOfSound float64 `yaml:"speed_of_sound"`
	MaxBlockSize int     `yaml:"max_block_size"`
	MaxDelaySecs float64 `yaml:"max_delay_seconds"`

	// Algorithm selects the active scheduler: 0 = InputBuffer (C9),
	// 1 = OutputBuffer (C10). See model.EngineAlgorithm.
	Algorithm model.EngineAlgorithm `yaml:"algorithm"`

	// MasterLevel is the engine-wide linear gain folded into every routing
	// cell (§4.6 step 9), distinct from each output's own Attenuation.
	MasterLevel float64 `yaml:"master_level"`

	Scene SceneConfig `yaml:"scene"`
}

// SceneConfig is the serializable form of the scene the calculation engine
// renders: every logical input object and physical loudspeaker output.
type SceneConfig struct {
	Inputs  []InputConfig  `yaml:"inputs"`
	Outputs []OutputConfig `yaml:"outputs"`
}

// Vec3Config is wfsmath.Vec3's YAML-tagged mirror.
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3Config) toVec3() wfsmath.Vec3 { return wfsmath.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

func fromVec3(v wfsmath.Vec3) Vec3Config { return Vec3Config{X: v.X, Y: v.Y, Z: v.Z} }

// DirectivityConfig mirrors model.DirectivityParams (§3, §4.6 step 3).
type DirectivityConfig struct {
	OnAngleDeg  float64 `yaml:"on_angle_deg"`
	OffAngleDeg float64 `yaml:"off_angle_deg"`
	RotationDeg float64 `yaml:"rotation_deg"`
	TiltDeg     float64 `yaml:"tilt_deg"`
	HFShelfPerM float64 `yaml:"hf_shelf_per_m"`
}

// LiveSourceConfig mirrors model.LiveSourceParams (§3, §4.7).
type LiveSourceConfig struct {
	Active        bool                   `yaml:"active"`
	RadiusMeters  float64                `yaml:"radius_meters"`
	Shape         model.LiveSourceShape  `yaml:"shape"`
	FixedAttenDb  float64                `yaml:"fixed_atten_db"`
	PeakThreshold float64                `yaml:"peak_threshold"`
	PeakRatio     float64                `yaml:"peak_ratio"`
	SlowThreshold float64                `yaml:"slow_threshold"`
	SlowRatio     float64                `yaml:"slow_ratio"`
}

// FloorReflectionConfig mirrors model.FloorReflectionParams (§3).
type FloorReflectionConfig struct {
	Active      bool    `yaml:"active"`
	AttenDb     float64 `yaml:"atten_db"`
	Diffusion   float64 `yaml:"diffusion"`
	LowCutHz    float64 `yaml:"low_cut_hz"`
	HighShelfDb float64 `yaml:"high_shelf_db"`
}

// LFOAxisConfig mirrors model.LFOAxisParams (§3).
type LFOAxisConfig struct {
	Shape     model.LFOShape `yaml:"shape"`
	RateHz    float64        `yaml:"rate_hz"`
	Amplitude float64        `yaml:"amplitude"`
	PhaseRad  float64        `yaml:"phase_rad"`
}

// LFOConfig mirrors model.LFOParams (§3, §4.5).
type LFOConfig struct {
	Active           bool             `yaml:"active"`
	PeriodSeconds    float64          `yaml:"period_seconds"`
	GlobalPhaseRad   float64          `yaml:"global_phase_rad"`
	Axes             [3]LFOAxisConfig `yaml:"axes"`
	GyrophoneForward bool             `yaml:"gyrophone_forward"`
}

// AutomotionConfig mirrors model.AutomotionParams (§3).
type AutomotionConfig struct {
	Destination   Vec3Config               `yaml:"destination"`
	Absolute      bool                      `yaml:"absolute"`
	ReturnToStart bool                      `yaml:"return_to_start"`
	SpeedMPS      float64                   `yaml:"speed_mps"`
	Trigger       model.AutomotionTrigger   `yaml:"trigger"`
	Threshold     float64                   `yaml:"threshold"`
	AutoReset     bool                      `yaml:"auto_reset"`
}

// InputConfig is the serializable form of model.Input.
type InputConfig struct {
	Index int `yaml:"index"`

	TargetPosition Vec3Config `yaml:"target_position"`
	Offset         Vec3Config `yaml:"offset"`

	FlipX        bool    `yaml:"flip_x"`
	FlipY        bool    `yaml:"flip_y"`
	FlipZ        bool    `yaml:"flip_z"`
	HeightFactor float64 `yaml:"height_factor"`

	ClusterID      int     `yaml:"cluster_id"`
	TrackingActive bool    `yaml:"tracking_active"`
	MaxSpeedMPS    float64 `yaml:"max_speed_mps"`

	AttenuationLaw      model.AttenuationLaw `yaml:"attenuation_law"`
	DistanceCoefficient float64              `yaml:"distance_coefficient"`
	CommonAttenuation   float64              `yaml:"common_attenuation"`

	Directivity DirectivityConfig `yaml:"directivity"`

	LiveSource      LiveSourceConfig      `yaml:"live_source"`
	FloorReflection FloorReflectionConfig `yaml:"floor_reflection"`
	LFO             LFOConfig             `yaml:"lfo"`
	Automotion      AutomotionConfig      `yaml:"automotion"`

	Mute []bool `yaml:"mute"`
}

// OutputEQBandConfig mirrors model.OutputEQBand.
type OutputEQBandConfig struct {
	FrequencyHz float64 `yaml:"frequency_hz"`
	GainDb      float64 `yaml:"gain_db"`
	Q           float64 `yaml:"q"`
}

// OutputConfig is the serializable form of model.Output.
type OutputConfig struct {
	Index int `yaml:"index"`

	Position       Vec3Config `yaml:"position"`
	OrientationDeg float64    `yaml:"orientation_deg"`
	OnAngleDeg     float64    `yaml:"on_angle_deg"`
	OffAngleDeg    float64    `yaml:"off_angle_deg"`
	PitchDeg       float64    `yaml:"pitch_deg"`

	HFDampingPerM float64 `yaml:"hf_damping_per_m"`

	ArrayID int `yaml:"array_id"`

	Attenuation float64 `yaml:"attenuation"`

	DelaySeconds     float64 `yaml:"delay_seconds"`
	MinLatencyEnable bool    `yaml:"min_latency_enable"`
	LiveSourceEnable bool    `yaml:"live_source_enable"`

	DistanceAttenPercent float64 `yaml:"distance_atten_percent"`

	ParallaxHorizontal float64 `yaml:"parallax_horizontal"`
	ParallaxVertical   float64 `yaml:"parallax_vertical"`

	EQ []OutputEQBandConfig `yaml:"eq"`
}

// ToModel converts an InputConfig into the domain model.Input the
// calculation engine consumes.
func (c InputConfig) ToModel() model.Input {
	axes := [3]model.LFOAxisParams{}
	for i, a := range c.LFO.Axes {
		axes[i] = model.LFOAxisParams{Shape: a.Shape, RateHz: a.RateHz, Amplitude: a.Amplitude, PhaseRad: a.PhaseRad}
	}
	mute := make([]bool, len(c.Mute))
	copy(mute, c.Mute)

	return model.Input{
		Index:               c.Index,
		TargetPosition:      c.TargetPosition.toVec3(),
		Offset:              c.Offset.toVec3(),
		FlipX:               c.FlipX,
		FlipY:               c.FlipY,
		FlipZ:               c.FlipZ,
		HeightFactor:        c.HeightFactor,
		ClusterID:           c.ClusterID,
		TrackingActive:      c.TrackingActive,
		MaxSpeedMPS:         c.MaxSpeedMPS,
		AttenuationLaw:      c.AttenuationLaw,
		DistanceCoefficient: c.DistanceCoefficient,
		CommonAttenuation:   c.CommonAttenuation,
		Directivity: model.DirectivityParams{
			OnAngleDeg:  c.Directivity.OnAngleDeg,
			OffAngleDeg: c.Directivity.OffAngleDeg,
			RotationDeg: c.Directivity.RotationDeg,
			TiltDeg:     c.Directivity.TiltDeg,
			HFShelfPerM: c.Directivity.HFShelfPerM,
		},
		LiveSource: model.LiveSourceParams{
			Active:        c.LiveSource.Active,
			RadiusMeters:  c.LiveSource.RadiusMeters,
			Shape:         c.LiveSource.Shape,
			FixedAttenDb:  c.LiveSource.FixedAttenDb,
			PeakThreshold: c.LiveSource.PeakThreshold,
			PeakRatio:     c.LiveSource.PeakRatio,
			SlowThreshold: c.LiveSource.SlowThreshold,
			SlowRatio:     c.LiveSource.SlowRatio,
		},
		FloorReflection: model.FloorReflectionParams{
			Active:      c.FloorReflection.Active,
			AttenDb:     c.FloorReflection.AttenDb,
			Diffusion:   c.FloorReflection.Diffusion,
			LowCutHz:    c.FloorReflection.LowCutHz,
			HighShelfDb: c.FloorReflection.HighShelfDb,
		},
		LFO: model.LFOParams{
			Active:           c.LFO.Active,
			PeriodSeconds:    c.LFO.PeriodSeconds,
			GlobalPhaseRad:   c.LFO.GlobalPhaseRad,
			Axes:             axes,
			GyrophoneForward: c.LFO.GyrophoneForward,
		},
		Automotion: model.AutomotionParams{
			Destination:   c.Automotion.Destination.toVec3(),
			Absolute:      c.Automotion.Absolute,
			ReturnToStart: c.Automotion.ReturnToStart,
			SpeedMPS:      c.Automotion.SpeedMPS,
			Trigger:       c.Automotion.Trigger,
			Threshold:     c.Automotion.Threshold,
			AutoReset:     c.Automotion.AutoReset,
		},
		Mute: mute,
	}
}

// ToModel converts an OutputConfig into the domain model.Output the
// calculation engine consumes.
func (c OutputConfig) ToModel() model.Output {
	eq := make([]model.OutputEQBand, len(c.EQ))
	for i, b := range c.EQ {
		eq[i] = model.OutputEQBand{FrequencyHz: b.FrequencyHz, GainDb: b.GainDb, Q: b.Q}
	}
	return model.Output{
		Index:                c.Index,
		Position:             c.Position.toVec3(),
		OrientationDeg:       c.OrientationDeg,
		OnAngleDeg:           c.OnAngleDeg,
		OffAngleDeg:          c.OffAngleDeg,
		PitchDeg:             c.PitchDeg,
		HFDampingPerM:        c.HFDampingPerM,
		ArrayID:              c.ArrayID,
		Attenuation:          c.Attenuation,
		DelaySeconds:         c.DelaySeconds,
		MinLatencyEnable:     c.MinLatencyEnable,
		LiveSourceEnable:     c.LiveSourceEnable,
		DistanceAttenPercent: c.DistanceAttenPercent,
		ParallaxHorizontal:   c.ParallaxHorizontal,
		ParallaxVertical:     c.ParallaxVertical,
		EQ:                   eq,
	}
}

// InputsToModel converts every InputConfig in the scene.
func (s SceneConfig) InputsToModel() []model.Input {
	out := make([]model.Input, len(s.Inputs))
	for i, c := range s.Inputs {
		out[i] = c.ToModel()
	}
	return out
}

// OutputsToModel converts every OutputConfig in the scene.
func (s SceneConfig) OutputsToModel() []model.Output {
	out := make([]model.Output, len(s.Outputs))
	for i, c := range s.Outputs {
		out[i] = c.ToModel()
	}
	return out
}

// InputConfigFromModel converts a model.Input back into its serializable form.
func InputConfigFromModel(in model.Input) InputConfig {
	axes := [3]LFOAxisConfig{}
	for i, a := range in.LFO.Axes {
		axes[i] = LFOAxisConfig{Shape: a.Shape, RateHz: a.RateHz, Amplitude: a.Amplitude, PhaseRad: a.PhaseRad}
	}
	mute := make([]bool, len(in.Mute))
	copy(mute, in.Mute)

	return InputConfig{
		Index:               in.Index,
		TargetPosition:      fromVec3(in.TargetPosition),
		Offset:              fromVec3(in.Offset),
		FlipX:               in.FlipX,
		FlipY:               in.FlipY,
		FlipZ:               in.FlipZ,
		HeightFactor:        in.HeightFactor,
		ClusterID:           in.ClusterID,
		TrackingActive:      in.TrackingActive,
		MaxSpeedMPS:         in.MaxSpeedMPS,
		AttenuationLaw:      in.AttenuationLaw,
		DistanceCoefficient: in.DistanceCoefficient,
		CommonAttenuation:   in.CommonAttenuation,
		Directivity: DirectivityConfig{
			OnAngleDeg:  in.Directivity.OnAngleDeg,
			OffAngleDeg: in.Directivity.OffAngleDeg,
			RotationDeg: in.Directivity.RotationDeg,
			TiltDeg:     in.Directivity.TiltDeg,
			HFShelfPerM: in.Directivity.HFShelfPerM,
		},
		LiveSource: LiveSourceConfig{
			Active:        in.LiveSource.Active,
			RadiusMeters:  in.LiveSource.RadiusMeters,
			Shape:         in.LiveSource.Shape,
			FixedAttenDb:  in.LiveSource.FixedAttenDb,
			PeakThreshold: in.LiveSource.PeakThreshold,
			PeakRatio:     in.LiveSource.PeakRatio,
			SlowThreshold: in.LiveSource.SlowThreshold,
			SlowRatio:     in.LiveSource.SlowRatio,
		},
		FloorReflection: FloorReflectionConfig{
			Active:      in.FloorReflection.Active,
			AttenDb:     in.FloorReflection.AttenDb,
			Diffusion:   in.FloorReflection.Diffusion,
			LowCutHz:    in.FloorReflection.LowCutHz,
			HighShelfDb: in.FloorReflection.HighShelfDb,
		},
		LFO: LFOConfig{
			Active:           in.LFO.Active,
			PeriodSeconds:    in.LFO.PeriodSeconds,
			GlobalPhaseRad:   in.LFO.GlobalPhaseRad,
			Axes:             axes,
			GyrophoneForward: in.LFO.GyrophoneForward,
		},
		Automotion: AutomotionConfig{
			Destination:   fromVec3(in.Automotion.Destination),
			Absolute:      in.Automotion.Absolute,
			ReturnToStart: in.Automotion.ReturnToStart,
			SpeedMPS:      in.Automotion.SpeedMPS,
			Trigger:       in.Automotion.Trigger,
			Threshold:     in.Automotion.Threshold,
			AutoReset:     in.Automotion.AutoReset,
		},
		Mute: mute,
	}
}

// OutputConfigFromModel converts a model.Output back into its serializable form.
func OutputConfigFromModel(out model.Output) OutputConfig {
	eq := make([]OutputEQBandConfig, len(out.EQ))
	for i, b := range out.EQ {
		eq[i] = OutputEQBandConfig{FrequencyHz: b.FrequencyHz, GainDb: b.GainDb, Q: b.Q}
	}
	return OutputConfig{
		Index:                out.Index,
		Position:             fromVec3(out.Position),
		OrientationDeg:       out.OrientationDeg,
		OnAngleDeg:           out.OnAngleDeg,
		OffAngleDeg:          out.OffAngleDeg,
		PitchDeg:             out.PitchDeg,
		HFDampingPerM:        out.HFDampingPerM,
		ArrayID:              out.ArrayID,
		Attenuation:          out.Attenuation,
		DelaySeconds:         out.DelaySeconds,
		MinLatencyEnable:     out.MinLatencyEnable,
		LiveSourceEnable:     out.LiveSourceEnable,
		DistanceAttenPercent: out.DistanceAttenPercent,
		ParallaxHorizontal:   out.ParallaxHorizontal,
		ParallaxVertical:     out.ParallaxVertical,
		EQ:                   eq,
	}
}

// DefaultConfig returns a minimal, valid single-input mono-center engine
// configuration.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:   DefaultSampleRate,
		SpeedOfSound: DefaultSpeedOfSound,
		MaxBlockSize: DefaultMaxBlockSize,
		MaxDelaySecs: DefaultMaxDelaySecs,
		Algorithm:    model.AlgorithmInputBuffer,
		MasterLevel:  1.0,
		Scene: SceneConfig{
			Inputs: []InputConfig{
				{Index: 0, CommonAttenuation: 1, HeightFactor: 1, MaxSpeedMPS: 2, Mute: []bool{false}},
			},
			Outputs: []OutputConfig{
				{Index: 0, Attenuation: 1, DistanceAttenPercent: 100, OnAngleDeg: 135, OffAngleDeg: 30},
			},
		},
	}
}

// Load reads and parses a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
