package config

import "math"

// Presets ships a small set of named example scenes, mirroring the
// teacher's model/preset lookup idiom in the original config package.
var Presets = map[string]*Config{
	"mono-center": monoCenterPreset(),
	"quad-surround": quadSurroundPreset(),
	"octagon-16": octagon16Preset(),
}

// GetPreset looks up a named scene preset, or nil if it doesn't exist.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns every known preset name.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

func baseEngineConfig() Config {
	return Config{
		SampleRate:   DefaultSampleRate,
		SpeedOfSound: DefaultSpeedOfSound,
		MaxBlockSize: DefaultMaxBlockSize,
		MaxDelaySecs: DefaultMaxDelaySecs,
		Algorithm:    0, // model.AlgorithmInputBuffer
		MasterLevel:  1.0,
	}
}

// monoCenterPreset is the simplest possible scene: one input, one speaker
// dead ahead.
func monoCenterPreset() *Config {
	cfg := baseEngineConfig()
	cfg.Scene = SceneConfig{
		Inputs: []InputConfig{
			{Index: 0, CommonAttenuation: 1, HeightFactor: 1, MaxSpeedMPS: 2, Mute: []bool{false}},
		},
		Outputs: []OutputConfig{
			{Index: 0, Position: Vec3Config{Y: 2}, Attenuation: 1, DistanceAttenPercent: 100, OnAngleDeg: 135, OffAngleDeg: 30},
		},
	}
	return &cfg
}

// quadSurroundPreset places four speakers at the corners of a square room
// and one centered input.
func quadSurroundPreset() *Config {
	cfg := baseEngineConfig()
	corners := []Vec3Config{
		{X: -2, Y: 2}, {X: 2, Y: 2}, {X: -2, Y: -2}, {X: 2, Y: -2},
	}
	outputs := make([]OutputConfig, len(corners))
	mute := make([]bool, len(corners))
	for i, pos := range corners {
		outputs[i] = OutputConfig{
			Index: i, Position: pos, Attenuation: 1,
			DistanceAttenPercent: 100, OnAngleDeg: 135, OffAngleDeg: 30,
		}
	}
	cfg.Scene = SceneConfig{
		Inputs: []InputConfig{
			{Index: 0, CommonAttenuation: 1, HeightFactor: 1, MaxSpeedMPS: 2, Mute: mute},
		},
		Outputs: outputs,
	}
	return &cfg
}

// octagon16Preset rings 16 speakers evenly around a circle of radius 4 m
// and seeds two inputs, one fixed and one LFO-orbiting.
func octagon16Preset() *Config {
	const numOutputs = 16
	const radius = 4.0

	cfg := baseEngineConfig()
	outputs := make([]OutputConfig, numOutputs)
	for i := 0; i < numOutputs; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numOutputs)
		outputs[i] = OutputConfig{
			Index: i,
			Position: Vec3Config{
				X: radius * math.Sin(angle),
				Y: radius * math.Cos(angle),
			},
			Attenuation:          1,
			DistanceAttenPercent: 100,
			OnAngleDeg:           135,
			OffAngleDeg:          30,
		}
	}

	mute := make([]bool, numOutputs)
	cfg.Scene = SceneConfig{
		Inputs: []InputConfig{
			{Index: 0, CommonAttenuation: 1, HeightFactor: 1, MaxSpeedMPS: 2, Mute: mute},
			{
				Index: 1, CommonAttenuation: 1, HeightFactor: 1, MaxSpeedMPS: 5,
				Mute: append([]bool(nil), mute...),
				LFO: LFOConfig{
					Active:        true,
					PeriodSeconds: 8,
					Axes: [3]LFOAxisConfig{
						{Shape: 0, RateHz: 0.125, Amplitude: 2},
						{Shape: 0, RateHz: 0.125, Amplitude: 2, PhaseRad: math.Pi / 2},
					},
				},
			},
		},
		Outputs: outputs,
	}
	return &cfg
}
