// Package binaural implements the stereo preview renderer (§4.8, C8): two
// virtual speakers flanking the listener, each with keystone coverage and a
// fixed HF shelf, summed per-input into a stereo bus. Grounded on the
// teacher's one-pole low-pass/delay-line synthesis chain (§9), generalised
// from a fixed ambient pad into a per-input spatial renderer.
package binaural

import (
	"math"

	"github.com/san-kum/wfsrender/internal/dsp/biquad"
	"github.com/san-kum/wfsrender/internal/dsp/delay"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

const (
	virtualOnAngleDeg  = 135.0
	virtualOffAngleDeg = 30.0
	virtualHFShelfPerM = -0.3 // dB/m (§4.8)

	maxBinauralDelaySeconds = 0.05
)

// side identifies the left/right virtual speaker.
type side int

const (
	left side = iota
	right
	numSides
)

// keystoneFactor is reimplemented here (rather than imported from routing)
// because it is a tiny pure function and importing the routing package for
// it would pull the calculation engine into the preview path unnecessarily.
func keystoneFactor(angleDeg, onAngleDeg, offAngleDeg float64) float64 {
	muteStart := 180 - offAngleDeg
	if angleDeg <= onAngleDeg {
		return 1
	}
	if angleDeg >= muteStart || muteStart <= onAngleDeg {
		return 0
	}
	t := (angleDeg - onAngleDeg) / (muteStart - onAngleDeg)
	return 1 - t
}

// virtualSpeaker describes one of the two fixed virtual speakers relative to
// the listener, facing the listener at ±45°.
type virtualSpeaker struct {
	position  wfsmath.Vec3
	rearAxis  wfsmath.Vec3
}

func virtualSpeakers(spacingMeters float64) [numSides]virtualSpeaker {
	half := spacingMeters / 2
	angle := 45 * math.Pi / 180
	return [numSides]virtualSpeaker{
		left: {
			position: wfsmath.Vec3{X: -half, Y: 0, Z: 0},
			rearAxis: wfsmath.Vec3{X: -math.Sin(angle), Y: math.Cos(angle), Z: 0},
		},
		right: {
			position: wfsmath.Vec3{X: half, Y: 0, Z: 0},
			rearAxis: wfsmath.Vec3{X: math.Sin(angle), Y: math.Cos(angle), Z: 0},
		},
	}
}

func angleBetweenDeg(a, b wfsmath.Vec3) float64 {
	na, nb := a.Norm(), b.Norm()
	if na < 1e-9 || nb < 1e-9 {
		return 0
	}
	cos := (a.X*b.X + a.Y*b.Y + a.Z*b.Z) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// channel is one input's per-side delay/filter/level chain.
type channel struct {
	soloed bool
	lines  [numSides]*delay.Line
	shelf  [numSides]*biquad.Stage
}

// Engine renders the binaural stereo preview for a set of inputs.
type Engine struct {
	sampleRate    float64
	speedOfSound  float64
	spacingMeters float64
	speakers      [numSides]virtualSpeaker

	channels map[int]*channel
}

// New creates a binaural Engine.
func New(sampleRate, speedOfSound, spacingMeters float64) *Engine {
	return &Engine{
		sampleRate:    sampleRate,
		speedOfSound:  speedOfSound,
		spacingMeters: spacingMeters,
		speakers:      virtualSpeakers(spacingMeters),
		channels:      make(map[int]*channel),
	}
}

func (e *Engine) channelFor(i int) *channel {
	c, ok := e.channels[i]
	if ok {
		return c
	}
	c = &channel{}
	for s := left; s < numSides; s++ {
		c.lines[s] = delay.New(maxBinauralDelaySeconds, e.sampleRate, 0)
		c.shelf[s] = biquad.NewStage()
	}
	e.channels[i] = c
	return c
}

// SetSolo marks input i as soloed or not (§4.8 solo semantics).
func (e *Engine) SetSolo(i int, soloed bool) {
	e.channelFor(i).soloed = soloed
}

// anySoloed reports whether any registered channel is soloed.
func (e *Engine) anySoloed() bool {
	for _, c := range e.channels {
		if c.soloed {
			return true
		}
	}
	return false
}

// updateCoefficients recomputes per-side delay/gain/HF-shelf for input i at
// position pos (§4.8). Call once per control tick before ProcessSample.
func (e *Engine) updateCoefficients(i int, pos wfsmath.Vec3) (gain [numSides]float64) {
	c := e.channelFor(i)

	for s := left; s < numSides; s++ {
		spk := e.speakers[s]
		toSpeaker := spk.position.Sub(pos)
		d := toSpeaker.Norm()
		if d < 0.01 {
			d = 0.01
		}

		delaySamples := d * e.sampleRate / e.speedOfSound
		c.lines[s].SetDelaySamples(delaySamples)

		angle := angleBetweenDeg(spk.rearAxis, toSpeaker.Scale(-1))
		keystone := keystoneFactor(angle, virtualOnAngleDeg, virtualOffAngleDeg)

		distanceAttenDb := -6 * math.Log2(d/1.0)
		if distanceAttenDb > 0 {
			distanceAttenDb = 0
		}
		distanceGain := math.Pow(10, distanceAttenDb/20)

		gain[s] = keystone * distanceGain

		hfShelfDb := d * virtualHFShelfPerM
		c.shelf[s].SetCoeffs(biquad.HighShelf(hfShelfDb, e.sampleRate))
	}
	return gain
}

// ProcessBlock renders one block of input samples for every registered
// input into the stereo bus outL/outR (summed). positions maps input index
// to its composite position for this block. Solo semantics: if any input is
// soloed, only soloed inputs contribute (§4.8).
func (e *Engine) ProcessBlock(inputs []model.Input, positions map[int]wfsmath.Vec3, samples map[int][]float32, outL, outR []float32) {
	for i := range outL {
		outL[i] = 0
		outR[i] = 0
	}

	solo := e.anySoloed()

	for idx := range inputs {
		i := inputs[idx].Index
		c := e.channelFor(i)
		if solo && !c.soloed {
			continue
		}

		pos, ok := positions[i]
		if !ok {
			continue
		}
		gain := e.updateCoefficients(i, pos)

		in := samples[i]
		n := len(outL)
		if len(in) < n {
			n = len(in)
		}

		for s := 0; s < n; s++ {
			x := float64(in[s])

			l := c.shelf[left].Process(c.lines[left].Process(x)) * gain[left]
			r := c.shelf[right].Process(c.lines[right].Process(x)) * gain[right]

			outL[s] += float32(l)
			outR[s] += float32(r)
		}
	}
}
