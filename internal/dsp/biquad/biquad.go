// Package biquad implements the per-cell IIR filter stage (§4.2, C2): a
// direct-form-II-transposed biquad used both as the output EQ bands (§4.10)
// and as the per-cell HF-shelf applied along the delay path (§4.6 step 6).
// Coefficient changes are crossfaded over a short window rather than applied
// instantaneously, so a parameter update from the control thread never
// clicks.
package biquad

import "math"

// rampSamples bounds the coefficient crossfade window (§4.2: "coefficient
// changes ramped over at most 64 samples").
const rampSamples = 64

// Coeffs holds the five direct-form-II-transposed coefficients.
type Coeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Stage is one biquad IIR stage with state and coefficient ramping.
type Stage struct {
	coeffs Coeffs
	from   Coeffs
	ramp   int

	z1, z2 float64
}

// NewStage returns a stage initialised to the identity (pass-through)
// response.
func NewStage() *Stage {
	s := &Stage{}
	s.coeffs = Coeffs{B0: 1}
	s.from = s.coeffs
	return s
}

// SetCoeffs begins a crossfade from the current coefficients to c over
// rampSamples samples.
func (s *Stage) SetCoeffs(c Coeffs) {
	s.from = s.currentCoeffs()
	s.coeffs = c
	s.ramp = rampSamples
}

// currentCoeffs returns the coefficients Process is using right now
// (the ramp target once a crossfade has finished).
func (s *Stage) currentCoeffs() Coeffs {
	if s.ramp <= 0 {
		return s.coeffs
	}
	t := 1 - float64(s.ramp)/float64(rampSamples)
	return lerpCoeffs(s.from, s.coeffs, t)
}

func lerpCoeffs(a, b Coeffs, t float64) Coeffs {
	return Coeffs{
		B0: a.B0 + (b.B0-a.B0)*t,
		B1: a.B1 + (b.B1-a.B1)*t,
		B2: a.B2 + (b.B2-a.B2)*t,
		A1: a.A1 + (b.A1-a.A1)*t,
		A2: a.A2 + (b.A2-a.A2)*t,
	}
}

// Reset clears filter state without touching coefficients.
func (s *Stage) Reset() {
	s.z1, s.z2 = 0, 0
}

// Process filters one sample.
func (s *Stage) Process(x float64) float64 {
	c := s.coeffs
	if s.ramp > 0 {
		t := 1 - float64(s.ramp)/float64(rampSamples)
		c = lerpCoeffs(s.from, s.coeffs, t)
		s.ramp--
	}

	y := c.B0*x + s.z1
	s.z1 = c.B1*x - c.A1*y + s.z2
	s.z2 = c.B2*x - c.A2*y

	if math.IsNaN(y) || math.IsInf(y, 0) {
		s.z1, s.z2 = 0, 0
		return 0
	}
	return y
}

// ProcessBlock filters a block of samples in place.
func (s *Stage) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = s.Process(x)
	}
}

// shelfFrequencyHz is the fixed corner frequency of the per-cell HF-shelf
// applied to the WFS delay path (§4.6 step 6, §9: "one fixed shelf design
// recomputed only on gain change, not a general parametric EQ").
const shelfFrequencyHz = 5000.0

// HighShelf designs a high-shelf biquad at shelfFrequencyHz with the given
// gain in dB, RBJ cookbook form, S = 1 (moderate slope).
func HighShelf(gainDb, sampleRate float64) Coeffs {
	A := math.Pow(10, gainDb/40)
	w0 := 2 * math.Pi * shelfFrequencyHz / sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	shelfSlope := 1.0
	alpha := sinw0 / 2 * math.Sqrt((A+1/A)*(1/shelfSlope-1)+2)
	twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha

	b0 := A * ((A + 1) + (A-1)*cosw0 + twoSqrtAAlpha)
	b1 := -2 * A * ((A - 1) + (A+1)*cosw0)
	b2 := A * ((A + 1) + (A-1)*cosw0 - twoSqrtAAlpha)
	a0 := (A + 1) - (A-1)*cosw0 + twoSqrtAAlpha
	a1 := 2 * ((A - 1) - (A+1)*cosw0)
	a2 := (A + 1) - (A-1)*cosw0 - twoSqrtAAlpha

	return Coeffs{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// PeakingEQ designs a peaking biquad at frequencyHz with the given gain and
// Q, RBJ cookbook form. Used for output EQ bands (§4.10).
func PeakingEQ(frequencyHz, gainDb, q, sampleRate float64) Coeffs {
	A := math.Pow(10, gainDb/40)
	w0 := 2 * math.Pi * frequencyHz / sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)

	b0 := 1 + alpha*A
	b1 := -2 * cosw0
	b2 := 1 - alpha*A
	a0 := 1 + alpha/A
	a1 := -2 * cosw0
	a2 := 1 - alpha/A

	return Coeffs{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
