package binaural_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/wfsrender/internal/binaural"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// twoToneBlock sums an equal-amplitude low and high tone so a spectral
// check can compare their relative magnitude after the distance-proportional
// HF shelf (§4.8) has acted on the signal.
func twoToneBlock(n int, lowHz, highHz, sampleRate float64) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = float32(0.5*math.Sin(2*math.Pi*lowHz*t) + 0.5*math.Sin(2*math.Pi*highHz*t))
	}
	return buf
}

// magnitudeAtBin runs a real signal through go-dsp's FFT and returns the
// magnitude of the bin nearest hz.
func magnitudeAtBin(samples []float32, sampleRate, hz float64) float64 {
	n := len(samples)
	complexBuf := make([]complex128, n)
	for i, v := range samples {
		complexBuf[i] = complex(float64(v), 0)
	}
	spectrum := fft.FFT(complexBuf)

	binHz := sampleRate / float64(n)
	bin := int(hz/binHz + 0.5)
	if bin >= len(spectrum) {
		bin = len(spectrum) - 1
	}
	return cmplx.Abs(spectrum[bin])
}

// TestDistanceProportionalHFShelfAttenuatesHighsMore covers §4.8: a source
// positioned much farther from the virtual speakers should have its
// high-frequency content knocked down relative to its low-frequency content
// more than a nearby source, since the HF shelf's gain is d * -0.3dB/m.
func TestDistanceProportionalHFShelfAttenuatesHighsMore(t *testing.T) {
	const sampleRate = 48000.0
	const n = 1024
	const lowHz = 200.0
	const highHz = 8000.0

	near := binaural.New(sampleRate, 343, 0.3)
	far := binaural.New(sampleRate, 343, 0.3)

	inputs := []model.Input{{Index: 0}}
	nearPos := map[int]wfsmath.Vec3{0: {X: 0, Y: 0.5, Z: 0}}
	farPos := map[int]wfsmath.Vec3{0: {X: 0, Y: 40, Z: 0}}
	samples := map[int][]float32{0: twoToneBlock(n, lowHz, highHz, sampleRate)}

	nearL, nearR := make([]float32, n), make([]float32, n)
	farL, farR := make([]float32, n), make([]float32, n)

	near.ProcessBlock(inputs, nearPos, samples, nearL, nearR)
	far.ProcessBlock(inputs, farPos, samples, farL, farR)

	nearRatio := magnitudeAtBin(nearL, sampleRate, highHz) / magnitudeAtBin(nearL, sampleRate, lowHz)
	farRatio := magnitudeAtBin(farL, sampleRate, highHz) / magnitudeAtBin(farL, sampleRate, lowHz)

	if farRatio >= nearRatio {
		t.Fatalf("expected the farther source's high/low magnitude ratio (%v) to be smaller than the near source's (%v)", farRatio, nearRatio)
	}
}
