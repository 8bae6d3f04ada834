package analysis

import (
	"math"
	"testing"
)

func sineWave(n int, freqHz, sampleRate float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / sampleRate)
	}
	return data
}

func TestFFTFindsSineFrequency(t *testing.T) {
	const n = 1024
	const sampleRate = 48000.0
	const freq = 3000.0 // lands exactly on a bin: 3000/(48000/1024) = 64

	data := sineWave(n, freq, sampleRate)
	hz, _ := PeakFrequencyHz(data, sampleRate)
	if math.Abs(hz-freq) > sampleRate/n {
		t.Fatalf("peak frequency %v, want close to %v", hz, freq)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	data := sineWave(512, 1000, 48000)
	ps := PowerSpectrum(data)
	if len(ps) != len(data)/2 {
		t.Fatalf("expected %d bins, got %d", len(data)/2, len(ps))
	}
}

func TestMagnitudeAtHzAttenuatedByShelf(t *testing.T) {
	// A crude one-pole low-pass should leave low frequencies stronger than
	// high ones; this exercises magnitudeAtHz the way a binaural/biquad
	// HF-shelf debug check would.
	const n = 1024
	const sampleRate = 48000.0

	low := sineWave(n, 200, sampleRate)
	high := sineWave(n, 12000, sampleRate)

	filtered := make([]float64, n)
	prevLow, prevHigh := 0.0, 0.0
	const a = 0.1
	for i := range filtered {
		prevLow = prevLow + a*(low[i]-prevLow)
		prevHigh = prevHigh + a*(high[i]-prevHigh)
		filtered[i] = prevLow + prevHigh
	}

	lowMag := magnitudeAtHz(filtered, sampleRate, 200)
	highMag := magnitudeAtHz(filtered, sampleRate, 12000)
	if lowMag <= highMag {
		t.Fatalf("expected low-frequency magnitude (%v) to exceed high-frequency (%v) after low-pass", lowMag, highMag)
	}
}
