package level_test

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/dsp/level"
)

func TestCompressorIdentityBelowKnee(t *testing.T) {
	g := level.CompressorGain(-20-10.0001, -20, 4)
	if g != 1.0 {
		t.Fatalf("gain = %v, want exactly 1.0", g)
	}
}

func TestCompressorHardKneeCalibrationPoint(t *testing.T) {
	threshold := -20.0
	g := level.CompressorGain(threshold+20, threshold, 4)
	want := math.Pow(10, -0.75)
	if math.Abs(g-want) > 1e-9 {
		t.Fatalf("gain = %v, want %v", g, want)
	}
}

// referenceSoftKneeGain reimplements the source's un-normalized knee formula
// independently of level.go, to pin calibration parity (§9): kneePosition
// ranges 0->20 across the knee width, it is never divided by kneeWidthDb.
func referenceSoftKneeGain(levelDb, thresholdDb, ratio float64) float64 {
	kneePosition := levelDb - thresholdDb + 10
	gainDb := (kneePosition * (thresholdDb + 10 - levelDb*20)) / (ratio * 20)
	return math.Pow(10, gainDb/20)
}

func TestCompressorSoftKneeMatchesSourceFormula(t *testing.T) {
	threshold := -20.0
	ratio := 4.0
	for _, levelDb := range []float64{-29, -20, -15, -11} {
		got := level.CompressorGain(levelDb, threshold, ratio)
		want := referenceSoftKneeGain(levelDb, threshold, ratio)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("levelDb=%v: gain = %v, want %v (source calibration formula)", levelDb, got, want)
		}
	}
}

func TestCompressorBypassAtUnityRatio(t *testing.T) {
	if g := level.CompressorGain(0, -20, 1); g != 1.0 {
		t.Fatalf("ratio=1 should bypass, got gain %v", g)
	}
}

func TestDetectorPeakMonotonicForIncreasingAmplitude(t *testing.T) {
	d := level.New(48000)
	d.SetPeakCompressor(level.CompressorParams{ThresholdDb: -6, Ratio: 4})

	sampleRate := 48000.0
	timeConstantSamples := int(0.1 * sampleRate)

	prevPeakDb := math.Inf(-1)
	for amp := 0.1; amp <= 1.0; amp += 0.1 {
		for i := 0; i < timeConstantSamples; i++ {
			x := amp * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
			d.Process(x)
		}
		peakDb := d.PeakDb()
		if peakDb < prevPeakDb-1e-6 {
			t.Fatalf("peakDb decreased from %v to %v as amplitude increased to %v", prevPeakDb, peakDb, amp)
		}
		prevPeakDb = peakDb
	}
}

func TestDetectorRMSOfDCIsExact(t *testing.T) {
	d := level.New(1000)
	for i := 0; i < 2000; i++ {
		d.Process(0.5)
	}
	rmsLinear := math.Pow(10, d.RMSDb()/20)
	if math.Abs(rmsLinear-0.5) > 1e-6 {
		t.Fatalf("RMS of constant 0.5 signal = %v, want 0.5", rmsLinear)
	}
}
