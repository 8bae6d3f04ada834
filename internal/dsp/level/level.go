// Package level implements the per-input/output level detector and
// soft-knee compressor (§4.4, C4): a peak envelope, a secondary fast-release
// envelope for automotion triggering, a windowed RMS, and a compressor gain
// computation whose knee interpolation must reproduce the source calibration
// bit-for-bit (§9 open question).
package level

import (
	"math"
	"sync/atomic"
)

const (
	peakReleaseSeconds     = 0.100
	fastReleaseSeconds     = 0.005
	rmsWindowSeconds       = 0.200
	gainAttackSeconds      = 0.002
	gainPeakReleaseSeconds = 0.002
	gainSlowReleaseSeconds = 0.020

	kneeWidthDb = 20.0
)

// CompressorParams configures the soft-knee compressor (§4.4).
type CompressorParams struct {
	ThresholdDb float64
	Ratio       float64 // 1 = bypass
}

// Detector runs the envelope and compressor pipeline for one channel
// (one input or output). It is owned exclusively by the thread that calls
// Process; PeakGR/SlowGR are read concurrently by other threads via relaxed
// atomics.
type Detector struct {
	sampleRate float64

	peakEnv float64
	fastEnv float64

	peakReleaseCoeff float64
	fastReleaseCoeff float64

	rmsBuf   []float64
	rmsPos   int
	rmsSumSq float64

	peak CompressorParams
	slow CompressorParams

	attackCoeff      float64
	peakReleaseGCoef float64
	slowReleaseGCoef float64

	peakGR atomic.Uint64 // float32 bits, relaxed (§4.4)
	slowGR atomic.Uint64 // float32 bits, relaxed
}

// New creates a Detector for the given sample rate.
func New(sampleRate float64) *Detector {
	d := &Detector{
		sampleRate:       sampleRate,
		peakReleaseCoeff: releaseCoeff(peakReleaseSeconds, sampleRate),
		fastReleaseCoeff: releaseCoeff(fastReleaseSeconds, sampleRate),
		rmsBuf:           make([]float64, int(rmsWindowSeconds*sampleRate)),
		attackCoeff:      releaseCoeff(gainAttackSeconds, sampleRate),
		peakReleaseGCoef: releaseCoeff(gainPeakReleaseSeconds, sampleRate),
		slowReleaseGCoef: releaseCoeff(gainSlowReleaseSeconds, sampleRate),
		peak:             CompressorParams{ThresholdDb: 0, Ratio: 1},
		slow:             CompressorParams{ThresholdDb: 0, Ratio: 1},
	}
	d.peakGR.Store(uint64(math.Float32bits(1)))
	d.slowGR.Store(uint64(math.Float32bits(1)))
	return d
}

func releaseCoeff(timeConstantSeconds, sampleRate float64) float64 {
	return math.Exp(-1.0 / (timeConstantSeconds * sampleRate))
}

// SetPeakCompressor configures the fast (peak-path) compressor stage.
func (d *Detector) SetPeakCompressor(p CompressorParams) { d.peak = p }

// SetSlowCompressor configures the slow (RMS-path) compressor stage.
func (d *Detector) SetSlowCompressor(p CompressorParams) { d.slow = p }

// Process runs one input sample through both envelope paths and the
// compressor, publishing updated peakGR/slowGR.
func (d *Detector) Process(x float64) {
	abs := math.Abs(x)

	if abs > d.peakEnv {
		d.peakEnv = abs
	} else {
		d.peakEnv *= d.peakReleaseCoeff
	}

	if abs > d.fastEnv {
		d.fastEnv = abs
	} else {
		d.fastEnv *= d.fastReleaseCoeff
	}

	old := d.rmsBuf[d.rmsPos]
	d.rmsSumSq -= old * old
	d.rmsBuf[d.rmsPos] = x
	d.rmsSumSq += x * x
	d.rmsPos++
	if d.rmsPos >= len(d.rmsBuf) {
		d.rmsPos = 0
	}
	if d.rmsSumSq < 0 {
		d.rmsSumSq = 0
	}
	rms := math.Sqrt(d.rmsSumSq / float64(len(d.rmsBuf)))

	peakTargetGain := CompressorGain(linearToDb(d.peakEnv), d.peak.ThresholdDb, d.peak.Ratio)
	slowTargetGain := CompressorGain(linearToDb(rms), d.slow.ThresholdDb, d.slow.Ratio)

	d.smoothGain(&d.peakGR, peakTargetGain, d.peakReleaseGCoef)
	d.smoothGain(&d.slowGR, slowTargetGain, d.slowReleaseGCoef)
}

func (d *Detector) smoothGain(dst *atomic.Uint64, target, releaseCoeff float64) {
	current := float64(math.Float32frombits(uint32(dst.Load())))
	var coeff float64
	if target < current {
		coeff = d.attackCoeff
	} else {
		coeff = releaseCoeff
	}
	next := current + (target-current)*(1-coeff)
	dst.Store(uint64(math.Float32bits(float32(next))))
}

// PeakGR returns the current peak-path gain-reduction multiplier.
func (d *Detector) PeakGR() float64 { return float64(math.Float32frombits(uint32(d.peakGR.Load()))) }

// SlowGR returns the current slow (RMS) path gain-reduction multiplier.
func (d *Detector) SlowGR() float64 { return float64(math.Float32frombits(uint32(d.slowGR.Load()))) }

// PeakDb returns the current peak envelope level in dB.
func (d *Detector) PeakDb() float64 { return linearToDb(d.peakEnv) }

// RMSDb returns the current windowed RMS level in dB.
func (d *Detector) RMSDb() float64 {
	rms := math.Sqrt(d.rmsSumSq / float64(len(d.rmsBuf)))
	return linearToDb(rms)
}

// FastEnvDb returns the secondary fast-release envelope, used to trigger
// automotion level thresholds.
func (d *Detector) FastEnvDb() float64 { return linearToDb(d.fastEnv) }

func linearToDb(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// CompressorGain computes the soft-knee compressor's linear gain multiplier
// for the given level. The knee interpolation reproduces the source's
// algebraic expression verbatim (§9 open question): implementers are told
// to keep it bit-for-bit even though its behaviour outside the documented
// calibration points is under-specified.
func CompressorGain(levelDb, thresholdDb, ratio float64) float64 {
	if ratio <= 1 {
		return 1.0
	}

	lowerKnee := thresholdDb - kneeWidthDb/2
	upperKnee := thresholdDb + kneeWidthDb/2

	switch {
	case levelDb <= lowerKnee:
		return 1.0
	case levelDb >= upperKnee:
		gainDb := (thresholdDb - levelDb) * (ratio - 1) / ratio
		return math.Pow(10, gainDb/20)
	default:
		kneePosition := levelDb - lowerKnee
		gainDb := (kneePosition * (thresholdDb + 10 - levelDb*20)) / (ratio * 20)
		return math.Pow(10, gainDb/20)
	}
}
