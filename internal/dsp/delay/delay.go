// Package delay implements the per-channel fractional delay line (§4.3, C3):
// a circular buffer read with linear interpolation, whose effective delay is
// itself low-pass smoothed sample-by-sample so a block-rate commanded-delay
// change never produces zipper noise.
package delay

import "math"

// smoothingTimeConstantSeconds is the time constant of the per-sample
// one-pole that chases the commanded delay (§3: "time constant ≈ 20 ms").
const smoothingTimeConstantSeconds = 0.020

// Line is a single-channel fractional delay line. It is owned exclusively by
// one worker; it is not safe for concurrent use.
type Line struct {
	buf      []float64
	writePos int

	commandedSamples float64
	currentSamples    float64
	primed            bool

	smoothingCoeff float64
}

// New allocates a Line sized for maxDelaySeconds at sampleRate, plus headroom
// for one block (§4.3: capacity = max(1, ceil(maxDelaySeconds*sampleRate)) + maxBlockSize).
func New(maxDelaySeconds float64, sampleRate float64, maxBlockSize int) *Line {
	capSamples := int(math.Ceil(maxDelaySeconds * sampleRate))
	if capSamples < 1 {
		capSamples = 1
	}
	capSamples += maxBlockSize

	dt := 1.0 / sampleRate
	coeff := dt / (smoothingTimeConstantSeconds + dt)

	return &Line{
		buf:            make([]float64, capSamples),
		smoothingCoeff: coeff,
	}
}

// Capacity returns the number of slots in the underlying buffer.
func (l *Line) Capacity() int { return len(l.buf) }

// SetDelaySamples commands a new target delay, clamped to [0, capacity-1]
// (§4.3: "over-range commanded delay is clamped"). The actual delay used by
// Process converges toward this value over successive samples. The very
// first call primes the smoothed delay directly to the commanded value, so a
// line configured before any audio has flowed starts at its intended delay
// instead of ramping up from zero.
func (l *Line) SetDelaySamples(samples float64) {
	if samples < 0 {
		samples = 0
	}
	if max := float64(len(l.buf) - 1); samples > max {
		samples = max
	}
	l.commandedSamples = samples
	if !l.primed {
		l.currentSamples = samples
		l.primed = true
	}
}

// Write advances the write head by one sample, storing x.
func (l *Line) Write(x float64) {
	l.buf[l.writePos] = x
	l.writePos++
	if l.writePos >= len(l.buf) {
		l.writePos = 0
	}
}

// Read returns the delayed sample for the current (smoothed) delay, without
// advancing the write head. Call Write once per sample before or after Read
// as appropriate for the scheduler's ordering.
func (l *Line) Read() float64 {
	l.currentSamples += (l.commandedSamples - l.currentSamples) * l.smoothingCoeff

	readPos := float64(l.writePos) - l.currentSamples
	for readPos < 0 {
		readPos += float64(len(l.buf))
	}

	i0 := int(readPos)
	frac := readPos - float64(i0)
	i1 := i0 + 1
	if i1 >= len(l.buf) {
		i1 = 0
	}
	if i0 >= len(l.buf) {
		i0 = 0
	}

	return l.buf[i0]*(1-frac) + l.buf[i1]*frac
}

// Process writes x and returns the delayed output in one call, the usual
// per-sample entry point for the schedulers.
func (l *Line) Process(x float64) float64 {
	out := l.Read()
	l.Write(x)
	return out
}

// Reset zeroes the buffer and resets the write head and smoothed delay.
func (l *Line) Reset() {
	for i := range l.buf {
		l.buf[i] = 0
	}
	l.writePos = 0
	l.currentSamples = 0
	l.commandedSamples = 0
	l.primed = false
}
