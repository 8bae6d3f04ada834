// Package telemetry implements C11, the level-metering coordinator. It polls
// the active scheduler's per-input and per-output level detectors and
// per-thread timing at 20Hz from the UI timer thread, caching a snapshot
// that read accessors return without ever touching the audio thread (§4.11).
package telemetry

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// pollIntervalSeconds is C11's fixed poll rate (§4.11: "polls ... at 20 Hz").
const pollIntervalSeconds = 1.0 / 20.0

// Source is the subset of the Engine facade C11 polls. internal/engine's
// Engine satisfies this without either package importing the other.
type Source interface {
	NumInputs() int
	NumOutputs() int
	NumWorkers() int
	GetInputLevel(i int) (peakDb, rmsDb float64)
	GetOutputLevel(j int) (peakDb, rmsDb float64)
	GetThreadPerformance(k int) (cpuPercent, microsPerBlock float64)
}

// SpectralSource is an optional Source extension for engines that keep a
// rolling capture buffer and can report a peak-frequency reading per output
// channel. internal/engine.Engine satisfies this; it is debug/offline
// tooling (internal/analysis), never required for metering to function.
type SpectralSource interface {
	Source
	GetOutputSpectrum(j int) (peakHz, magnitude float64)
}

type levelSnapshot struct {
	peakDb atomic.Uint64
	rmsDb  atomic.Uint64
}

type threadSnapshot struct {
	cpuPercent     atomic.Uint64
	microsPerBlock atomic.Uint64
}

type spectralSnapshot struct {
	peakHz    atomic.Uint64
	magnitude atomic.Uint64
}

// Coordinator is C11. Two atomic-bool enable flags (map-overlay, meter-
// window) gate polling; when both are false the poll loop is a no-op tick.
type Coordinator struct {
	mapOverlayEnabled  atomic.Bool
	meterWindowEnabled atomic.Bool

	mu     sync.RWMutex
	source Source

	inputs    []levelSnapshot
	outputs   []levelSnapshot
	threads   []threadSnapshot
	spectral  []spectralSnapshot
	spectralOK bool

	stop chan struct{}
	done chan struct{}
}

// New creates an unbound Coordinator. Bind must be called before Start or
// Poll will have anything to read.
func New() *Coordinator {
	return &Coordinator{}
}

// Bind attaches (or rebinds) the engine telemetry polls. "Switching the
// active engine rebinds the references" (§4.11) — callers invoke Bind again
// after SetActiveAlgorithm changes the active scheduler's worker count.
func (c *Coordinator) Bind(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
	c.inputs = make([]levelSnapshot, source.NumInputs())
	c.outputs = make([]levelSnapshot, source.NumOutputs())
	c.threads = make([]threadSnapshot, source.NumWorkers())

	_, c.spectralOK = source.(SpectralSource)
	if c.spectralOK {
		c.spectral = make([]spectralSnapshot, source.NumOutputs())
	} else {
		c.spectral = nil
	}
}

// SetMapOverlayEnabled toggles the map-overlay enable flag.
func (c *Coordinator) SetMapOverlayEnabled(enabled bool) { c.mapOverlayEnabled.Store(enabled) }

// SetMeterWindowEnabled toggles the meter-window enable flag.
func (c *Coordinator) SetMeterWindowEnabled(enabled bool) { c.meterWindowEnabled.Store(enabled) }

func (c *Coordinator) enabled() bool {
	return c.mapOverlayEnabled.Load() || c.meterWindowEnabled.Load()
}

// Start launches the 20Hz poll loop.
func (c *Coordinator) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.pollLoop(c.stop, c.done)
}

func (c *Coordinator) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(pollIntervalSeconds * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.enabled() {
				c.poll()
			}
		}
	}
}

// Poll runs one poll iteration synchronously regardless of the enable flags;
// hosts and tests that want deterministic timing call this directly instead
// of starting the background loop.
func (c *Coordinator) Poll() { c.poll() }

func (c *Coordinator) poll() {
	c.mu.RLock()
	source := c.source
	c.mu.RUnlock()
	if source == nil {
		return
	}

	for i := range c.inputs {
		peak, rms := source.GetInputLevel(i)
		c.inputs[i].peakDb.Store(math.Float64bits(peak))
		c.inputs[i].rmsDb.Store(math.Float64bits(rms))
	}
	for j := range c.outputs {
		peak, rms := source.GetOutputLevel(j)
		c.outputs[j].peakDb.Store(math.Float64bits(peak))
		c.outputs[j].rmsDb.Store(math.Float64bits(rms))
	}
	for k := range c.threads {
		cpu, micros := source.GetThreadPerformance(k)
		c.threads[k].cpuPercent.Store(math.Float64bits(cpu))
		c.threads[k].microsPerBlock.Store(math.Float64bits(micros))
	}

	if spectral, ok := source.(SpectralSource); ok && c.spectralOK {
		for j := range c.spectral {
			hz, mag := spectral.GetOutputSpectrum(j)
			c.spectral[j].peakHz.Store(math.Float64bits(hz))
			c.spectral[j].magnitude.Store(math.Float64bits(mag))
		}
	}
}

// InputLevel returns input i's cached peak/RMS reading.
func (c *Coordinator) InputLevel(i int) (peakDb, rmsDb float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.inputs) {
		return 0, 0
	}
	return math.Float64frombits(c.inputs[i].peakDb.Load()), math.Float64frombits(c.inputs[i].rmsDb.Load())
}

// OutputLevel returns output j's cached peak/RMS reading.
func (c *Coordinator) OutputLevel(j int) (peakDb, rmsDb float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if j < 0 || j >= len(c.outputs) {
		return 0, 0
	}
	return math.Float64frombits(c.outputs[j].peakDb.Load()), math.Float64frombits(c.outputs[j].rmsDb.Load())
}

// ThreadPerformance returns worker k's cached CPU%/us-per-block reading.
func (c *Coordinator) ThreadPerformance(k int) (cpuPercent, microsPerBlock float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if k < 0 || k >= len(c.threads) {
		return 0, 0
	}
	return math.Float64frombits(c.threads[k].cpuPercent.Load()), math.Float64frombits(c.threads[k].microsPerBlock.Load())
}

// OutputSpectrum returns output j's cached peak-frequency reading. Both
// values are zero when the bound source doesn't implement SpectralSource or
// hasn't filled a capture window yet.
func (c *Coordinator) OutputSpectrum(j int) (peakHz, magnitude float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if j < 0 || j >= len(c.spectral) {
		return 0, 0
	}
	return math.Float64frombits(c.spectral[j].peakHz.Load()), math.Float64frombits(c.spectral[j].magnitude.Load())
}

// Stop halts the poll loop started by Start. Safe to call on a Coordinator
// that was never started.
func (c *Coordinator) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
	c.done = nil
}
