package engine

import (
	"sync"
	"time"

	"github.com/san-kum/wfsrender/internal/analysis"
	"github.com/san-kum/wfsrender/internal/binaural"
	"github.com/san-kum/wfsrender/internal/dsp/level"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/params"
	"github.com/san-kum/wfsrender/internal/position"
	"github.com/san-kum/wfsrender/internal/routing"
	"github.com/san-kum/wfsrender/internal/tamer"
	"github.com/san-kum/wfsrender/internal/wfserr"
	"github.com/san-kum/wfsrender/internal/wfslog"
)

// controlTickSeconds is the nominal control-thread rate (§5: "Control thread (~50 Hz)").
const controlTickSeconds = 1.0 / 50.0

// specCaptureLen is the length of the per-output rolling capture buffer used
// for offline spectral debug (internal/analysis). Must stay a power of two
// since analysis.FFT is a radix-2 implementation.
const specCaptureLen = 1024

// levelBank adapts a slice of per-input level.Detector to the
// tamer.LevelSource interface without exposing the detectors themselves.
type levelBank []*level.Detector

func (b levelBank) PeakGR(i int) float64 { return b[i].PeakGR() }
func (b levelBank) SlowGR(i int) float64 { return b[i].SlowGR() }

// Engine is the facade over the rendering core: prepare/process/release plus
// setActiveAlgorithm, the only surface an external host (a DAW wrapper, a
// standalone app) needs (§6).
type Engine struct {
	mu sync.Mutex

	prepared bool
	running  bool

	sampleRate   float64
	speedOfSound float64
	maxBlockSize int
	numInputs    int
	numOutputs   int

	algorithm Algorithm

	routingEngine *routing.Engine
	positions     *position.Pipeline
	tamerEngine   *tamer.Tamer
	binauralEngine *binaural.Engine

	inputLevels  levelBank
	outputLevels levelBank

	specMu   sync.Mutex
	specBuf  [][]float32
	specPos  []int
	specFull []bool

	inputScheduler  *InputScheduler
	outputScheduler *OutputScheduler

	inputs  []model.Input
	outputs []model.Output

	paramStore            params.Store
	paramStoreInputsSeen  uint64
	paramStoreOutputsSeen uint64

	timeSeconds float64

	controlStop chan struct{}
	controlDone chan struct{}
}

// New creates an unprepared Engine.
func New() *Engine {
	return &Engine{}
}

// Prepare allocates every fixed-size resource the audio path needs
// (§6: "prepare(sampleRate, maxBlockSize, numInputs, numOutputs)").
// It is the only point at which configuration errors may surface.
func (e *Engine) Prepare(sampleRate, speedOfSound float64, maxBlockSize, numInputs, numOutputs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return &wfserr.ConfigError{Op: "prepare", Wrapped: wfserr.ErrAlreadyRunning}
	}
	if numInputs <= 0 || numOutputs <= 0 || maxBlockSize <= 0 || sampleRate <= 0 {
		return &wfserr.ConfigError{Op: "prepare", Wrapped: wfserr.ErrInvalidGeometry}
	}

	e.sampleRate = sampleRate
	e.speedOfSound = speedOfSound
	e.maxBlockSize = maxBlockSize
	e.numInputs = numInputs
	e.numOutputs = numOutputs

	e.routingEngine = routing.NewEngine(sampleRate, speedOfSound, numInputs, numOutputs)
	e.positions = position.NewPipeline()
	e.tamerEngine = tamer.New(numInputs, numOutputs, controlTickSeconds)
	e.binauralEngine = binaural.New(sampleRate, speedOfSound, 0.2)

	e.inputLevels = make(levelBank, numInputs)
	for i := range e.inputLevels {
		e.inputLevels[i] = level.New(sampleRate)
	}
	e.outputLevels = make(levelBank, numOutputs)
	for j := range e.outputLevels {
		e.outputLevels[j] = level.New(sampleRate)
	}

	e.specBuf = make([][]float32, numOutputs)
	e.specPos = make([]int, numOutputs)
	e.specFull = make([]bool, numOutputs)
	for j := range e.specBuf {
		e.specBuf[j] = make([]float32, specCaptureLen)
	}

	e.inputs = make([]model.Input, numInputs)
	e.outputs = make([]model.Output, numOutputs)
	for i := range e.inputs {
		e.inputs[i] = model.Input{Index: i, CommonAttenuation: 1, Mute: make([]bool, numOutputs)}
	}
	for j := range e.outputs {
		e.outputs[j] = model.Output{Index: j, Attenuation: 1, DistanceAttenPercent: 100}
	}

	e.setAlgorithmLocked(InputBuffer)

	e.prepared = true
	wfslog.Info("engine prepared", "sampleRate", sampleRate, "numInputs", numInputs, "numOutputs", numOutputs)
	return nil
}

func (e *Engine) setAlgorithmLocked(alg Algorithm) {
	if e.inputScheduler != nil {
		e.inputScheduler.Close()
		e.inputScheduler = nil
	}
	if e.outputScheduler != nil {
		e.outputScheduler.Close()
		e.outputScheduler = nil
	}

	e.algorithm = alg
	switch alg {
	case InputBuffer:
		e.inputScheduler = NewInputScheduler(e.sampleRate, e.numInputs, e.numOutputs, e.maxBlockSize)
	case OutputBuffer:
		eqBands := make([][]model.OutputEQBand, e.numOutputs)
		for j := range e.outputs {
			eqBands[j] = e.outputs[j].EQ
		}
		e.outputScheduler = NewOutputScheduler(e.sampleRate, e.numInputs, e.numOutputs, e.maxBlockSize, eqBands)
	}
}

// SetActiveAlgorithm swaps between C9 (InputBuffer) and C10 (OutputBuffer);
// the two never run simultaneously (§4.10, §6).
func (e *Engine) SetActiveAlgorithm(alg Algorithm) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setAlgorithmLocked(alg)
}

// SetScene replaces the engine's inputs/outputs and marks the routing matrix
// dirty so the next control tick recomputes it.
func (e *Engine) SetScene(inputs []model.Input, outputs []model.Output) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = inputs
	e.outputs = outputs
	for i := range e.inputs {
		e.inputs[i].ClampInvariants()
	}
	for j := range e.outputs {
		e.outputs[j].ClampInvariants()
	}
	e.routingEngine.MarkDirty()
}

// SetMasterLevel sets the engine-wide linear gain factor folded into every
// routing cell (§4.6 step 9). Safe to call concurrently with Process/Tick.
func (e *Engine) SetMasterLevel(linear float64) {
	e.routingEngine.SetMasterLevel(linear)
}

// MasterLevel returns the current engine-wide linear gain factor.
func (e *Engine) MasterLevel() float64 {
	return e.routingEngine.MasterLevel()
}

// BindParamStore attaches an external parameter store (§6) as the scene's
// live source of truth: each control tick checks the store's version
// counters and, on a change, pulls a fresh input/output snapshot instead of
// requiring the host to call SetScene again. Passing nil unbinds it.
func (e *Engine) BindParamStore(store params.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paramStore = store
	e.paramStoreInputsSeen = 0
	e.paramStoreOutputsSeen = 0
}

// refreshFromParamStoreLocked pulls a fresh scene snapshot from the bound
// parameter store when its version counters have advanced since the last
// tick (§4.6's dirty-by-version-compare idiom). Caller must hold e.mu.
func (e *Engine) refreshFromParamStoreLocked() {
	if e.paramStore == nil {
		return
	}

	dirty := false
	if v := e.paramStore.InputsVersion(); v != e.paramStoreInputsSeen {
		e.inputs = e.paramStore.Inputs()
		e.paramStoreInputsSeen = v
		dirty = true
	}
	if v := e.paramStore.OutputsVersion(); v != e.paramStoreOutputsSeen {
		e.outputs = e.paramStore.Outputs()
		e.paramStoreOutputsSeen = v
		dirty = true
	}
	if dirty {
		e.routingEngine.MarkDirty()
	}
}

// Start launches the background control thread (~50 Hz: recomputes C5, C6,
// C7 and swaps the published matrix) (§5).
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared {
		return wfserr.ErrNotPrepared
	}
	if e.running {
		return wfserr.ErrAlreadyRunning
	}

	e.controlStop = make(chan struct{})
	e.controlDone = make(chan struct{})
	e.running = true

	go e.controlLoop(e.controlStop, e.controlDone)
	return nil
}

func (e *Engine) controlLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(controlTickSeconds * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// Tick runs one control-thread iteration synchronously (§5: recomputes C5,
// C6, C7 and swaps the published matrix). Start's background goroutine calls
// this at ~50 Hz; tests and hosts that want deterministic control timing can
// call it directly instead of starting the background loop.
func (e *Engine) Tick() { e.tick() }

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timeSeconds += controlTickSeconds
	e.positions.Tick(controlTickSeconds)
	e.refreshFromParamStoreLocked()

	e.routingEngine.MarkDirty()
	gains := e.tamerEngine.Snapshot()
	e.routingEngine.Recompute(e.inputs, e.outputs, e.positions, e.timeSeconds, gains)

	e.tamerEngine.Tick(e.inputs, e.outputs, e.positions, e.inputLevels, e.timeSeconds)
}

// Process renders one block: non-interleaved planar float32 in/out buffers,
// each sized [channels][numSamples] (§6).
func (e *Engine) Process(inBuffers [][]float32, outBuffers [][]float32, numSamples int) error {
	e.mu.Lock()
	prepared := e.prepared
	numInputs := e.numInputs
	numOutputs := e.numOutputs
	algorithm := e.algorithm
	e.mu.Unlock()

	if !prepared {
		return wfserr.ErrNotPrepared
	}
	if len(inBuffers) != numInputs || len(outBuffers) != numOutputs {
		return wfserr.ErrDimensionMismatch
	}

	for i, buf := range inBuffers {
		detector := e.inputLevels[i]
		for _, v := range buf[:numSamples] {
			detector.Process(float64(v))
		}
	}

	snapshot := e.routingEngine.Snapshot().Load()
	if snapshot == nil {
		for _, out := range outBuffers {
			for s := range out[:numSamples] {
				out[s] = 0
			}
		}
		return nil
	}

	switch algorithm {
	case OutputBuffer:
		e.outputScheduler.Process(inBuffers, outBuffers, numSamples, snapshot)
	default:
		e.inputScheduler.Process(inBuffers, outBuffers, numSamples, snapshot)
	}

	for j, buf := range outBuffers {
		detector := e.outputLevels[j]
		for _, v := range buf[:numSamples] {
			detector.Process(float64(v))
		}
	}
	e.captureSpectralSamples(outBuffers, numSamples)

	return nil
}

// captureSpectralSamples writes the latest output block into each channel's
// rolling capture buffer, wrapping at specCaptureLen. This is debug/offline
// tooling for internal/analysis, not anything the render path depends on.
func (e *Engine) captureSpectralSamples(outBuffers [][]float32, numSamples int) {
	e.specMu.Lock()
	defer e.specMu.Unlock()
	for j, buf := range outBuffers {
		if j >= len(e.specBuf) {
			continue
		}
		dst := e.specBuf[j]
		pos := e.specPos[j]
		for _, v := range buf[:numSamples] {
			dst[pos] = v
			pos++
			if pos >= specCaptureLen {
				pos = 0
				e.specFull[j] = true
			}
		}
		e.specPos[j] = pos
	}
}

// GetOutputSpectrum returns the peak frequency/magnitude (§telemetry debug
// tooling) of output j's rolling capture buffer, oldest-sample-first. Returns
// 0,0 until the buffer has captured a full specCaptureLen window.
func (e *Engine) GetOutputSpectrum(j int) (peakHz, magnitude float64) {
	e.specMu.Lock()
	defer e.specMu.Unlock()
	if j < 0 || j >= len(e.specBuf) || !e.specFull[j] {
		return 0, 0
	}

	ordered := make([]float64, specCaptureLen)
	pos := e.specPos[j]
	src := e.specBuf[j]
	for i := 0; i < specCaptureLen; i++ {
		ordered[i] = float64(src[(pos+i)%specCaptureLen])
	}

	return analysis.PeakFrequencyHz(ordered, e.sampleRate)
}

// Underruns returns the active scheduler's cumulative missed-deadline count.
func (e *Engine) Underruns() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.algorithm == OutputBuffer {
		return e.outputScheduler.Underruns()
	}
	return e.inputScheduler.Underruns()
}

// GetInputLevel returns input i's level telemetry (§6).
func (e *Engine) GetInputLevel(i int) (peakDb, rmsDb float64) {
	d := e.inputLevels[i]
	return d.PeakDb(), d.RMSDb()
}

// GetOutputLevel returns output j's level telemetry (§6).
func (e *Engine) GetOutputLevel(j int) (peakDb, rmsDb float64) {
	d := e.outputLevels[j]
	return d.PeakDb(), d.RMSDb()
}

// NumInputs returns the input count fixed at Prepare.
func (e *Engine) NumInputs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numInputs
}

// NumOutputs returns the output count fixed at Prepare.
func (e *Engine) NumOutputs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.numOutputs
}

// NumWorkers returns the active scheduler's worker count: one per input for
// C9, one per output for C10 (§4.9, §4.10). A C11 telemetry coordinator uses
// this to size its cached per-thread snapshot before the first poll.
func (e *Engine) NumWorkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.algorithm == OutputBuffer {
		return e.numOutputs
	}
	return e.numInputs
}

// GetThreadPerformance returns worker k's last recorded timing from the
// active scheduler (§6: getThreadPerformance(k)).
func (e *Engine) GetThreadPerformance(k int) (cpuPercent, microsPerBlock float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var p ThreadPerformance
	if e.algorithm == OutputBuffer {
		p = e.outputScheduler.ThreadPerformance(k)
	} else {
		p = e.inputScheduler.ThreadPerformance(k)
	}
	return p.CPUPercent, p.MicrosPerBlock
}

// Binaural returns the stereo-preview renderer for direct use by a UI/preview consumer.
func (e *Engine) Binaural() *binaural.Engine { return e.binauralEngine }

// RoutingMatrix returns the currently published delay/gain matrix (§6), or
// nil if the control thread hasn't computed one yet. A remote consumer
// serializes this with internal/wire.EncodeRouting rather than reaching
// into the engine's internals directly.
func (e *Engine) RoutingMatrix() *routing.Matrix {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.routingEngine.Snapshot().Load()
}

// Stop halts the control thread; workers are stopped by Release.
func (e *Engine) Stop() {
	e.mu.Lock()
	running := e.running
	stop := e.controlStop
	done := e.controlDone
	e.running = false
	e.mu.Unlock()

	if running {
		close(stop)
		<-done
	}
}

// Release tears down scheduler workers; a subsequent Prepare is legal (§5:
// "prepare() after stop() is legal").
func (e *Engine) Release() {
	e.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inputScheduler != nil {
		e.inputScheduler.Close()
		e.inputScheduler = nil
	}
	if e.outputScheduler != nil {
		e.outputScheduler.Close()
		e.outputScheduler = nil
	}
	e.prepared = false
}
