package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/san-kum/wfsrender/internal/dsp/biquad"
	"github.com/san-kum/wfsrender/internal/dsp/delay"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/routing"
)

// outputWork is handed to an output worker at block start.
type outputWork struct {
	matrix     *routing.Matrix
	inBuffers  [][]float32
	seq        uint64
	numSamples int
}

// outputWorker owns one output's per-input delay/shelf banks plus its own
// output EQ chain (§4.10): it sums across all inputs itself, so there is no
// shared-accumulator contention the way C9 has.
type outputWorker struct {
	index int

	delayLines []*delay.Line
	shelves    []*biquad.Stage

	floorDelayLines []*delay.Line
	floorShelves    []*biquad.Stage

	eq []*biquad.Stage // output EQ chain, one stage per model.OutputEQBand

	out []float32 // result of the last completed block, drained by Process

	signal chan outputWork

	micros     atomic.Uint64
	cpuPercent atomic.Uint64

	quit chan struct{}
}

func newOutputWorker(index, numInputs, maxBlockSize int, sampleRate float64, eqBands []model.OutputEQBand) *outputWorker {
	w := &outputWorker{
		index:           index,
		delayLines:      make([]*delay.Line, numInputs),
		shelves:         make([]*biquad.Stage, numInputs),
		floorDelayLines: make([]*delay.Line, numInputs),
		floorShelves:    make([]*biquad.Stage, numInputs),
		eq:              make([]*biquad.Stage, len(eqBands)),
		out:             make([]float32, maxBlockSize),
		signal:          make(chan outputWork, 1),
		quit:            make(chan struct{}),
	}
	for i := 0; i < numInputs; i++ {
		w.delayLines[i] = delay.New(0.5, sampleRate, maxBlockSize)
		w.shelves[i] = biquad.NewStage()
		w.floorDelayLines[i] = delay.New(0.5, sampleRate, maxBlockSize)
		w.floorShelves[i] = biquad.NewStage()
	}
	for b, band := range eqBands {
		stage := biquad.NewStage()
		stage.SetCoeffs(biquad.PeakingEQ(band.FrequencyHz, band.GainDb, band.Q, sampleRate))
		w.eq[b] = stage
	}
	return w
}

func (w *outputWorker) run(sampleRate float64, numInputs, maxBlockSize int, completions chan<- uint64) {
	local := make([]float64, maxBlockSize)
	for {
		select {
		case <-w.quit:
			return
		case work := <-w.signal:
			start := time.Now()

			n := work.numSamples
			if n > maxBlockSize {
				n = maxBlockSize
			}
			for s := 0; s < n; s++ {
				local[s] = 0
			}

			for i := 0; i < numInputs; i++ {
				cell := work.matrix.At(i, w.index)
				in := work.inBuffers[i]
				if !cell.Muted {
					w.delayLines[i].SetDelaySamples(cell.DelaySamples)
					w.shelves[i].SetCoeffs(biquad.HighShelf(cell.HFShelfDb, sampleRate))
					for s := 0; s < n && s < len(in); s++ {
						y := w.shelves[i].Process(w.delayLines[i].Process(float64(in[s])))
						local[s] += y * cell.GainLinear
					}
				}

				fc := work.matrix.FloorAt(i, w.index)
				if !fc.Muted {
					w.floorDelayLines[i].SetDelaySamples(fc.DelaySamples)
					w.floorShelves[i].SetCoeffs(biquad.HighShelf(fc.HFShelfDb, sampleRate))
					for s := 0; s < n && s < len(in); s++ {
						y := w.floorShelves[i].Process(w.floorDelayLines[i].Process(float64(in[s])))
						local[s] += y * fc.GainLinear
					}
				}
			}

			for s := 0; s < n; s++ {
				y := local[s]
				for _, stage := range w.eq {
					y = stage.Process(y)
				}
				w.out[s] = float32(y)
			}

			elapsed := time.Since(start)
			w.micros.Store(math.Float64bits(float64(elapsed.Microseconds())))
			blockSeconds := float64(n) / sampleRate
			if blockSeconds > 0 {
				w.cpuPercent.Store(math.Float64bits(elapsed.Seconds() / blockSeconds * 100))
			}

			completions <- work.seq
		}
	}
}

// OutputScheduler is the C10 scheduler: one goroutine per output, each
// summing all inputs independently and applying its own output EQ chain.
type OutputScheduler struct {
	sampleRate                          float64
	numInputs, numOutputs, maxBlockSize int
	blockDuration                       time.Duration

	workers       []*outputWorker
	underruns     atomic.Uint64
	completions   chan uint64
	lastSeq       uint64
	deadlineTimer *time.Timer
}

// NewOutputScheduler builds a C10 scheduler sized for numInputs×numOutputs.
// eqBands supplies each output's EQ chain, indexed the same as the outputs
// passed to Process.
func NewOutputScheduler(sampleRate float64, numInputs, numOutputs, maxBlockSize int, eqBands [][]model.OutputEQBand) *OutputScheduler {
	deadlineTimer := time.NewTimer(time.Hour)
	if !deadlineTimer.Stop() {
		<-deadlineTimer.C
	}

	s := &OutputScheduler{
		sampleRate:    sampleRate,
		numInputs:     numInputs,
		numOutputs:    numOutputs,
		maxBlockSize:  maxBlockSize,
		blockDuration: time.Duration(float64(maxBlockSize) / sampleRate * float64(time.Second)),
		workers:       make([]*outputWorker, numOutputs),
		completions:   make(chan uint64, numOutputs),
		deadlineTimer: deadlineTimer,
	}
	for j := 0; j < numOutputs; j++ {
		var bands []model.OutputEQBand
		if j < len(eqBands) {
			bands = eqBands[j]
		}
		s.workers[j] = newOutputWorker(j, numInputs, maxBlockSize, sampleRate, bands)
		go s.workers[j].run(sampleRate, numInputs, maxBlockSize, s.completions)
	}
	return s
}

// Process signals every output worker with this block's shared read-only
// input buffers, waits bounded for completions, and drains each worker's own
// output buffer into outBuffers (§4.10).
func (s *OutputScheduler) Process(inBuffers [][]float32, outBuffers [][]float32, numSamples int, m *routing.Matrix) {
	seq := s.lastSeq + 1
	s.lastSeq = seq

	for _, w := range s.workers {
		w.signal <- outputWork{matrix: m, inBuffers: inBuffers, seq: seq, numSamples: numSamples}
	}

	if !s.deadlineTimer.Stop() {
		select {
		case <-s.deadlineTimer.C:
		default:
		}
	}
	s.deadlineTimer.Reset(2 * s.blockDuration)

	remaining := s.numOutputs
waitLoop:
	for remaining > 0 {
		select {
		case gotSeq := <-s.completions:
			if gotSeq == seq {
				remaining--
			}
		case <-s.deadlineTimer.C:
			break waitLoop
		}
	}
	if remaining > 0 {
		s.underruns.Add(uint64(remaining))
	}

	for j, w := range s.workers {
		copy(outBuffers[j][:numSamples], w.out[:numSamples])
	}
}

// Underruns returns the cumulative count of missed worker deadlines.
func (s *OutputScheduler) Underruns() uint64 { return s.underruns.Load() }

// ThreadPerformance returns output worker j's last recorded timing.
func (s *OutputScheduler) ThreadPerformance(j int) ThreadPerformance {
	w := s.workers[j]
	return ThreadPerformance{
		CPUPercent:     math.Float64frombits(w.cpuPercent.Load()),
		MicrosPerBlock: math.Float64frombits(w.micros.Load()),
	}
}

// Close stops all worker goroutines.
func (s *OutputScheduler) Close() {
	for _, w := range s.workers {
		close(w.quit)
	}
}
