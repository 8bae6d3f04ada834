package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/san-kum/wfsrender/internal/dsp/biquad"
	"github.com/san-kum/wfsrender/internal/dsp/delay"
	"github.com/san-kum/wfsrender/internal/ringbuffer"
	"github.com/san-kum/wfsrender/internal/routing"
)

// inputWork is handed to an input worker at block start; it carries enough
// to process the block against a single, fixed matrix version (§5: "all
// cells read by any worker correspond to the same matrix version").
type inputWork struct {
	matrix     *routing.Matrix
	seq        uint64
	numSamples int
}

// inputWorker is the sole owner of one input's ring, per-output delay lines,
// and per-output HF-shelf filters (§4.9).
type inputWorker struct {
	index int
	ring  *ringbuffer.Ring

	delayLines []*delay.Line   // [numOutputs]
	shelves    []*biquad.Stage // [numOutputs]

	floorDelayLines []*delay.Line
	floorShelves    []*biquad.Stage

	local []float64 // scratch numOutputs*maxBlockSize, reused across blocks

	signal chan inputWork

	micros     atomic.Uint64 // bits of a float64 microsecondsPerBlock
	cpuPercent atomic.Uint64 // bits of a float64 cpuPercent

	quit chan struct{}
}

func newInputWorker(index, numOutputs, ringCapacity, maxBlockSize int, sampleRate float64) *inputWorker {
	w := &inputWorker{
		index:           index,
		ring:            ringbuffer.New(ringCapacity),
		delayLines:      make([]*delay.Line, numOutputs),
		shelves:         make([]*biquad.Stage, numOutputs),
		floorDelayLines: make([]*delay.Line, numOutputs),
		floorShelves:    make([]*biquad.Stage, numOutputs),
		local:           make([]float64, numOutputs*maxBlockSize),
		signal:          make(chan inputWork, 1),
		quit:            make(chan struct{}),
	}
	for j := 0; j < numOutputs; j++ {
		w.delayLines[j] = delay.New(0.5, sampleRate, maxBlockSize)
		w.shelves[j] = biquad.NewStage()
		w.floorDelayLines[j] = delay.New(0.5, sampleRate, maxBlockSize)
		w.floorShelves[j] = biquad.NewStage()
	}
	return w
}

// run is the worker loop: wait for signal, process into a scratch buffer,
// and (if this block hasn't already timed out) add into the shared
// accumulator and report completion (§4.9).
func (w *inputWorker) run(sampleRate float64, numOutputs, maxBlockSize int, accum []atomic.Uint64, generation *atomic.Uint64, completions chan<- uint64) {
	buf := make([]float32, maxBlockSize)
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
			read := w.ring.Read(buf[:n])
			for s := read; s < n; s++ {
				buf[s] = 0
			}

			for k := range w.local {
				w.local[k] = 0
			}

			for j := 0; j < numOutputs; j++ {
				base := j * n
				cell := work.matrix.At(w.index, j)
				if !cell.Muted {
					w.delayLines[j].SetDelaySamples(cell.DelaySamples)
					w.shelves[j].SetCoeffs(biquad.HighShelf(cell.HFShelfDb, sampleRate))
					for s := 0; s < n; s++ {
						y := w.shelves[j].Process(w.delayLines[j].Process(float64(buf[s])))
						w.local[base+s] += y * cell.GainLinear
					}
				}

				fc := work.matrix.FloorAt(w.index, j)
				if !fc.Muted {
					w.floorDelayLines[j].SetDelaySamples(fc.DelaySamples)
					w.floorShelves[j].SetCoeffs(biquad.HighShelf(fc.HFShelfDb, sampleRate))
					for s := 0; s < n; s++ {
						y := w.floorShelves[j].Process(w.floorDelayLines[j].Process(float64(buf[s])))
						w.local[base+s] += y * fc.GainLinear
					}
				}
			}

			elapsed := time.Since(start)
			w.micros.Store(math.Float64bits(float64(elapsed.Microseconds())))
			blockSeconds := float64(n) / sampleRate
			if blockSeconds > 0 {
				w.cpuPercent.Store(math.Float64bits(elapsed.Seconds() / blockSeconds * 100))
			}

			if generation.Load() == work.seq {
				for j := 0; j < numOutputs; j++ {
					base := j * n
					for s := 0; s < n; s++ {
						atomicAddFloat64(&accum[j*maxBlockSize+s], w.local[base+s])
					}
				}
				completions <- work.seq
			}
		}
	}
}

// InputScheduler is the C9 scheduler: one goroutine per input, contending
// on a shared output accumulator via atomic adds.
type InputScheduler struct {
	sampleRate                          float64
	numInputs, numOutputs, maxBlockSize int
	blockDuration                       time.Duration

	workers      []*inputWorker
	accum        []atomic.Uint64
	generation   atomic.Uint64
	underruns    atomic.Uint64
	completions  chan uint64
	deadlineTimer *time.Timer
}

// NewInputScheduler builds a C9 scheduler sized for numInputs×numOutputs.
func NewInputScheduler(sampleRate float64, numInputs, numOutputs, maxBlockSize int) *InputScheduler {
	deadlineTimer := time.NewTimer(time.Hour)
	if !deadlineTimer.Stop() {
		<-deadlineTimer.C
	}

	s := &InputScheduler{
		sampleRate:    sampleRate,
		numInputs:     numInputs,
		numOutputs:    numOutputs,
		maxBlockSize:  maxBlockSize,
		blockDuration: time.Duration(float64(maxBlockSize) / sampleRate * float64(time.Second)),
		workers:       make([]*inputWorker, numInputs),
		accum:         make([]atomic.Uint64, numOutputs*maxBlockSize),
		completions:   make(chan uint64, numInputs),
		deadlineTimer: deadlineTimer,
	}
	for i := 0; i < numInputs; i++ {
		s.workers[i] = newInputWorker(i, numOutputs, maxBlockSize*4, maxBlockSize, sampleRate)
		go s.workers[i].run(sampleRate, numOutputs, maxBlockSize, s.accum, &s.generation, s.completions)
	}
	return s
}

// Process runs one block: copies each input into its ring, signals all
// workers, waits bounded for completions, and drains the accumulator into
// outBuffers (§4.9).
func (s *InputScheduler) Process(inBuffers [][]float32, outBuffers [][]float32, numSamples int, m *routing.Matrix) {
	for i := range s.accum {
		s.accum[i].Store(0)
	}

	seq := s.generation.Add(1)

	for i, w := range s.workers {
		w.ring.Write(inBuffers[i][:numSamples])
		w.signal <- inputWork{matrix: m, seq: seq, numSamples: numSamples}
	}

	if !s.deadlineTimer.Stop() {
		select {
		case <-s.deadlineTimer.C:
		default:
		}
	}
	s.deadlineTimer.Reset(2 * s.blockDuration)

	remaining := s.numInputs
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

	for j := 0; j < s.numOutputs; j++ {
		out := outBuffers[j]
		for n := 0; n < numSamples; n++ {
			out[n] = float32(math.Float64frombits(s.accum[j*s.maxBlockSize+n].Load()))
		}
	}
}

// Underruns returns the cumulative count of missed worker deadlines.
func (s *InputScheduler) Underruns() uint64 { return s.underruns.Load() }

// ThreadPerformance returns input worker i's last recorded timing.
func (s *InputScheduler) ThreadPerformance(i int) ThreadPerformance {
	w := s.workers[i]
	return ThreadPerformance{
		CPUPercent:     math.Float64frombits(w.cpuPercent.Load()),
		MicrosPerBlock: math.Float64frombits(w.micros.Load()),
	}
}

// Close stops all worker goroutines.
func (s *InputScheduler) Close() {
	for _, w := range s.workers {
		close(w.quit)
	}
}
