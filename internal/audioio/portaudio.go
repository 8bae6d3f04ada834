// Package audioio wires internal/engine.Engine to a real soundcard via
// portaudio, adapted from the teacher's internal/audio/audio.go lifecycle
// (Initialize, OpenDefaultStream, Start, Stop, Terminate). Unlike the
// teacher's single-device synth, Stream drives a duplex, multi-channel
// input/output device: portaudio hands it one non-interleaved buffer per
// channel each block, which Stream copies into the engine's planar
// [][]float32 scratch space, calls Process, then copies the result back out.
package audioio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/san-kum/wfsrender/internal/wfslog"
)

// Renderer is the slice of *engine.Engine the audio callback needs.
type Renderer interface {
	Process(inBuffers [][]float32, outBuffers [][]float32, numSamples int) error
}

// Stream owns a portaudio duplex stream and the planar scratch buffers the
// audio callback reuses every block; it allocates nothing once running.
type Stream struct {
	stream     *portaudio.Stream
	engine     Renderer
	numInputs  int
	numOutputs int
	blockSize  int
	inPlanar   [][]float32
	outPlanar  [][]float32
}

// NewStream opens the default duplex device at sampleRate with the given
// channel counts and block size. The engine must already be prepared with
// matching counts before Start is called.
func NewStream(eng Renderer, sampleRate float64, numInputs, numOutputs, blockSize int) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: portaudio init: %w", err)
	}

	s := &Stream{
		engine:     eng,
		numInputs:  numInputs,
		numOutputs: numOutputs,
		blockSize:  blockSize,
		inPlanar:   make([][]float32, numInputs),
		outPlanar:  make([][]float32, numOutputs),
	}
	for i := range s.inPlanar {
		s.inPlanar[i] = make([]float32, blockSize)
	}
	for j := range s.outPlanar {
		s.outPlanar[j] = make([]float32, blockSize)
	}

	stream, err := portaudio.OpenDefaultStream(numInputs, numOutputs, sampleRate, blockSize, s.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audioio: open stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// callback copies portaudio's per-channel buffers into planar scratch space,
// runs one engine block, and copies the result back into out.
func (s *Stream) callback(in, out [][]float32) {
	n := len(out[0])
	for ch, buf := range in {
		if ch >= s.numInputs {
			break
		}
		copy(s.inPlanar[ch][:n], buf[:n])
	}

	if err := s.engine.Process(s.inPlanar, s.outPlanar, n); err != nil {
		wfslog.Error("audio callback process failed", "err", err)
		for _, buf := range out {
			for i := range buf[:n] {
				buf[i] = 0
			}
		}
		return
	}

	for ch, buf := range out {
		if ch >= s.numOutputs {
			for i := range buf[:n] {
				buf[i] = 0
			}
			continue
		}
		copy(buf[:n], s.outPlanar[ch][:n])
	}
}

// Start begins streaming audio through the engine.
func (s *Stream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("audioio: start stream: %w", err)
	}
	return nil
}

// Stop halts the stream and releases portaudio resources.
func (s *Stream) Stop() {
	if s.stream != nil {
		_ = s.stream.Stop()
		_ = s.stream.Close()
	}
	portaudio.Terminate()
}
