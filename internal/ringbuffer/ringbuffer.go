// Package ringbuffer implements the lock-free single-producer/single-consumer
// sample queue (§4.1, C1) used between the input-side capture thread and the
// scheduler workers. Capacity is rounded up to a power of two so index
// wrapping is a mask instead of a modulo.
package ringbuffer

import "sync/atomic"

// Ring is a bounded SPSC float32 queue. One goroutine may call Write, a
// different goroutine may call Read, concurrently, without a lock. A writer
// that outruns the reader gets a short write rather than blocking (§7:
// "ring-buffer overrun never blocks the caller").
type Ring struct {
	buf  []float32
	mask uint64

	head atomic.Uint64 // next write index, producer-owned
	tail atomic.Uint64 // next read index, consumer-owned

	overruns atomic.Uint64
}

// New creates a Ring with capacity rounded up to the next power of two, at
// least 2.
func New(capacity int) *Ring {
	n := nextPowerOfTwo(capacity)
	if n < 2 {
		n = 2
	}
	return &Ring{
		buf:  make([]float32, n),
		mask: uint64(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the number of slots in the ring.
func (r *Ring) Capacity() int { return len(r.buf) }

// WriteAvailable returns how many slots can currently be written without
// overrunning the reader.
func (r *Ring) WriteAvailable() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return len(r.buf) - int(head-tail)
}

// ReadAvailable returns how many samples are currently available to read.
func (r *Ring) ReadAvailable() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(head - tail)
}

// Write copies as many samples from src as fit without overrunning the
// reader, returning the count actually written. A short write bumps the
// overrun counter rather than blocking or erroring.
func (r *Ring) Write(src []float32) int {
	avail := r.WriteAvailable()
	n := len(src)
	if n > avail {
		n = avail
		r.overruns.Add(1)
	}
	if n == 0 {
		return 0
	}

	head := r.head.Load()
	for i := 0; i < n; i++ {
		r.buf[(head+uint64(i))&r.mask] = src[i]
	}
	r.head.Store(head + uint64(n))
	return n
}

// Read copies up to len(dst) samples into dst, returning the count actually
// read. A short read (fewer samples available than requested) is a normal,
// silent underrun condition at the caller's discretion — the ring itself
// does not count it; callers that care track it (§7).
func (r *Ring) Read(dst []float32) int {
	avail := r.ReadAvailable()
	n := len(dst)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	tail := r.tail.Load()
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(tail+uint64(i))&r.mask]
	}
	r.tail.Store(tail + uint64(n))
	return n
}

// Overruns returns the number of short writes observed so far.
func (r *Ring) Overruns() uint64 { return r.overruns.Load() }

// Reset empties the ring. Not safe to call concurrently with Read/Write.
func (r *Ring) Reset() {
	r.head.Store(0)
	r.tail.Store(0)
	r.overruns.Store(0)
}
