package ringbuffer_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wfsrender/internal/ringbuffer"
)

var _ = Describe("Ring", func() {
	It("rounds capacity up to a power of two", func() {
		r := ringbuffer.New(100)
		Expect(r.Capacity()).To(Equal(128))
	})

	It("reports zero available before any write", func() {
		r := ringbuffer.New(16)
		Expect(r.ReadAvailable()).To(Equal(0))
		Expect(r.WriteAvailable()).To(Equal(16))
	})

	It("round-trips a full write/read", func() {
		r := ringbuffer.New(16)
		src := make([]float32, 16)
		for i := range src {
			src[i] = float32(i)
		}
		n := r.Write(src)
		Expect(n).To(Equal(16))
		Expect(r.Overruns()).To(Equal(uint64(0)))

		dst := make([]float32, 16)
		got := r.Read(dst)
		Expect(got).To(Equal(16))
		Expect(dst).To(Equal(src))
	})

	It("short-writes and counts an overrun when the producer outruns the consumer", func() {
		r := ringbuffer.New(4)
		src := make([]float32, 8)
		n := r.Write(src)
		Expect(n).To(Equal(4))
		Expect(r.Overruns()).To(Equal(uint64(1)))
	})

	It("wraps indices correctly across repeated partial writes and reads", func() {
		r := ringbuffer.New(8)
		var written, read []float32

		for round := 0; round < 20; round++ {
			chunk := []float32{float32(round), float32(round) + 0.5}
			r.Write(chunk)
			written = append(written, chunk...)

			dst := make([]float32, 2)
			n := r.Read(dst)
			read = append(read, dst[:n]...)
		}

		Expect(read).To(Equal(written))
	})

	It("supports a single producer and single consumer goroutine concurrently", func() {
		r := ringbuffer.New(1024)
		const total = 100000

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			chunk := make([]float32, 1)
			for i := 0; i < total; i++ {
				chunk[0] = float32(i)
				for r.Write(chunk) == 0 {
				}
			}
		}()

		sum := 0.0
		go func() {
			defer wg.Done()
			dst := make([]float32, 1)
			received := 0
			for received < total {
				if r.Read(dst) == 1 {
					sum += float64(dst[0])
					received++
				}
			}
		}()

		wg.Wait()
		Expect(sum).To(Equal(float64(total-1) * total / 2))
	})
})
