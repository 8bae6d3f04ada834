package routing_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/routing"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

var _ = Describe("Engine matrix swap", func() {
	It("never exposes a torn cell while versions race updates against reads (S5, property 1)", func() {
		e := routing.NewEngine(48000, 343, 1, 1)
		inputs := []model.Input{{Index: 0, CommonAttenuation: 1, Mute: []bool{false}}}
		outputs := []model.Output{{Index: 0, Attenuation: 1, DistanceAttenPercent: 100, Position: wfsmath.Vec3{X: 1}}}
		pos := fixedPositions{pos: []wfsmath.Vec3{{}}}

		const updates = 1000
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for n := 0; n < updates; n++ {
				outputs[0].Attenuation = 1 + float64(n)*0.0001
				e.MarkDirty()
				e.Recompute(inputs, outputs, pos, 0, nil)
			}
		}()

		versionsSeen := make([]uint64, 0, updates)
		var mu sync.Mutex
		go func() {
			defer wg.Done()
			for n := 0; n < updates; n++ {
				m := e.Snapshot().Load()
				c := m.At(0, 0)
				Expect(c.Muted).To(BeFalse())

				mu.Lock()
				versionsSeen = append(versionsSeen, m.Version)
				mu.Unlock()
			}
		}()

		wg.Wait()

		for i := 1; i < len(versionsSeen); i++ {
			Expect(versionsSeen[i]).To(BeNumerically(">=", versionsSeen[i-1]))
		}
	})
})
