package binaural_test

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/binaural"
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// impulseBlock returns a block of samples that is 1.0 at the first sample
// and 0 elsewhere, used to locate the post-delay peak.
func impulseBlock(n int) []float32 {
	buf := make([]float32, n)
	buf[0] = 1
	return buf
}

func TestCenteredInputIsSymmetricAcrossSides(t *testing.T) {
	e := binaural.New(48000, 343, 0.3)
	inputs := []model.Input{{Index: 0}}
	positions := map[int]wfsmath.Vec3{0: {}}
	samples := map[int][]float32{0: impulseBlock(512)}

	outL := make([]float32, 512)
	outR := make([]float32, 512)
	e.ProcessBlock(inputs, positions, samples, outL, outR)

	var sumL, sumR float64
	for i := range outL {
		sumL += float64(outL[i])
		sumR += float64(outR[i])
	}

	if math.Abs(sumL-sumR) > 1e-6 {
		t.Fatalf("input centered between speakers should produce symmetric energy: sumL=%v sumR=%v", sumL, sumR)
	}
}

func TestSoloSuppressesNonSoloedInputs(t *testing.T) {
	e := binaural.New(48000, 343, 0.3)
	e.SetSolo(1, true)

	inputs := []model.Input{{Index: 0}, {Index: 1}}
	positions := map[int]wfsmath.Vec3{0: {}, 1: {X: -0.5}}
	samples := map[int][]float32{
		0: impulseBlock(256),
		1: impulseBlock(256),
	}

	outL := make([]float32, 256)
	outR := make([]float32, 256)
	e.ProcessBlock(inputs, positions, samples, outL, outR)

	// Rerun with only input 1 present to get the expected soloed-only output.
	soloInputs := []model.Input{{Index: 1}}
	soloSamples := map[int][]float32{1: impulseBlock(256)}
	expL := make([]float32, 256)
	expR := make([]float32, 256)
	e.ProcessBlock(soloInputs, positions, soloSamples, expL, expR)

	for i := range outL {
		if outL[i] != expL[i] || outR[i] != expR[i] {
			t.Fatalf("solo should suppress non-soloed input 0's contribution, mismatch at sample %d", i)
		}
	}
}

func TestOffAxisInputIsAttenuatedByKeystone(t *testing.T) {
	e := binaural.New(48000, 343, 0.3)
	inputs := []model.Input{{Index: 0}}

	// Left speaker sits at (-0.15,0,0) with its coverage axis pointing
	// (-sin45,cos45,0). Placing the input along the exact opposite ray from
	// the speaker puts it 180 degrees off that axis: outside the 135/30
	// keystone, so the left channel's gain is forced to exactly zero.
	half := math.Sqrt(2) / 2
	pos := wfsmath.Vec3{X: -0.15 + 5*half, Y: -5 * half, Z: 0}
	positions := map[int]wfsmath.Vec3{0: pos}
	samples := map[int][]float32{0: impulseBlock(256)}

	outL := make([]float32, 256)
	outR := make([]float32, 256)
	e.ProcessBlock(inputs, positions, samples, outL, outR)

	var energy float64
	for _, v := range outL {
		energy += float64(v) * float64(v)
	}
	if energy > 1e-9 {
		t.Fatalf("source 180 degrees off the left speaker's coverage axis should contribute exactly 0 energy, got %v", energy)
	}
}
