// Package wfsmath provides the small set of numeric primitives shared by the
// position pipeline, calculation engine, and binaural renderer: a
// precomputed trig lookup table (used by the LFO and Live-Source shape math
// that runs every 50 Hz control tick) and a 3-D vector type.
package wfsmath

import "math"

// TrigTable provides precomputed sin/cos values for fast lookup, avoiding
// repeated math.Sin/math.Cos calls in the LFO evaluation (C5) and the
// Live-Source sine shape (C7) run every control tick. C6's directivity math
// calls math.Sin/math.Cos directly.
type TrigTable struct {
	sin []float64
	cos []float64
	n   int
}

// DefaultTrigTable is the package-wide table (4096 entries, ~0.0015 rad resolution).
var DefaultTrigTable = NewTrigTable(4096)

// NewTrigTable creates a precomputed trig lookup table with n entries spanning [0, 2π).
func NewTrigTable(n int) *TrigTable {
	t := &TrigTable{
		sin: make([]float64, n),
		cos: make([]float64, n),
		n:   n,
	}
	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		t.sin[i] = math.Sin(angle)
		t.cos[i] = math.Cos(angle)
	}
	return t
}

func (t *TrigTable) index(x float64) (i0, i1 int, frac float64) {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac = idx - float64(i)
	i0 = i % t.n
	i1 = (i + 1) % t.n
	return
}

// Sin returns an interpolated sin(x).
func (t *TrigTable) Sin(x float64) float64 {
	i0, i1, frac := t.index(x)
	return t.sin[i0]*(1-frac) + t.sin[i1]*frac
}

// Cos returns an interpolated cos(x).
func (t *TrigTable) Cos(x float64) float64 {
	i0, i1, frac := t.index(x)
	return t.cos[i0]*(1-frac) + t.cos[i1]*frac
}

// SinCos returns both sin and cos from a single table lookup.
func (t *TrigTable) SinCos(x float64) (sin, cos float64) {
	i0, i1, frac := t.index(x)
	sin = t.sin[i0]*(1-frac) + t.sin[i1]*frac
	cos = t.cos[i0]*(1-frac) + t.cos[i1]*frac
	return
}

// FastSin looks up sin(x) in the default table.
func FastSin(x float64) float64 { return DefaultTrigTable.Sin(x) }

// FastCos looks up cos(x) in the default table.
func FastCos(x float64) float64 { return DefaultTrigTable.Cos(x) }

// FastSinCos looks up sin(x) and cos(x) in the default table.
func FastSinCos(x float64) (float64, float64) { return DefaultTrigTable.SinCos(x) }
