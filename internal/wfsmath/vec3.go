package wfsmath

import "math"

// Vec3 is a point or displacement in the world frame (§3): metres, +X right,
// +Y away from audience, +Z up.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HeightWeighted returns v with its Z component scaled by heightFactor
// (0 ⇒ z contribution zero, 1 ⇒ full z), per §4.6 step 1.
func (v Vec3) HeightWeighted(heightFactor float64) Vec3 {
	return Vec3{v.X, v.Y, v.Z * heightFactor}
}

// Unit returns the unit vector along v, or the zero vector if v is
// degenerate (length below 1e-9).
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// IsFinite reports whether every component is finite (no NaN/Inf).
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Mirror reflects v through the z=0 plane, used by the floor-reflection
// image-source computation (§4.6, Testable property 9).
func (v Vec3) Mirror() Vec3 {
	return Vec3{v.X, v.Y, -v.Z}
}
