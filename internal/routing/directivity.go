package routing

import (
	"math"

	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// minAngleDistanceMeters guards the directivity angle computation against a
// zero-length input→speaker vector (§4.6: "directivity is 1.0 when d < 1mm").
const minAngleDistanceMeters = 0.001

// rearAxis returns the unit "rear" direction for a rotation (yaw, about Z)
// and tilt (pitch), both in degrees. At rotation=0, tilt=0 the rear axis
// points along +Y, away from the audience (§3: "+Y away from audience").
func rearAxis(rotationDeg, tiltDeg float64) wfsmath.Vec3 {
	rot := rotationDeg * math.Pi / 180
	tilt := tiltDeg * math.Pi / 180
	cosTilt := math.Cos(tilt)
	return wfsmath.Vec3{
		X: -math.Sin(rot) * cosTilt,
		Y: math.Cos(rot) * cosTilt,
		Z: -math.Sin(tilt),
	}
}

// angleBetweenDeg returns the angle between two vectors in degrees, [0,180].
func angleBetweenDeg(a, b wfsmath.Vec3) float64 {
	na, nb := a.Norm(), b.Norm()
	if na < 1e-9 || nb < 1e-9 {
		return 0
	}
	cos := (a.X*b.X + a.Y*b.Y + a.Z*b.Z) / (na * nb)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// keystoneFactor implements the trapezoidal coverage pattern shared by input
// directivity and output receive factor (§4.6 steps 3-4): full coverage
// inside onAngleDeg, zero once within offAngleDeg of the opposite pole, and a
// linear ramp between.
func keystoneFactor(angleDeg, onAngleDeg, offAngleDeg float64) float64 {
	muteStart := 180 - offAngleDeg
	if angleDeg <= onAngleDeg {
		return 1
	}
	if angleDeg >= muteStart || muteStart <= onAngleDeg {
		return 0
	}
	t := (angleDeg - onAngleDeg) / (muteStart - onAngleDeg)
	return 1 - t
}

// directivityFactor computes the input side's keystone attenuation α_i,j
// (§4.6 step 3) for the vector from the input toward the speaker.
func directivityFactor(rotationDeg, tiltDeg, onAngleDeg, offAngleDeg float64, toSpeaker wfsmath.Vec3) float64 {
	if toSpeaker.Norm() < minAngleDistanceMeters {
		return 1.0
	}
	axis := rearAxis(rotationDeg, tiltDeg)
	angle := angleBetweenDeg(axis, toSpeaker)
	return keystoneFactor(angle, onAngleDeg, offAngleDeg)
}

// receiveFactor computes the output side's keystone attenuation β_i,j (§4.6
// step 4), symmetric to directivityFactor but using the vector from the
// speaker toward the input and the speaker's own orientation/pitch.
func receiveFactor(orientationDeg, pitchDeg, onAngleDeg, offAngleDeg float64, toInput wfsmath.Vec3) float64 {
	if toInput.Norm() < minAngleDistanceMeters {
		return 1.0
	}
	axis := rearAxis(orientationDeg, pitchDeg)
	angle := angleBetweenDeg(axis, toInput)
	return keystoneFactor(angle, onAngleDeg, offAngleDeg)
}
