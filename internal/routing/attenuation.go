package routing

import (
	"math"

	"github.com/san-kum/wfsrender/internal/model"
)

// minDistanceMeters is the tie-break distance floor (§4.6: "d < 0.01m ⇒
// treat as 0.01m").
const minDistanceMeters = 0.01

// oneOverDReferenceMeters is dRef for the OneOverD law (§4.6).
const oneOverDReferenceMeters = 1.0

// clampDistance applies the §4.6 tie-break.
func clampDistance(d float64) float64 {
	if d < minDistanceMeters {
		return minDistanceMeters
	}
	return d
}

// distanceAttenuation computes γ_i,j (§4.6 step 5) under the given law,
// scaled by the output's distance-attenuation percentage.
func distanceAttenuation(law model.AttenuationLaw, d, coefficient, distanceAttenPercent float64) float64 {
	d = clampDistance(d)

	var gamma float64
	switch law {
	case model.AttenuationOneOverD:
		ratio := coefficient / math.Max(d, oneOverDReferenceMeters)
		gamma = math.Min(1, ratio)
	default: // model.AttenuationLog
		gamma = math.Pow(10, d*coefficient/20)
	}

	scale := distanceAttenPercent / 100
	return 1 + (gamma-1)*scale
}
