// Automotion scripts a point-to-point move for one input, firing either on
// a manual trigger or when that input's level crosses a threshold (§3:
// "automotion: destination, absolute/relative, stay/return, speed profile,
// trigger mode + threshold + reset"). The shape mirrors the teacher's
// Scenario/ScenarioStep idiom: a small declarative step description that an
// engine walks through, rather than a general scripting DSL.
package position

import (
	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// AutomotionState tracks one input's progress through its scripted move.
type AutomotionState struct {
	running           bool
	returning         bool
	startPos          wfsmath.Vec3
	armed             bool
	wasAboveThreshold bool
}

// Arm resets the trigger edge-detector, allowing the next threshold
// crossing (or manual call) to fire the move.
func (s *AutomotionState) Arm() {
	s.armed = true
	s.wasAboveThreshold = false
}

// Trigger evaluates the automotion trigger condition for one control tick
// and, if it fires, starts the move on c. levelDb is the input's fast
// envelope (§4.4's secondary 5 ms-release path, intended for this use).
func (s *AutomotionState) Trigger(a model.AutomotionParams, c *Channel, start wfsmath.Vec3, levelDb float64) {
	if s.running {
		s.advance(a, c)
		return
	}

	fire := false
	switch a.Trigger {
	case model.TriggerManual:
		fire = s.armed
	case model.TriggerLevel:
		above := levelDb >= a.Threshold
		if above && !s.wasAboveThreshold && s.armed {
			fire = true
		}
		s.wasAboveThreshold = above
	case model.TriggerNone:
		fire = false
	}

	if !fire {
		return
	}

	s.running = true
	s.returning = false
	s.armed = false
	s.startPos = start

	c.MaxSpeed = a.SpeedMPS
	c.PathMode = PathDirect
	if a.Absolute {
		c.Target = a.Destination
	} else {
		c.Target = start.Add(a.Destination)
	}
}

func (s *AutomotionState) advance(a model.AutomotionParams, c *Channel) {
	arrived := c.Current.Sub(c.Target).Norm() < snapDistanceMeters
	if !arrived {
		return
	}

	if !a.ReturnToStart || s.returning {
		s.running = false
		s.returning = false
		if a.AutoReset {
			s.armed = true
		}
		return
	}

	s.returning = true
	c.Target = s.startPos
}
