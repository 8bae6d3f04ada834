// Package position implements the control-rate position pipeline (§4.5,
// C5): a speed-limited approach to a target or waypoint queue, followed by
// axis flips, a tracking offset, and LFO displacement, composed in that
// fixed order into the position the calculation engine consumes.
package position

import (
	"math"
	"sync"

	"github.com/san-kum/wfsrender/internal/model"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

// snapDistanceMeters is the distance below which a move is considered
// complete and current snaps exactly onto the target (§4.5 step 2).
const snapDistanceMeters = 0.001

// waypointQueueCapacity bounds the FIFO ring captured from the UI/touch
// thread (§4.5: "bounded ring of 100 entries, oldest dropped on overflow").
const waypointQueueCapacity = 100

// PathMode selects whether a Pipeline entry follows its waypoint queue or
// moves directly toward Target.
type PathMode int

const (
	PathDirect PathMode = iota
	PathWaypoints
)

// waypointQueue is a small fixed-capacity FIFO ring guarded by a briefly
// held sync.Mutex, since the UI/touch thread pushes while the control thread pops (§4.5,
// §5: "short spinlock between UI and control thread").
type waypointQueue struct {
	spin  sync.Mutex
	items [waypointQueueCapacity]wfsmath.Vec3
	head  int
	count int
}

func (q *waypointQueue) push(p wfsmath.Vec3) {
	q.spin.Lock()
	defer q.spin.Unlock()

	tail := (q.head + q.count) % waypointQueueCapacity
	if q.count == waypointQueueCapacity {
		q.head = (q.head + 1) % waypointQueueCapacity
	} else {
		q.count++
	}
	q.items[tail] = p
}

func (q *waypointQueue) front() (wfsmath.Vec3, bool) {
	q.spin.Lock()
	defer q.spin.Unlock()
	if q.count == 0 {
		return wfsmath.Vec3{}, false
	}
	return q.items[q.head], true
}

func (q *waypointQueue) pop() {
	q.spin.Lock()
	defer q.spin.Unlock()
	if q.count == 0 {
		return
	}
	q.head = (q.head + 1) % waypointQueueCapacity
	q.count--
}

// Channel is one input's position-pipeline state, owned by the control
// thread except for the waypoint queue.
type Channel struct {
	Current  wfsmath.Vec3
	Target   wfsmath.Vec3
	Active   bool
	MaxSpeed float64
	PathMode PathMode

	waypoints waypointQueue

	lfoPhase [3]float64
}

// NewChannel creates a Channel at the given starting position.
func NewChannel(start wfsmath.Vec3, maxSpeed float64) *Channel {
	return &Channel{Current: start, Target: start, Active: true, MaxSpeed: maxSpeed}
}

// PushWaypoint enqueues a waypoint for PathWaypoints mode.
func (c *Channel) PushWaypoint(p wfsmath.Vec3) { c.waypoints.push(p) }

// Step advances Current by one control tick (§4.5 steps 1-4).
func (c *Channel) Step(dt float64) {
	if !c.Active {
		return
	}

	moveTarget := c.Target
	fromWaypoint := false
	if c.PathMode == PathWaypoints {
		if wp, ok := c.waypoints.front(); ok {
			moveTarget = wp
			fromWaypoint = true
		}
	}

	delta := moveTarget.Sub(c.Current)
	distance := delta.Norm()

	if distance < snapDistanceMeters {
		c.Current = moveTarget
		if fromWaypoint {
			c.waypoints.pop()
		}
		return
	}

	maxStep := c.MaxSpeed * dt
	unit := delta.Scale(1 / distance)

	var step float64
	if fromWaypoint {
		step = math.Min(maxStep, distance)
	} else {
		step = maxStep * math.Tanh(distance/maxStep)
	}

	c.Current = c.Current.Add(unit.Scale(step))
}

// Pipeline runs C5 for every input in a scene, owning one Channel per input
// plus the flip/offset/LFO parameters that live on model.Input.
type Pipeline struct {
	channels map[int]*Channel
}

// NewPipeline creates an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{channels: make(map[int]*Channel)}
}

// Channel returns (creating if necessary) the Channel for input index i.
func (p *Pipeline) Channel(i int, start wfsmath.Vec3, maxSpeed float64) *Channel {
	c, ok := p.channels[i]
	if !ok {
		c = NewChannel(start, maxSpeed)
		p.channels[i] = c
	}
	return c
}

// Tick advances every channel by dt. Call once per control tick (nominally
// 50 Hz).
func (p *Pipeline) Tick(dt float64) {
	for _, c := range p.channels {
		c.Step(dt)
	}
}

// CompositePosition returns the final position the calculation engine
// consumes for input in, applying speed-limited current position → axis
// flips → tracking offset → LFO displacement in that fixed order (§4.5).
// An input with no Channel starts from its TargetPosition.
func (p *Pipeline) CompositePosition(in *model.Input, timeSeconds float64) wfsmath.Vec3 {
	pos := in.TargetPosition
	if c, ok := p.channels[in.Index]; ok {
		pos = c.Current
	}

	if in.FlipX {
		pos.X = -pos.X
	}
	if in.FlipY {
		pos.Y = -pos.Y
	}
	if in.FlipZ {
		pos.Z = -pos.Z
	}

	pos = pos.Add(in.Offset)

	if in.LFO.Active {
		pos = pos.Add(lfoDisplacement(in.LFO, timeSeconds))
	}

	return pos
}

// SpeedLimitedPosition returns the speed-limited-only position (no flips,
// offset, or LFO), exposed separately for UI visualisation (§4.5).
func (p *Pipeline) SpeedLimitedPosition(i int) wfsmath.Vec3 {
	if c, ok := p.channels[i]; ok {
		return c.Current
	}
	return wfsmath.Vec3{}
}

func lfoDisplacement(lfo model.LFOParams, timeSeconds float64) wfsmath.Vec3 {
	if lfo.PeriodSeconds <= 0 {
		return wfsmath.Vec3{}
	}
	omega := 2 * math.Pi / lfo.PeriodSeconds

	var out [3]float64
	for axis := 0; axis < 3; axis++ {
		a := lfo.Axes[axis]
		phase := omega*timeSeconds + lfo.GlobalPhaseRad + a.PhaseRad
		out[axis] = a.Amplitude * lfoWave(a.Shape, phase)
	}
	return wfsmath.Vec3{X: out[0], Y: out[1], Z: out[2]}
}

func lfoWave(shape model.LFOShape, phase float64) float64 {
	switch shape {
	case model.LFOSine:
		return wfsmath.FastSin(phase)
	case model.LFOTriangle:
		p := math.Mod(phase/(2*math.Pi), 1)
		if p < 0 {
			p++
		}
		return 4*math.Abs(p-0.5) - 1
	case model.LFOSquare:
		if wfsmath.FastSin(phase) >= 0 {
			return 1
		}
		return -1
	case model.LFORandom:
		return wfsmath.FastSin(phase * 7.3185) // deterministic pseudo-random wander, no entropy source in the hot loop
	default:
		return 0
	}
}
