package position_test

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/position"
	"github.com/san-kum/wfsrender/internal/wfsmath"
)

func TestSpeedLimiterS3LiteralCase(t *testing.T) {
	c := position.NewChannel(wfsmath.Vec3{}, 0.5)
	c.Target = wfsmath.Vec3{X: 1}

	c.Step(0.02)

	want := 0.5 * 0.02 * math.Tanh(1/0.01)
	if math.Abs(c.Current.X-want) > 1e-9 {
		t.Fatalf("current.X = %v, want %v", c.Current.X, want)
	}
	if math.Abs(c.Current.X-0.01) > 1e-3 {
		t.Fatalf("current.X = %v, want approximately 0.01", c.Current.X)
	}
}

func TestSpeedLimiterBoundHoldsForArbitraryTargets(t *testing.T) {
	maxSpeed := 2.0
	dt := 0.02
	targets := []wfsmath.Vec3{
		{X: 100},
		{X: 0.0005},
		{Y: 5, Z: -3},
		{X: -50, Y: 50, Z: 10},
	}

	for _, target := range targets {
		c := position.NewChannel(wfsmath.Vec3{}, maxSpeed)
		c.Target = target

		before := c.Current
		c.Step(dt)
		moved := c.Current.Sub(before).Norm()

		bound := maxSpeed*dt + 1e-6
		if moved > bound {
			t.Fatalf("target %+v: moved %v, want <= %v", target, moved, bound)
		}
	}
}

func TestSpeedLimiterIdempotentAtRest(t *testing.T) {
	start := wfsmath.Vec3{X: 3, Y: -2, Z: 1}
	c := position.NewChannel(start, 1.0)
	c.Target = start

	c.Step(0.02)

	if c.Current != start {
		t.Fatalf("current changed at rest: got %+v, want %+v", c.Current, start)
	}
}

func TestWaypointFollowingMovesAtConstantSpeed(t *testing.T) {
	c := position.NewChannel(wfsmath.Vec3{}, 1.0)
	c.PathMode = position.PathWaypoints
	c.PushWaypoint(wfsmath.Vec3{X: 0.1})
	c.PushWaypoint(wfsmath.Vec3{X: 0.2})

	dt := 0.02
	maxStep := 1.0 * dt

	c.Step(dt)
	if math.Abs(c.Current.X-maxStep) > 1e-9 {
		t.Fatalf("first step = %v, want constant-speed step %v", c.Current.X, maxStep)
	}
}

func TestWaypointSnapAndPopOnArrival(t *testing.T) {
	c := position.NewChannel(wfsmath.Vec3{X: 0.0999}, 1.0)
	c.PathMode = position.PathWaypoints
	c.PushWaypoint(wfsmath.Vec3{X: 0.1})
	c.PushWaypoint(wfsmath.Vec3{X: 0.2})

	c.Step(0.02)
	if c.Current.X != 0.1 {
		t.Fatalf("expected snap to first waypoint, got %v", c.Current.X)
	}

	c.Step(0.02)
	if c.Current.X == 0.1 {
		t.Fatalf("expected to advance toward second waypoint after the first popped")
	}
}
