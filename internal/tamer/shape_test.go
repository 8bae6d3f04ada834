package tamer

import (
	"math"
	"testing"

	"github.com/san-kum/wfsrender/internal/model"
)

func TestShapeFactorEndpoints(t *testing.T) {
	shapes := []model.LiveSourceShape{model.ShapeLinear, model.ShapeLog, model.ShapeSquare, model.ShapeSine}
	for _, shape := range shapes {
		if got := shapeFactor(shape, 0); math.Abs(got-1) > 1e-9 {
			t.Fatalf("shape %v: s(0) = %v, want 1", shape, got)
		}
		if got := shapeFactor(shape, 1); math.Abs(got-0) > 1e-4 {
			t.Fatalf("shape %v: s(1) = %v, want 0", shape, got)
		}
	}
}
