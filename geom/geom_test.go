package geom

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func unitSquare() geom.Polygon {
	return geom.Polygon{{
		{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
	}}
}

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

// S2: unit square polygon area, clipped area, and point containment.
func TestUnitSquare(t *testing.T) {
	p := unitSquare()
	area := math.Abs(ShoelaceArea(p[0]))
	if !almostEqual(area, 1.0, 1e-12) {
		t.Fatalf("area = %v, want 1.0", area)
	}

	cell := &geom.Bounds{Min: geom.Point{X: 0.25, Y: 0.25}, Max: geom.Point{X: 0.75, Y: 0.75}}
	clipped := ClippedArea(p, cell)
	if !almostEqual(clipped, 0.25, 1e-12) {
		t.Fatalf("clipped area = %v, want 0.25", clipped)
	}

	if !PointInPolygon(geom.Point{X: 0.5, Y: 0.5}, p) {
		t.Error("(0.5,0.5) should be inside the unit square")
	}
	if PointInPolygon(geom.Point{X: 1.5, Y: 0.5}, p) {
		t.Error("(1.5,0.5) should be outside the unit square")
	}
}

// PartArea's sign must equal the ring direction (positive for an outer
// ring, which has a negative shoelace area) and, for a simple convex
// ring, its magnitude must equal the shoelace area's.
func TestPartAreaSignMatchesRingDirection(t *testing.T) {
	p := unitSquare()
	shoelace := ShoelaceArea(p[0])
	trapezoid := PartArea(p[0])
	if (shoelace < 0) != (trapezoid > 0) {
		t.Fatalf("PartArea sign %v disagrees with the ring direction implied by ShoelaceArea %v", trapezoid, shoelace)
	}
	if !almostEqual(math.Abs(trapezoid), 1.0, 1e-12) {
		t.Fatalf("PartArea = %v, want magnitude 1.0", trapezoid)
	}
}

// S3: polyline length and Cohen-Sutherland clipped length.
func TestPolylineLength(t *testing.T) {
	ml := geom.MultiLineString{{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}}}
	total := ml.Length()
	if !almostEqual(total, 7, 1e-9) {
		t.Fatalf("length = %v, want 7", total)
	}

	cell := &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 2, Y: 10}}
	clipped := ClippedLength(ml, cell)
	if !almostEqual(clipped, 6, 1e-9) {
		t.Fatalf("clipped length = %v, want 6", clipped)
	}
}

func TestClippedAreaNeverExceedsArea(t *testing.T) {
	p := unitSquare()
	area := math.Abs(ShoelaceArea(p[0]))
	cells := []*geom.Bounds{
		{Min: geom.Point{X: -1, Y: -1}, Max: geom.Point{X: 2, Y: 2}},
		{Min: geom.Point{X: 0.1, Y: 0.1}, Max: geom.Point{X: 0.2, Y: 0.2}},
		{Min: geom.Point{X: 2, Y: 2}, Max: geom.Point{X: 3, Y: 3}},
	}
	for _, c := range cells {
		clipped := ClippedArea(p, c)
		if clipped < 0 || clipped > area+1e-12 {
			t.Errorf("clipped area %v out of [0, %v]", clipped, area)
		}
	}
}

func TestPolygonWithHole(t *testing.T) {
	outer := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []geom.Point{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	p := geom.Polygon{outer, hole}

	if Direction(outer, 2) != Outer {
		t.Error("outer ring should have Outer direction")
	}
	if Direction(hole, 2) != Inner {
		t.Error("hole ring should have Inner direction")
	}

	if PointInPolygon(geom.Point{X: 5, Y: 5}, p) {
		t.Error("point inside the hole should not be in the polygon")
	}
	if !PointInPolygon(geom.Point{X: 1, Y: 1}, p) {
		t.Error("point in the outer ring but outside the hole should be in the polygon")
	}
}

func TestVertexOnHorizontalEdgeNotDoubleCounted(t *testing.T) {
	p := unitSquare()
	// (0.5, 0) lies exactly on the bottom edge.
	pt := geom.Point{X: 0.5, Y: 0}
	// The result must be deterministic (true or false), not flip between calls.
	first := PointInPolygon(pt, p)
	for i := 0; i < 5; i++ {
		if PointInPolygon(pt, p) != first {
			t.Fatal("point-in-polygon result on an edge vertex is nondeterministic")
		}
	}
}
