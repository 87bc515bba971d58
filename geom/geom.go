// Package geom implements the geometry primitives the GRTS sampling core
// needs beyond what github.com/ctessum/geom already provides: signed
// polygon area and ring direction, ray-cast point-in-polygon containment,
// Sutherland-Hodgman rectangle clipping, and Cohen-Sutherland segment
// clipping. It operates on ctessum/geom's Point/Bounds/Polygon/LineString
// value types rather than defining new ones, the way the teacher builds
// its own Cell geometry on top of the same package.
package geom

import (
	"math"

	"github.com/ctessum/geom"
)

// RingDirection is the winding direction of a polygon part: Outer for a
// clockwise (in shapefile convention) outer ring, Inner for a
// counter-clockwise hole.
type RingDirection int8

const (
	Inner RingDirection = -1
	Outer RingDirection = 1
)

// ShoelaceArea returns the signed area of ring using the shoelace
// formula, with wrap-around from the last vertex back to the first.
// A closed ring (first point repeated last) and an open one give the
// same result.
func ShoelaceArea(ring []geom.Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return a / 2
}

// Direction derives a polygon part's ring direction from the sign of its
// signed area: a negative signed area is an outer ring, a non-negative
// one a hole. A single-part polygon's only ring is always Outer.
func Direction(ring []geom.Point, nparts int) RingDirection {
	if nparts <= 1 {
		return Outer
	}
	if ShoelaceArea(ring) < 0 {
		return Outer
	}
	return Inner
}

// PartArea computes a ring's area via the trapezoidal formula used for
// shapefile part metadata: Σ dx_i * ((y_i + y_{i+1})/2 - ymin), with a
// wrap-around last segment. The ymin shift improves numerical
// conditioning; the sign of the result equals the ring's direction.
func PartArea(ring []geom.Point) float64 {
	n := len(ring)
	if n < 2 {
		return 0
	}
	ymin := ring[0].Y
	for _, p := range ring {
		if p.Y < ymin {
			ymin = p.Y
		}
	}
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dx := ring[j].X - ring[i].X
		a += dx * ((ring[i].Y+ring[j].Y)/2 - ymin)
	}
	return a
}

// PointInRing reports whether pt is inside ring using a horizontal ray
// cast to +x. An edge from p1 to p2 crosses the ray iff pt.Y lies in
// (min(p1.Y,p2.Y), max(p1.Y,p2.Y)] and the edge's x-coordinate at height
// pt.Y exceeds pt.X; a vertex lying exactly on a horizontal edge is
// therefore never double-counted.
func PointInRing(pt geom.Point, ring []geom.Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	p1 := ring[n-1]
	for i := 0; i < n; i++ {
		p2 := ring[i]
		if (pt.Y > math.Min(p1.Y, p2.Y)) && (pt.Y <= math.Max(p1.Y, p2.Y)) {
			if p1.Y != p2.Y {
				xAtY := p1.X + (pt.Y-p1.Y)/(p2.Y-p1.Y)*(p2.X-p1.X)
				if xAtY > pt.X {
					inside = !inside
				}
			}
		}
		p1 = p2
	}
	return inside
}

// PointInPolygon reports containment of pt in the multi-part polygon p,
// XOR-ing the per-ring test so that holes toggle inclusion off.
func PointInPolygon(pt geom.Point, p geom.Polygon) bool {
	in := false
	for _, ring := range p {
		if PointInRing(pt, ring) {
			in = !in
		}
	}
	return in
}
