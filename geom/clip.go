package geom

import (
	"math"

	"github.com/ctessum/geom"
)

// clipEdge is one of the four half-planes a Sutherland-Hodgman pass
// clips against.
type clipEdge int

const (
	clipLeft clipEdge = iota
	clipRight
	clipBottom
	clipTop
)

func inside(p geom.Point, e clipEdge, b *geom.Bounds) bool {
	switch e {
	case clipLeft:
		return p.X >= b.Min.X
	case clipRight:
		return p.X <= b.Max.X
	case clipBottom:
		return p.Y >= b.Min.Y
	case clipTop:
		return p.Y <= b.Max.Y
	}
	panic("unreachable clip edge")
}

// intersect returns the point where segment p1->p2 crosses edge e.
func intersect(p1, p2 geom.Point, e clipEdge, b *geom.Bounds) geom.Point {
	switch e {
	case clipLeft:
		if p2.X == p1.X {
			return geom.Point{X: b.Min.X, Y: p1.Y}
		}
		slope := (p2.Y - p1.Y) / (p2.X - p1.X)
		return geom.Point{X: b.Min.X, Y: p1.Y + slope*(b.Min.X-p1.X)}
	case clipRight:
		if p2.X == p1.X {
			return geom.Point{X: b.Max.X, Y: p1.Y}
		}
		slope := (p2.Y - p1.Y) / (p2.X - p1.X)
		return geom.Point{X: b.Max.X, Y: p1.Y + slope*(b.Max.X-p1.X)}
	case clipBottom:
		if p2.Y == p1.Y {
			return geom.Point{X: p1.X, Y: b.Min.Y}
		}
		slope := (p2.X - p1.X) / (p2.Y - p1.Y)
		return geom.Point{X: p1.X + slope*(b.Min.Y-p1.Y), Y: b.Min.Y}
	case clipTop:
		if p2.Y == p1.Y {
			return geom.Point{X: p1.X, Y: b.Max.Y}
		}
		slope := (p2.X - p1.X) / (p2.Y - p1.Y)
		return geom.Point{X: p1.X + slope*(b.Max.Y-p1.Y), Y: b.Max.Y}
	}
	panic("unreachable clip edge")
}

func clipPass(poly []geom.Point, e clipEdge, b *geom.Bounds) []geom.Point {
	if len(poly) == 0 {
		return nil
	}
	var out []geom.Point
	p1 := poly[len(poly)-1]
	p1In := inside(p1, e, b)
	for _, p2 := range poly {
		p2In := inside(p2, e, b)
		switch {
		case p1In && p2In:
			out = append(out, p2)
		case p1In && !p2In:
			out = append(out, intersect(p1, p2, e, b))
		case !p1In && p2In:
			out = append(out, intersect(p1, p2, e, b), p2)
		// else: both outside, emit nothing
		}
		p1, p1In = p2, p2In
	}
	return out
}

// ClipRing clips ring against the axis-aligned rectangle b using the
// Sutherland-Hodgman algorithm, four passes (left, right, bottom, top),
// and returns the clipped ring. An empty result means the ring does not
// overlap b at all.
func ClipRing(ring []geom.Point, b *geom.Bounds) []geom.Point {
	out := ring
	for _, e := range []clipEdge{clipLeft, clipRight, clipBottom, clipTop} {
		out = clipPass(out, e, b)
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

// ClippedArea returns the area of p's parts after clipping each against
// b, signed by each part's ring direction so holes subtract, clamped to
// zero if the net result of a multi-part record would otherwise be
// negative.
func ClippedArea(p geom.Polygon, b *geom.Bounds) float64 {
	var total float64
	for i, ring := range p {
		clipped := ClipRing(ring, b)
		if len(clipped) < 3 {
			continue
		}
		area := math.Abs(ShoelaceArea(clipped))
		if Direction(ring, len(p)) == Inner && i > 0 {
			total -= area
		} else {
			total += area
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// outCode is a Cohen-Sutherland 4-bit region code: top=2, bottom=1,
// right=8, left=4.
type outCode int

const (
	codeInside outCode = 0
	codeBottom outCode = 1
	codeTop    outCode = 2
	codeLeft   outCode = 4
	codeRight  outCode = 8
)

func computeOutCode(p geom.Point, b *geom.Bounds) outCode {
	var c outCode
	switch {
	case p.X < b.Min.X:
		c |= codeLeft
	case p.X > b.Max.X:
		c |= codeRight
	}
	switch {
	case p.Y < b.Min.Y:
		c |= codeBottom
	case p.Y > b.Max.Y:
		c |= codeTop
	}
	return c
}

// ClipSegment clips the segment p1->p2 against the axis-aligned
// rectangle b using the Cohen-Sutherland algorithm. ok is false if no
// part of the segment lies within b.
func ClipSegment(p1, p2 geom.Point, b *geom.Bounds) (c1, c2 geom.Point, ok bool) {
	code1 := computeOutCode(p1, b)
	code2 := computeOutCode(p2, b)

	for {
		if code1|code2 == codeInside {
			return p1, p2, true
		}
		if code1&code2 != 0 {
			return geom.Point{}, geom.Point{}, false
		}

		var x, y float64
		outside := code1
		if outside == codeInside {
			outside = code2
		}

		switch {
		case outside&codeTop != 0:
			x = p1.X + (p2.X-p1.X)*(b.Max.Y-p1.Y)/(p2.Y-p1.Y)
			y = b.Max.Y
		case outside&codeBottom != 0:
			x = p1.X + (p2.X-p1.X)*(b.Min.Y-p1.Y)/(p2.Y-p1.Y)
			y = b.Min.Y
		case outside&codeRight != 0:
			y = p1.Y + (p2.Y-p1.Y)*(b.Max.X-p1.X)/(p2.X-p1.X)
			x = b.Max.X
		case outside&codeLeft != 0:
			y = p1.Y + (p2.Y-p1.Y)*(b.Min.X-p1.X)/(p2.X-p1.X)
			x = b.Min.X
		}

		if outside == code1 {
			p1 = geom.Point{X: x, Y: y}
			code1 = computeOutCode(p1, b)
		} else {
			p2 = geom.Point{X: x, Y: y}
			code2 = computeOutCode(p2, b)
		}
	}
}

// SegmentLength returns the clipped Euclidean length of segment p1->p2
// against b, or 0 if the segment does not intersect b.
func SegmentLength(p1, p2 geom.Point, b *geom.Bounds) float64 {
	c1, c2, ok := ClipSegment(p1, p2, b)
	if !ok {
		return 0
	}
	return math.Hypot(c2.X-c1.X, c2.Y-c1.Y)
}

// ClippedLength sums the clipped length of every segment in ml against
// b. Segments are the consecutive vertex pairs within one part; parts
// are not connected to each other.
func ClippedLength(ml geom.MultiLineString, b *geom.Bounds) float64 {
	var total float64
	for _, ls := range ml {
		for i := 0; i+1 < len(ls); i++ {
			total += SegmentLength(ls[i], ls[i+1], b)
		}
	}
	return total
}
