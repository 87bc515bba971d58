package sample

import (
	"math"
	"math/rand"

	"github.com/spatialmodel/grts/shpfile"
)

// IRSAssignment is one independent-random-sample draw resolved to a
// record and a within-record offset.
type IRSAssignment struct {
	RecordIndex int
	// Offset is the distance (for polylines) or area (for polygons)
	// into the assigned record, already compensated for a
	// multi-density-multiplier-scaled cumulative sum per spec.md §9(iii).
	Offset float64
}

// IRSRecordIDs resolves each sample position in sampPos (ascending) to
// the record whose cumulative measure (area or length, weighted by
// mdm) first exceeds it, mirroring original_source/src/irsarea.c's
// getRecordIDs and irslin.c's linSampleIRS assignment loop. cumSum,
// measure, and mdm are parallel, one entry per record, in the same
// order as the records they describe; cumSum must be non-decreasing.
func IRSRecordIDs(cumSum, measure, mdm []float64, sampPos []float64) []IRSAssignment {
	out := make([]IRSAssignment, 0, len(sampPos))
	i := 0
	for _, pos := range sampPos {
		for i < len(cumSum) && pos >= cumSum[i] {
			i++
		}
		if i >= len(cumSum) {
			i = len(cumSum) - 1
		}
		offset := measure[i] - (cumSum[i]-pos)/mdm[i]
		out = append(out, IRSAssignment{RecordIndex: i, Offset: offset})
	}
	return out
}

// IRSPolyline walks rec's parts (unclipped — the full record) to the
// point at arc-length pos from the start, using the same projection
// formula as Polyline. Used once IRSRecordIDs has resolved a sample
// position to this record.
func IRSPolyline(rec *shpfile.Record, pos float64) Result {
	var cum float64
	for _, part := range rec.Lines {
		for i := 0; i+1 < len(part); i++ {
			p1, p2 := part[i], part[i+1]
			segLen := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
			if segLen <= 0 {
				continue
			}
			if cum+segLen >= pos {
				remaining := pos - cum
				dx := p2.X - p1.X
				dy := p2.Y - p1.Y
				var lx, ly float64
				if dx != 0 {
					ratio := dy / dx
					lx = sign(dx) * math.Sqrt(remaining*remaining/(1+ratio*ratio))
					ly = lx * ratio
				} else {
					lx = 0
					ly = -sign(dy) * remaining
				}
				return Result{X: p1.X + lx, Y: p1.Y + ly, RecordID: rec.Number}
			}
			cum += segLen
		}
	}
	return Result{RecordID: rec.Number, NoPointFound: true}
}

// IRSPolygon draws an interior point of rec by rejection sampling over
// rec's own bounding box (no cell intersection — IRS draws one sample
// frame-wide, not per grid cell), retrying up to maxTry times.
func IRSPolygon(rec *shpfile.Record, rng *rand.Rand, maxTry int) Result {
	box := rec.Bounds()
	return Polygon(rec, box, rng, maxTry)
}
