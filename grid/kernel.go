// Package grid implements the GRTS cell-weight kernels and the
// iterative grid-refinement loop that determines how many hierarchical
// levels a sampling frame needs. It generalizes the single pattern the
// teacher already uses in its own grid builder — intersecting a source
// polygon with a cell polygon and using the intersection area as a
// population-weight fraction (vargrid.go's loadPopMortalityRate) — into
// the three geometry-specific kernels the source format requires.
package grid

import (
	"github.com/ctessum/geom"
	grtsgeom "github.com/spatialmodel/grts/geom"
	"github.com/spatialmodel/grts/shpfile"
)

// Weigher computes a cell's total weight: the sum, over every record
// present in the weight vector, of that record's contribution per
// §4.4's kernel for its geometry type. Records absent from the weight
// vector contribute nothing.
type Weigher func(cell *geom.Bounds) float64

// NewWeigher builds a Weigher for a homogeneous set of records of shape
// type t, weighted by recordWeights (keyed by Record.Number).
func NewWeigher(t shpfile.ShapeType, records []*shpfile.Record, recordWeights map[int]float64) Weigher {
	switch {
	case t.IsPolygon():
		return func(cell *geom.Bounds) float64 {
			var total float64
			for _, r := range records {
				w, ok := recordWeights[r.Number]
				if !ok {
					continue
				}
				total += grtsgeom.ClippedArea(r.Rings, cell) * w
			}
			return total
		}
	case t.IsPolyLine():
		return func(cell *geom.Bounds) float64 {
			var total float64
			for _, r := range records {
				w, ok := recordWeights[r.Number]
				if !ok {
					continue
				}
				total += grtsgeom.ClippedLength(r.Lines, cell) * w
			}
			return total
		}
	case t.IsPoint():
		return func(cell *geom.Bounds) float64 {
			var total float64
			for _, r := range records {
				w, ok := recordWeights[r.Number]
				if !ok {
					continue
				}
				if PointInCell(r.Point, cell) {
					total += w
				}
			}
			return total
		}
	default:
		return func(*geom.Bounds) float64 { return 0 }
	}
}

// PointInCell reports whether p lies in cell under the half-open
// convention xmin < x <= xmax, ymin < y <= ymax, so that a point lying
// exactly on a shared lower/left cell boundary belongs to the
// neighboring cell, not this one.
func PointInCell(p geom.Point, cell *geom.Bounds) bool {
	return p.X > cell.Min.X && p.X <= cell.Max.X && p.Y > cell.Min.Y && p.Y <= cell.Max.Y
}
