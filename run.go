package grts

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ctessum/geom"

	"github.com/spatialmodel/grts/address"
	"github.com/spatialmodel/grts/dbf"
	grtsgeom "github.com/spatialmodel/grts/geom"
	"github.com/spatialmodel/grts/grid"
	"github.com/spatialmodel/grts/grtserr"
	"github.com/spatialmodel/grts/sample"
	"github.com/spatialmodel/grts/shpfile"
)

// PanelResult is the sample drawn for one weight panel (one
// job.WeightColumns entry): one point per successfully-placed cell,
// paired with the record it was drawn from.
type PanelResult struct {
	Column string
	Points []sample.Result
}

// RunPanel executes one full GRTS draw for a single weight panel: grid
// refinement (§4.5), address construction and randomization (§4.7),
// cell selection (§4.6's two-finger scan), and point sampling (§4.6).
// rng drives every random draw in the order spec.md §5 requires: grid
// shift, then address permutations, then per-cell rejection sampling.
func RunPanel(column string, sf *ParsedShapefile, weights map[int]float64, job *Job, rng *rand.Rand, sink grtserr.Sink) (*PanelResult, error) {
	weigh := grid.NewWeigher(sf.Type, sf.Records, weights)
	cfg := grid.Config{
		BBox:      sf.Bounds,
		NSamples:  job.SampleSize,
		MaxLevel:  job.MaxLevel,
		ShiftGrid: job.ShiftGrid,
		Rand:      rng,
	}
	res := grid.NumLevels(cfg, weigh)
	if res.Stalled {
		sink(grtserr.Event{Kind: grtserr.InvalidGeometry,
			Msg: fmt.Sprintf("panel %q: grid refinement stalled at level %d before converging", column, res.Level)})
	}

	n := res.Level
	addrs := make([]address.Address, len(res.Xc))
	for i := range res.Xc {
		addrs[i] = address.Construct(res.Xc[i], res.Yc[i], res.Dx, res.Dy, n)
	}
	// address.Randomize mutates a copy so the caller can still
	// correlate addrs[i] with cell i after randomization.
	randomized := make([]address.Address, len(addrs))
	for i, a := range addrs {
		cp := make(address.Address, len(a))
		copy(cp, a)
		randomized[i] = cp
	}
	address.Randomize(randomized, rng)

	order := sortByAddress(randomized)

	// idx[i+1] is the cumulative weight through order[i] measured in
	// sint units and rounded up, so idx[i+1]-idx[i] is the number of
	// sample points order[i]'s cell receives and the counts sum to
	// SampleSize.
	idx := make([]int, len(order)+1)
	var cum float64
	for i, cellIdx := range order {
		cum += res.Weights[cellIdx]
		idx[i+1] = int(math.Ceil(cum / res.Sint))
	}
	pick := sample.GetRecordIDs(idx, job.SampleSize)

	points := make([]sample.Result, 0, job.SampleSize)
	for _, orderPos := range pick {
		cellIdx := order[orderPos-1]
		cell := &geom.Bounds{
			Min: geom.Point{X: res.Xc[cellIdx] - res.Dx, Y: res.Yc[cellIdx] - res.Dy},
			Max: geom.Point{X: res.Xc[cellIdx], Y: res.Yc[cellIdx]},
		}
		rec := recordForCell(sf, weights, cell)
		if rec == nil {
			points = append(points, sample.Result{NoPointFound: true})
			continue
		}
		points = append(points, drawFromCell(rec, cell, rng, job.MaxTry))
	}

	return &PanelResult{Column: column, Points: points}, nil
}

// sortByAddress returns cell indices ordered by their randomized
// address string, implementing the GRTS spatial-balance ordering: the
// hierarchical address, once randomized, is a space-filling-curve-like
// linearization of the grid.
func sortByAddress(addrs []address.Address) []int {
	order := make([]int, len(addrs))
	for i := range order {
		order[i] = i
	}
	// Insertion sort: addrs holds one address per grid corner, at most
	// (2^maxLevel+1)^2 of them, and a stable, allocation-free sort keeps
	// the cell/address pairing obvious to follow.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && string(addrs[order[j-1]]) > string(addrs[order[j]]) {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
	return order
}

// recordForCell picks the highest-weighted record overlapping cell,
// the same record a cell's weight was accumulated from in NewWeigher's
// summation, so the sampler draws from a record actually present there.
func recordForCell(sf *ParsedShapefile, weights map[int]float64, cell *geom.Bounds) *shpfile.Record {
	var best *shpfile.Record
	var bestW float64
	for _, rec := range sf.Records {
		w, ok := weights[rec.Number]
		if !ok {
			continue
		}
		var contribution float64
		switch {
		case sf.Type.IsPolygon():
			contribution = grtsgeom.ClippedArea(rec.Rings, cell) * w
		case sf.Type.IsPolyLine():
			contribution = grtsgeom.ClippedLength(rec.Lines, cell) * w
		case sf.Type.IsPoint():
			if grid.PointInCell(rec.Point, cell) {
				contribution = w
			}
		}
		if contribution > bestW {
			bestW = contribution
			best = rec
		}
	}
	return best
}

func drawFromCell(rec *shpfile.Record, cell *geom.Bounds, rng *rand.Rand, maxTry int) sample.Result {
	switch {
	case rec.Type.IsPolygon():
		return sample.Polygon(rec, cell, rng, maxTry)
	case rec.Type.IsPolyLine():
		return sample.Polyline(rec, cell, rng)
	default:
		return sample.Point(rec)
	}
}

// LinearSampleIRS draws an independent random sample (§6's
// linear_sample_irs) directly from a polyline dataset without building
// a grid: each sample position in sampPos is resolved to the record
// whose mdm-weighted cumulative arc-length first exceeds it
// (sample.IRSRecordIDs), then walked to the corresponding point along
// that record (sample.IRSPolyline). records, lenCumsum, lengths, and
// mdm must be parallel slices, one entry per record, in the same order.
func LinearSampleIRS(records []*shpfile.Record, lenCumsum, lengths, mdm []float64, sampPos []float64) []sample.Result {
	assignments := sample.IRSRecordIDs(lenCumsum, lengths, mdm, sampPos)
	out := make([]sample.Result, len(assignments))
	for i, a := range assignments {
		out[i] = sample.IRSPolyline(records[a.RecordIndex], a.Offset)
	}
	return out
}

// AreaSampleIRS draws an independent random sample from a polygon
// dataset: each sample position is resolved to a record by mdm-weighted
// cumulative area (sample.IRSRecordIDs), then a point is drawn from
// that record's full extent by rejection sampling (sample.IRSPolygon),
// matching the source's pickSamplePoints IRS path (spec.md §9(ii)).
func AreaSampleIRS(records []*shpfile.Record, areaCumsum, areas, mdm []float64, sampPos []float64, rng *rand.Rand, maxTry int) []sample.Result {
	assignments := sample.IRSRecordIDs(areaCumsum, areas, mdm, sampPos)
	out := make([]sample.Result, len(assignments))
	for i, a := range assignments {
		out[i] = sample.IRSPolygon(records[a.RecordIndex], rng, maxTry)
	}
	return out
}

// WritePanelResults writes a panel's sample points as a point
// shapefile plus a one-column dBASE table naming the source record ID,
// at path job.OutputPrefix+"_"+column.
func WritePanelResults(job *Job, panel *PanelResult) error {
	path := job.OutputPrefix + "_" + panel.Column
	records := make([]*shpfile.Record, 0, len(panel.Points))
	rows := make([]dbf.Row, 0, len(panel.Points))
	num := 1
	for _, p := range panel.Points {
		if p.NoPointFound {
			continue
		}
		records = append(records, &shpfile.Record{
			Number: num,
			Type:   shpfile.ShapeTypePoint,
			Point:  geom.Point{X: p.X, Y: p.Y},
		})
		rows = append(rows, dbf.Row{"RECORD_ID": int64(p.RecordID)})
		num++
	}
	if err := WriteShapefile(path, shpfile.ShapeTypePoint, records); err != nil {
		return err
	}
	schema := dbf.Schema{{Name: "RECORD_ID", Type: dbf.FieldNumeric}}
	return WriteDBF(path, schema, rows)
}
