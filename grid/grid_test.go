package grid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/grts/shpfile"
	"gonum.org/v1/gonum/floats"
)

func unitSquareRecord() *shpfile.Record {
	ring := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	return &shpfile.Record{Number: 1, Type: shpfile.ShapeTypePolygon, Rings: geom.Polygon{ring}}
}

// S4: grid refinement on the unit square converges to nlev >= 2 with
// cell weights summing to the polygon's area.
func TestNumLevelsUnitSquare(t *testing.T) {
	rec := unitSquareRecord()
	weigh := NewWeigher(shpfile.ShapeTypePolygon, []*shpfile.Record{rec}, map[int]float64{1: 1.0})

	cfg := Config{
		BBox:     &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		NSamples: 4,
		MaxLevel: 6,
	}
	res := NumLevels(cfg, weigh)

	if res.Level < 2 {
		t.Fatalf("nlev = %d, want >= 2", res.Level)
	}
	wantDx := 1.08 / math.Pow(2, float64(res.Level))
	if math.Abs(res.Dx-wantDx) > 1e-9 {
		t.Errorf("dx = %v, want %v", res.Dx, wantDx)
	}
	if res.Dy != res.Dx {
		t.Errorf("dy = %v, want dx = %v", res.Dy, res.Dx)
	}

	total := floats.Sum(res.Weights)
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("sum of cell weights = %v, want ~1.0", total)
	}
}

// Property 7: with shift_grid = false, the result is deterministic.
func TestDeterministicWithoutShift(t *testing.T) {
	rec := unitSquareRecord()
	weigh := NewWeigher(shpfile.ShapeTypePolygon, []*shpfile.Record{rec}, map[int]float64{1: 1.0})
	cfg := Config{
		BBox:     &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		NSamples: 4,
		MaxLevel: 6,
	}
	a := NumLevels(cfg, weigh)
	b := NumLevels(cfg, weigh)
	if a.Level != b.Level || a.Dx != b.Dx {
		t.Fatal("two runs without grid shift produced different results")
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("weight %d differs between runs: %v vs %v", i, a.Weights[i], b.Weights[i])
		}
	}
}

// Property 8: num_levels terminates within max_level - start_level + 3
// iterations' worth of level advancement.
func TestTerminationBound(t *testing.T) {
	rec := unitSquareRecord()
	weigh := NewWeigher(shpfile.ShapeTypePolygon, []*shpfile.Record{rec}, map[int]float64{1: 1.0})
	cfg := Config{
		BBox:     &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		NSamples: 4,
		MaxLevel: 10,
	}
	res := NumLevels(cfg, weigh)
	if res.Level > cfg.MaxLevel+3 {
		t.Errorf("nlev = %d exceeded max_level+3 = %d", res.Level, cfg.MaxLevel+3)
	}
}

func TestShiftGridUsesRNG(t *testing.T) {
	rec := unitSquareRecord()
	weigh := NewWeigher(shpfile.ShapeTypePolygon, []*shpfile.Record{rec}, map[int]float64{1: 1.0})
	cfg := Config{
		BBox:      &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		NSamples:  4,
		MaxLevel:  6,
		ShiftGrid: true,
		Rand:      rand.New(rand.NewSource(1)),
	}
	res := NumLevels(cfg, weigh)
	if res.Level < 1 {
		t.Fatal("expected at least one refinement level")
	}
}

func TestPointInCellHalfOpen(t *testing.T) {
	cell := &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}}
	if PointInCell(geom.Point{X: 0, Y: 0.5}, cell) {
		t.Error("point on the lower/left edge should belong to the neighboring cell")
	}
	if !PointInCell(geom.Point{X: 1, Y: 1}, cell) {
		t.Error("point on the upper/right edge should belong to this cell")
	}
}
