package grts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/require"

	"github.com/spatialmodel/grts/dbf"
	"github.com/spatialmodel/grts/shpfile"
)

func writeTestFrame(t *testing.T, dir, name string) {
	t.Helper()
	ring := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	records := []*shpfile.Record{
		{Number: 1, Type: shpfile.ShapeTypePolygon, Rings: geom.Polygon{ring}},
	}
	path := filepath.Join(dir, name)
	if err := WriteShapefile(path, shpfile.ShapeTypePolygon, records); err != nil {
		t.Fatal(err)
	}
	schema := dbf.Schema{{Name: "POP", Type: dbf.FieldNumeric}}
	rows := []dbf.Row{{"POP": int64(100)}}
	if err := WriteDBF(path, schema, rows); err != nil {
		t.Fatal(err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeTestFrame(t, dir, "frame")

	job := &Job{
		InputShapefiles: filepath.Join(dir, "frame.shp"),
		WeightColumns:   []string{"POP"},
		SampleSize:      4,
		MaxLevel:        6,
		OutputPrefix:    filepath.Join(dir, "out"),
		Seed:            1,
	}
	require.NoError(t, job.Validate())

	results, err := Run(job, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "POP", results[0].Column)

	// Re-read the written output to confirm WritePanelResults produced a
	// valid shapefile/dBASE pair.
	sf, err := ReadShapefile(filepath.Join(dir, "out_POP"), nil)
	require.NoError(t, err)
	require.Equal(t, shpfile.ShapeTypePoint, sf.Type)
}

func TestUnionShapefilesSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeTestFrame(t, dir, "a")

	ring := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	records := []*shpfile.Record{{Number: 1, Type: shpfile.ShapeTypePolygon, Rings: geom.Polygon{ring}}}
	path := filepath.Join(dir, "b")
	if err := WriteShapefile(path, shpfile.ShapeTypePolygon, records); err != nil {
		t.Fatal(err)
	}
	schema := dbf.Schema{{Name: "DIFFERENT", Type: dbf.FieldNumeric}}
	if err := WriteDBF(path, schema, []dbf.Row{{"DIFFERENT": int64(1)}}); err != nil {
		t.Fatal(err)
	}

	_, err := UnionShapefiles(filepath.Join(dir, "*.shp"), false, "", nil)
	if err == nil {
		t.Fatal("expected a schema mismatch error")
	}
}

// S6: a single polyline record covering one IRS "cell" (its own full
// length); a stubbed sample position of 3.7 along its 10-unit length
// must land at (3.7, 0.0) and resolve to that record's ID.
func TestLinearSampleIRS(t *testing.T) {
	rec := &shpfile.Record{
		Number: 1,
		Type:   shpfile.ShapeTypePolyLine,
		Lines:  geom.MultiLineString{{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}
	records := []*shpfile.Record{rec}
	lengths := []float64{10}
	mdm := []float64{1}
	lenCumsum := []float64{10}

	results := LinearSampleIRS(records, lenCumsum, lengths, mdm, []float64{3.7})
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].RecordID)
	require.InDelta(t, 3.7, results[0].X, 1e-9)
	require.InDelta(t, 0.0, results[0].Y, 1e-9)
}

func TestShapeBox(t *testing.T) {
	dir := t.TempDir()
	writeTestFrame(t, dir, "frame")

	sf, err := ReadShapefile(filepath.Join(dir, "frame"), nil)
	require.NoError(t, err)

	box := ShapeBox(sf, []int{0})
	require.InDelta(t, 0.0, box.Min.X, 1e-9)
	require.InDelta(t, 0.0, box.Min.Y, 1e-9)
	require.InDelta(t, 1.0, box.Max.X, 1e-9)
	require.InDelta(t, 1.0, box.Max.Y, 1e-9)
}

func TestLoadJobDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "job.yaml")
	content := []byte("input_shapefiles: frame.shp\nweight_columns: [POP]\nsample_size: 10\nmax_level: 5\noutput_prefix: out\n")
	if err := os.WriteFile(yamlPath, content, 0o644); err != nil {
		t.Fatal(err)
	}
	job, err := LoadJob(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if job.MaxTry != defaultMaxTry {
		t.Errorf("MaxTry = %d, want default %d", job.MaxTry, defaultMaxTry)
	}
	if job.TempFile != defaultTempFile {
		t.Errorf("TempFile = %q, want default %q", job.TempFile, defaultTempFile)
	}
}
