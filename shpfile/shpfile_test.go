package shpfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/grts/grtserr"
)

// seekBuf adapts a bytes.Buffer to io.WriteSeeker for tests, backed by a
// growable byte slice rather than a real file.
type seekBuf struct {
	buf []byte
	pos int
}

func (s *seekBuf) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		panic("only io.SeekStart supported in test helper")
	}
	s.pos = int(offset)
	return offset, nil
}

// S1: single-point shapefile round-trips through Writer and Reader.
func TestPointRoundTrip(t *testing.T) {
	shp := &seekBuf{}
	shx := &seekBuf{}
	w, err := NewWriter(shp, shx, ShapeTypePoint)
	if err != nil {
		t.Fatal(err)
	}
	want := &Record{Number: 1, Type: ShapeTypePoint, Point: geom.Point{X: 12.5, Y: -4.25}}
	if err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(shp.buf), nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Header.ShapeType != ShapeTypePoint {
		t.Fatalf("header shape type = %v, want Point", r.Header.ShapeType)
	}
	got, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got.Point != want.Point {
		t.Errorf("got point %v, want %v", got.Point, want.Point)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF after single record, got %v", err)
	}

	offsets, err := ReadShxOffsets(bytes.NewReader(shx.buf))
	if err != nil {
		t.Fatal(err)
	}
	if len(offsets) != 1 {
		t.Fatalf("shx has %d entries, want 1", len(offsets))
	}
}

// Property: round-tripping a polygon record through Write/Read preserves
// every ring's vertices exactly.
func TestPolygonRoundTrip(t *testing.T) {
	shp := &seekBuf{}
	shx := &seekBuf{}
	w, err := NewWriter(shp, shx, ShapeTypePolygon)
	if err != nil {
		t.Fatal(err)
	}
	outer := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []geom.Point{{X: 4, Y: 4}, {X: 4, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 4}, {X: 4, Y: 4}}
	want := &Record{Number: 1, Type: ShapeTypePolygon, Rings: geom.Polygon{outer, hole}}
	if err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(shp.buf), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rings) != 2 {
		t.Fatalf("got %d rings, want 2", len(got.Rings))
	}
	for i, ring := range got.Rings {
		for j, p := range ring {
			if p != want.Rings[i][j] {
				t.Errorf("ring %d point %d = %v, want %v", i, j, p, want.Rings[i][j])
			}
		}
	}
}

// A zero-part/Null record must fail with InvalidGeometry rather than
// panicking or silently producing an empty geometry.
func TestNullShapeIsInvalidGeometry(t *testing.T) {
	shp := &seekBuf{}
	shx := &seekBuf{}
	w, err := NewWriter(shp, shx, ShapeTypePoint)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Hand-craft a record header followed by a Null shape tag, appended
	// after the (empty) writer output's header.
	buf := bytes.NewBuffer(shp.buf)
	if err := encodeRecordHeader(buf, 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := writeLE(buf, int32(ShapeTypeNull)); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Next()
	ge, ok := err.(*grtserr.Error)
	if !ok || ge.Kind != grtserr.InvalidGeometry {
		t.Fatalf("got error %v, want InvalidGeometry", err)
	}
}

// An on-disk box that doesn't contain the record's own vertices is
// repaired and reported as a warning, not a fatal error.
func TestInconsistentBoxIsWarningNotFatal(t *testing.T) {
	var shp bytes.Buffer
	if err := writeHeader(&shp, &Header{ShapeType: ShapeTypePolyLine}); err != nil {
		t.Fatal(err)
	}

	if err := encodeRecordHeader(&shp, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := writeLE(&shp, int32(ShapeTypePolyLine)); err != nil {
		t.Fatal(err)
	}
	// Deliberately wrong box: all zeros, while the line spans (0,0)-(1,1).
	if err := writeLE(&shp, []float64{0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := writeLE(&shp, []int32{1, 2}); err != nil { // nparts=1, npoints=2
		t.Fatal(err)
	}
	if err := writeLE(&shp, []int32{0}); err != nil { // part offsets
		t.Fatal(err)
	}
	if err := writeLE(&shp, []float64{0, 0, 1, 1}); err != nil { // points
		t.Fatal(err)
	}

	var warned bool
	sink := func(e grtserr.Event) {
		if e.Kind == grtserr.InconsistentBox {
			warned = true
		}
	}
	r, err := NewReader(bytes.NewReader(shp.Bytes()), sink)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("InconsistentBox should not be fatal, got %v", err)
	}
	if !warned {
		t.Error("expected InconsistentBox warning event")
	}
	if rec.Bounds().Max.X != 1 {
		t.Errorf("record bounds should reflect true vertex extent, got %v", rec.Bounds())
	}
}
