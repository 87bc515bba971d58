package shpfile

import (
	"fmt"
	"io"
	"math"

	"github.com/ctessum/geom"
)

// Writer streams records into a .shp file and its parallel .shx index,
// patching both file-length header fields once Close sees the final
// record count and total size, the same deferred-patch pattern the
// teacher uses when writing NetCDF files whose header precedes data it
// cannot size in advance.
type Writer struct {
	shp, shx  io.WriteSeeker
	shapeType ShapeType
	bounds    *geom.Bounds
	zRange    [2]float64
	mRange    [2]float64
	shpWords  int32 // running total, including the 50-word header
	nrecords  int32
}

// NewWriter reserves space for the file headers (patched on Close) and
// returns a Writer for shape type t.
func NewWriter(shp, shx io.WriteSeeker, t ShapeType) (*Writer, error) {
	var zero [headerBytes]byte
	if _, err := shp.Write(zero[:]); err != nil {
		return nil, err
	}
	if _, err := shx.Write(zero[:]); err != nil {
		return nil, err
	}
	w := &Writer{
		shp: shp, shx: shx, shapeType: t,
		bounds:   geom.NewBounds(),
		shpWords: headerBytes / wordBytes,
	}
	if t.HasZ() {
		w.zRange = [2]float64{math.Inf(1), math.Inf(-1)}
	}
	if t.HasM() {
		w.mRange = [2]float64{math.Inf(1), math.Inf(-1)}
	}
	return w, nil
}

// Write appends rec to the file. Records must be of the writer's shape
// type.
func (w *Writer) Write(rec *Record) error {
	if rec.Type != w.shapeType {
		return fmt.Errorf("shpfile: record %d has type %v, writer expects %v", rec.Number, rec.Type, w.shapeType)
	}

	w.nrecords++
	offsetWords := w.shpWords
	contentWords := contentLength(rec)

	if err := encodeRecordHeader(w.shp, w.nrecords, contentWords); err != nil {
		return err
	}
	if err := encodeRecordBody(w.shp, rec); err != nil {
		return err
	}
	w.shpWords += recHeaderSize/wordBytes + contentWords

	if err := writeBE(w.shx, []int32{offsetWords, contentWords}); err != nil {
		return err
	}

	w.bounds.Extend(rec.Bounds())
	if rec.Type.HasZ() {
		extendRange(&w.zRange, rec.Z)
	}
	if rec.Type.HasM() {
		extendRange(&w.mRange, rec.M)
	}
	return nil
}

func extendRange(r *[2]float64, v []float64) {
	for _, x := range v {
		if x < r[0] {
			r[0] = x
		}
		if x > r[1] {
			r[1] = x
		}
	}
}

// Close patches the file-length field of both headers with the final
// size. It does not close the underlying writers.
func (w *Writer) Close() error {
	shxWords := headerBytes/wordBytes + w.nrecords*4 // each shx entry is two 4-byte words

	h := &Header{ShapeType: w.shapeType, Bounds: *w.bounds, ZRange: w.zRange, MRange: w.mRange}

	h.FileLength = w.shpWords
	if _, err := w.shp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := writeHeader(w.shp, h); err != nil {
		return err
	}

	h.FileLength = shxWords
	if _, err := w.shx.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return writeHeader(w.shx, h)
}
