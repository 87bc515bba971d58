package shpfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/grts/grtserr"
)

func readLEInt32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readLEFloat64(r io.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readLEFloat64s(r io.Reader, n int) ([]float64, error) {
	v := make([]float64, n)
	if n == 0 {
		return v, nil
	}
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

func readLEInt32s(r io.Reader, n int) ([]int32, error) {
	v := make([]int32, n)
	if n == 0 {
		return v, nil
	}
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

func writeLE(w io.Writer, v interface{}) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readBEInt32s(r io.Reader, n int) ([]int32, error) {
	v := make([]int32, n)
	if n == 0 {
		return v, nil
	}
	if err := binary.Read(r, binary.BigEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

func writeBE(w io.Writer, v interface{}) error {
	return binary.Write(w, binary.BigEndian, v)
}

// decodeRecordHeader reads the 8-byte record header: record number and
// content length, both big-endian 4-byte words.
func decodeRecordHeader(r io.Reader) (number int32, contentLenWords int32, err error) {
	var buf [recHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, err
	}
	number = int32(binary.BigEndian.Uint32(buf[0:4]))
	contentLenWords = int32(binary.BigEndian.Uint32(buf[4:8]))
	return number, contentLenWords, nil
}

func encodeRecordHeader(w io.Writer, number, contentLenWords int32) error {
	var buf [recHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(number))
	binary.BigEndian.PutUint32(buf[4:8], uint32(contentLenWords))
	_, err := w.Write(buf[:])
	return err
}

// decodeRecordBody reads a record's shape-type tag and geometry payload.
// number is the record number from the record header, used only for
// error reporting.
func decodeRecordBody(r io.Reader, number int32) (*Record, error) {
	tagVal, err := readLEInt32(r)
	if err != nil {
		return nil, grtserr.NewRecord(grtserr.Truncated, int(number), err)
	}
	tag := ShapeType(tagVal)
	if tag == ShapeTypeNull {
		return nil, invalidGeometry(int(number), "record has shape type Null")
	}
	if !tag.Valid() {
		return nil, grtserr.NewRecord(grtserr.UnknownShapeType, int(number), fmt.Errorf("tag %d", tagVal))
	}

	rec := &Record{Number: int(number), Type: tag}

	switch {
	case tag.IsPoint():
		if err := decodePoint(r, rec); err != nil {
			return nil, grtserr.NewRecord(grtserr.Truncated, int(number), err)
		}
	case tag.IsPolyLine(), tag.IsPolygon():
		if err := decodeMultiPart(r, rec); err != nil {
			ge, ok := err.(*grtserr.Error)
			if ok && ge.Kind == grtserr.InconsistentBox {
				ge.Record = int(number)
				return rec, ge
			}
			if ok {
				ge.Record = int(number)
				return nil, ge
			}
			return nil, grtserr.NewRecord(grtserr.Truncated, int(number), err)
		}
	}
	return rec, nil
}

func decodePoint(r io.Reader, rec *Record) error {
	x, err := readLEFloat64(r)
	if err != nil {
		return err
	}
	y, err := readLEFloat64(r)
	if err != nil {
		return err
	}
	rec.Point = geom.Point{X: x, Y: y}

	if rec.Type.HasZ() {
		z, err := readLEFloat64(r)
		if err != nil {
			return err
		}
		rec.Z = []float64{z}
	}
	if rec.Type.HasM() {
		m, err := readLEFloat64(r)
		if err != nil {
			return err
		}
		rec.M = []float64{m}
	}
	return nil
}

// decodeMultiPart decodes the shared polyline/polygon payload: box,
// nparts, npoints, part offsets, and the flattened vertex list, plus any
// Z/M tails.
func decodeMultiPart(r io.Reader, rec *Record) error {
	box, err := readLEFloat64s(r, 4)
	if err != nil {
		return err
	}
	nparts, err := readLEInt32(r)
	if err != nil {
		return err
	}
	npoints, err := readLEInt32(r)
	if err != nil {
		return err
	}
	if nparts <= 0 || npoints < nparts {
		return invalidGeometry(rec.Number, fmt.Sprintf("nparts=%d npoints=%d", nparts, npoints))
	}

	partStarts, err := readLEInt32s(r, int(nparts))
	if err != nil {
		return err
	}
	coords, err := readLEFloat64s(r, int(npoints)*2)
	if err != nil {
		return err
	}
	points := make([]geom.Point, npoints)
	for i := range points {
		points[i] = geom.Point{X: coords[2*i], Y: coords[2*i+1]}
	}

	if rec.Type.HasZ() {
		if _, err := readLEFloat64s(r, 2); err != nil { // zmin, zmax
			return err
		}
		z, err := readLEFloat64s(r, int(npoints))
		if err != nil {
			return err
		}
		rec.Z = z
	}
	if rec.Type.HasM() {
		if _, err := readLEFloat64s(r, 2); err != nil { // mmin, mmax
			return err
		}
		m, err := readLEFloat64s(r, int(npoints))
		if err != nil {
			return err
		}
		rec.M = m
	}

	rings := splitParts(points, partStarts)

	recBox := &geom.Bounds{Min: geom.Point{X: box[0], Y: box[1]}, Max: geom.Point{X: box[2], Y: box[3]}}
	trueBox := geom.NewBounds()
	for _, ring := range rings {
		for _, p := range ring {
			trueBox.Extend(geom.NewBoundsPoint(p))
		}
	}
	var boxWarning error
	if !boxContains(recBox, trueBox) {
		boxWarning = grtserr.NewRecord(grtserr.InconsistentBox, rec.Number,
			fmt.Errorf("stored box does not contain all vertices; using true union"))
	}

	if rec.Type.IsPolyLine() {
		rec.Lines = geom.MultiLineString(ringsToLineStrings(rings))
	} else {
		rec.Rings = geom.Polygon(rings)
	}
	return boxWarning
}

func splitParts(points []geom.Point, partStarts []int32) [][]geom.Point {
	rings := make([][]geom.Point, len(partStarts))
	for i, start := range partStarts {
		end := int32(len(points))
		if i+1 < len(partStarts) {
			end = partStarts[i+1]
		}
		rings[i] = points[start:end]
	}
	return rings
}

func ringsToLineStrings(rings [][]geom.Point) []geom.LineString {
	ls := make([]geom.LineString, len(rings))
	for i, r := range rings {
		ls[i] = geom.LineString(r)
	}
	return ls
}

func boxContains(box, inner *geom.Bounds) bool {
	const eps = 1e-9
	return inner.Min.X >= box.Min.X-eps && inner.Min.Y >= box.Min.Y-eps &&
		inner.Max.X <= box.Max.X+eps && inner.Max.Y <= box.Max.Y+eps
}

// contentLength returns the record's content length in 16-bit words,
// not including the 8-byte record header.
func contentLength(rec *Record) int32 {
	switch {
	case rec.Type.IsPoint():
		bytes := 4 + 16 // type + x,y
		if rec.Type.HasZ() {
			bytes += 8
		}
		if rec.Type.HasM() {
			bytes += 8
		}
		return int32(bytes / 2)
	case rec.Type.IsPolyLine(), rec.Type.IsPolygon():
		var rings [][]geom.Point
		if rec.Type.IsPolyLine() {
			rings = lineStringsToRings(rec.Lines)
		} else {
			rings = rec.Rings
		}
		npoints := 0
		for _, r := range rings {
			npoints += len(r)
		}
		bytes := 4 + 32 + 4 + 4 + 4*len(rings) + 16*npoints
		if rec.Type.HasZ() {
			bytes += 16 + 8*npoints
		}
		if rec.Type.HasM() {
			bytes += 16 + 8*npoints
		}
		return int32(bytes / 2)
	default:
		return 0
	}
}

func lineStringsToRings(ml geom.MultiLineString) [][]geom.Point {
	rings := make([][]geom.Point, len(ml))
	for i, ls := range ml {
		rings[i] = []geom.Point(ls)
	}
	return rings
}

func encodeRecordBody(w io.Writer, rec *Record) error {
	if err := writeLE(w, int32(rec.Type)); err != nil {
		return err
	}
	switch {
	case rec.Type.IsPoint():
		return encodePoint(w, rec)
	case rec.Type.IsPolyLine():
		return encodeMultiPart(w, rec, lineStringsToRings(rec.Lines))
	case rec.Type.IsPolygon():
		return encodeMultiPart(w, rec, rec.Rings)
	default:
		return fmt.Errorf("shpfile: cannot encode shape type %v", rec.Type)
	}
}

func encodePoint(w io.Writer, rec *Record) error {
	if err := writeLE(w, rec.Point.X); err != nil {
		return err
	}
	if err := writeLE(w, rec.Point.Y); err != nil {
		return err
	}
	if rec.Type.HasZ() {
		z := 0.
		if len(rec.Z) > 0 {
			z = rec.Z[0]
		}
		if err := writeLE(w, z); err != nil {
			return err
		}
	}
	if rec.Type.HasM() {
		m := 0.
		if len(rec.M) > 0 {
			m = rec.M[0]
		}
		if err := writeLE(w, m); err != nil {
			return err
		}
	}
	return nil
}

func encodeMultiPart(w io.Writer, rec *Record, rings [][]geom.Point) error {
	points, partStarts := parts(rings)
	box := geom.NewBounds()
	for _, p := range points {
		box.Extend(geom.NewBoundsPoint(p))
	}

	if err := writeLE(w, []float64{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y}); err != nil {
		return err
	}
	if err := writeLE(w, int32(len(rings))); err != nil {
		return err
	}
	if err := writeLE(w, int32(len(points))); err != nil {
		return err
	}
	if err := writeLE(w, partStarts); err != nil {
		return err
	}
	coords := make([]float64, 2*len(points))
	for i, p := range points {
		coords[2*i] = p.X
		coords[2*i+1] = p.Y
	}
	if err := writeLE(w, coords); err != nil {
		return err
	}

	if rec.Type.HasZ() {
		zmin, zmax := minMax(rec.Z)
		if err := writeLE(w, []float64{zmin, zmax}); err != nil {
			return err
		}
		if err := writeLE(w, padTo(rec.Z, len(points))); err != nil {
			return err
		}
	}
	if rec.Type.HasM() {
		mmin, mmax := minMax(rec.M)
		if err := writeLE(w, []float64{mmin, mmax}); err != nil {
			return err
		}
		if err := writeLE(w, padTo(rec.M, len(points))); err != nil {
			return err
		}
	}
	return nil
}

func minMax(v []float64) (min, max float64) {
	if len(v) == 0 {
		return 0, 0
	}
	min, max = v[0], v[0]
	for _, x := range v[1:] {
		min = math.Min(min, x)
		max = math.Max(max, x)
	}
	return min, max
}

func padTo(v []float64, n int) []float64 {
	if len(v) == n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}
