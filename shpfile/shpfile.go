// Package shpfile implements a streaming, bit-exact codec for the ESRI
// shapefile main (.shp) and index (.shx) files, covering the nine
// Point/Polyline/Polygon shape-type variants. Z and M values are read
// and written faithfully but are otherwise opaque to this package; only
// the 2-D projection of each record is interpreted by callers.
//
// The binary layout mixes big-endian and little-endian fields within the
// same header and record, so every read and write names its byte order
// explicitly via encoding/binary, the same discipline the teacher's own
// binary codec (bitbucket.org/ctessum/cdf) uses for its file format.
package shpfile

import (
	"github.com/ctessum/geom"
	"github.com/spatialmodel/grts/grtserr"
)

// ShapeType is the on-disk shape type tag. It is a closed enumeration of
// nine values; any other tag is UnknownShapeType, and a Null (0) record
// is treated as malformed input.
type ShapeType int32

const (
	ShapeTypeNull      ShapeType = 0
	ShapeTypePoint     ShapeType = 1
	ShapeTypePolyLine  ShapeType = 3
	ShapeTypePolygon   ShapeType = 5
	ShapeTypePointZ    ShapeType = 11
	ShapeTypePolyLineZ ShapeType = 13
	ShapeTypePolygonZ  ShapeType = 15
	ShapeTypePointM    ShapeType = 21
	ShapeTypePolyLineM ShapeType = 23
	ShapeTypePolygonM  ShapeType = 25
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeNull:
		return "Null"
	case ShapeTypePoint:
		return "Point"
	case ShapeTypePolyLine:
		return "PolyLine"
	case ShapeTypePolygon:
		return "Polygon"
	case ShapeTypePointZ:
		return "PointZ"
	case ShapeTypePolyLineZ:
		return "PolyLineZ"
	case ShapeTypePolygonZ:
		return "PolygonZ"
	case ShapeTypePointM:
		return "PointM"
	case ShapeTypePolyLineM:
		return "PolyLineM"
	case ShapeTypePolygonM:
		return "PolygonM"
	default:
		return "Unknown"
	}
}

// HasZ reports whether t carries per-vertex Z (elevation) data.
func (t ShapeType) HasZ() bool {
	switch t {
	case ShapeTypePointZ, ShapeTypePolyLineZ, ShapeTypePolygonZ:
		return true
	default:
		return false
	}
}

// HasM reports whether t carries per-vertex M (measure) data. Z variants
// also carry an M tail, per the file format.
func (t ShapeType) HasM() bool {
	switch t {
	case ShapeTypePointZ, ShapeTypePolyLineZ, ShapeTypePolygonZ,
		ShapeTypePointM, ShapeTypePolyLineM, ShapeTypePolygonM:
		return true
	default:
		return false
	}
}

// IsPoint, IsPolyLine, and IsPolygon report which geometry family a
// shape type belongs to, independent of its Z/M flavor.
func (t ShapeType) IsPoint() bool {
	switch t {
	case ShapeTypePoint, ShapeTypePointZ, ShapeTypePointM:
		return true
	default:
		return false
	}
}

func (t ShapeType) IsPolyLine() bool {
	switch t {
	case ShapeTypePolyLine, ShapeTypePolyLineZ, ShapeTypePolyLineM:
		return true
	default:
		return false
	}
}

func (t ShapeType) IsPolygon() bool {
	switch t {
	case ShapeTypePolygon, ShapeTypePolygonZ, ShapeTypePolygonM:
		return true
	default:
		return false
	}
}

// Valid reports whether t is one of the nine supported tags.
func (t ShapeType) Valid() bool {
	switch t {
	case ShapeTypePoint, ShapeTypePolyLine, ShapeTypePolygon,
		ShapeTypePointZ, ShapeTypePolyLineZ, ShapeTypePolygonZ,
		ShapeTypePointM, ShapeTypePolyLineM, ShapeTypePolygonM:
		return true
	default:
		return false
	}
}

// Record is one shapefile feature: a record number (1-based, matching
// on-disk order), a shape type, and the geometry for whichever family
// the shape type belongs to. Z and M are carried in file-order (parts
// concatenated in sequence) whenever the shape type has them; they are
// never consulted by the grid, sample, or address packages.
type Record struct {
	Number int
	Type   ShapeType

	// Point is valid when Type.IsPoint().
	Point geom.Point

	// Lines is valid when Type.IsPolyLine(); each element is one part.
	// Parts within a record are not connected to each other.
	Lines geom.MultiLineString

	// Rings is valid when Type.IsPolygon(); each element is one ring.
	// Inner rings (holes) are distinguished by winding direction, not by
	// a separate flag.
	Rings geom.Polygon

	// Z holds per-vertex elevation, in file order, when Type.HasZ().
	// For a point record it has exactly one element.
	Z []float64

	// M holds per-vertex measure, in file order, when Type.HasM().
	// For a point record it has exactly one element.
	M []float64
}

// Bounds returns the geometric extent of r's 2-D projection. It is
// always derived from the vertices, never trusted from an on-disk box;
// callers that need to compare against a stored box should do so
// explicitly (see Reader's InconsistentBox handling).
func (r *Record) Bounds() *geom.Bounds {
	switch {
	case r.Type.IsPoint():
		return geom.NewBoundsPoint(r.Point)
	case r.Type.IsPolyLine():
		return r.Lines.Bounds()
	case r.Type.IsPolygon():
		return r.Rings.Bounds()
	default:
		return geom.NewBounds()
	}
}

// parts returns the flattened point list and part-start offsets for a
// polyline or polygon record's vertex rings, in the order the shapefile
// format requires (offsets into the concatenated point list).
func parts(rings [][]geom.Point) (points []geom.Point, partStarts []int32) {
	partStarts = make([]int32, len(rings))
	var offset int32
	for i, r := range rings {
		partStarts[i] = offset
		points = append(points, r...)
		offset += int32(len(r))
	}
	return points, partStarts
}

func invalidGeometry(record int, msg string) error {
	return grtserr.NewRecord(grtserr.InvalidGeometry, record, errString(msg))
}

type errString string

func (e errString) Error() string { return string(e) }
