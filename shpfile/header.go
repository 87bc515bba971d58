package shpfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/grts/grtserr"
)

const (
	fileCode      = 9994
	fileVersion   = 1000
	headerBytes   = 100
	wordBytes     = 2 // a "16-bit word", the file's internal length unit
	recHeaderSize = 8 // record number + content length, both 4-byte BE
)

// Header is the 100-byte shapefile file header.
type Header struct {
	ShapeType  ShapeType
	Bounds     geom.Bounds
	ZRange     [2]float64
	MRange     [2]float64
	FileLength int32 // in 16-bit words, including the 50-word header
}

func readHeader(r io.Reader) (*Header, error) {
	var buf [headerBytes]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading shapefile header: %w", err))
	}

	fc := int32(binary.BigEndian.Uint32(buf[0:4]))
	if fc != fileCode {
		return nil, grtserr.New(grtserr.BadMagic, fmt.Errorf("file code %d, want %d", fc, fileCode))
	}

	fileLen := int32(binary.BigEndian.Uint32(buf[24:28]))
	version := int32(binary.LittleEndian.Uint32(buf[28:32]))
	if version != fileVersion {
		return nil, grtserr.New(grtserr.UnsupportedVersion, fmt.Errorf("version %d, want %d", version, fileVersion))
	}

	shapeType := ShapeType(int32(binary.LittleEndian.Uint32(buf[32:36])))
	if !shapeType.Valid() {
		return nil, grtserr.New(grtserr.UnknownShapeType, fmt.Errorf("shape type tag %d", shapeType))
	}

	doubles := make([]float64, 8)
	for i := range doubles {
		bits := binary.LittleEndian.Uint64(buf[36+i*8 : 44+i*8])
		doubles[i] = math.Float64frombits(bits)
	}

	return &Header{
		ShapeType: shapeType,
		Bounds: geom.Bounds{
			Min: geom.Point{X: doubles[0], Y: doubles[1]},
			Max: geom.Point{X: doubles[2], Y: doubles[3]},
		},
		ZRange:     [2]float64{doubles[4], doubles[5]},
		MRange:     [2]float64{doubles[6], doubles[7]},
		FileLength: fileLen,
	}, nil
}

func writeHeader(w io.Writer, h *Header) error {
	var buf [headerBytes]byte
	binary.BigEndian.PutUint32(buf[0:4], fileCode)
	// offset 4..24: five zero words, already zero.
	binary.BigEndian.PutUint32(buf[24:28], uint32(h.FileLength))
	binary.LittleEndian.PutUint32(buf[28:32], fileVersion)
	binary.LittleEndian.PutUint32(buf[32:36], uint32(h.ShapeType))

	doubles := []float64{
		h.Bounds.Min.X, h.Bounds.Min.Y, h.Bounds.Max.X, h.Bounds.Max.Y,
		h.ZRange[0], h.ZRange[1], h.MRange[0], h.MRange[1],
	}
	for i, d := range doubles {
		binary.LittleEndian.PutUint64(buf[36+i*8:44+i*8], math.Float64bits(d))
	}

	_, err := w.Write(buf[:])
	return err
}
