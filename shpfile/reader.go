package shpfile

import (
	"fmt"
	"io"

	"github.com/spatialmodel/grts/grtserr"
)

// Reader streams records out of a .shp file one at a time, the same
// discipline the teacher's readers use for large raster and NetCDF
// inputs rather than materializing the whole file up front.
type Reader struct {
	r         io.Reader
	Header    *Header
	WarnSink  grtserr.Sink
	nextNum   int32
	bytesRead int64
}

// NewReader reads the 100-byte file header from r and returns a Reader
// positioned at the first record. WarnSink receives non-fatal events
// (such as InconsistentBox) encountered while decoding; pass nil to use
// grtserr.Discard.
func NewReader(r io.Reader, sink grtserr.Sink) (*Reader, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = grtserr.Discard
	}
	return &Reader{r: r, Header: h, WarnSink: sink, nextNum: 1, bytesRead: headerBytes}, nil
}

// Next reads and returns the next record, or io.EOF when the file is
// exhausted. A record whose stored bounding box does not contain its
// own vertices is repaired in place (Bounds() always reflects the true
// vertex extent) and reported through WarnSink rather than failing.
func (rd *Reader) Next() (*Record, error) {
	number, contentWords, err := decodeRecordHeader(rd.r)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading record header: %w", err))
	}
	if number != rd.nextNum {
		rd.WarnSink(grtserr.Event{Kind: grtserr.InvalidGeometry, Record: int(number),
			Msg: fmt.Sprintf("out-of-sequence record number, want %d", rd.nextNum)})
	}

	rec, err := decodeRecordBody(rd.r, number)
	rd.nextNum = number + 1
	rd.bytesRead += recHeaderSize + int64(contentWords)*wordBytes

	if rec != nil && err != nil {
		if ge, ok := err.(*grtserr.Error); ok && ge.Kind == grtserr.InconsistentBox {
			rd.WarnSink(grtserr.Event{Kind: ge.Kind, Record: ge.Record, Msg: ge.Error()})
			return rec, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadAll reads every remaining record into memory. It is a convenience
// wrapper; callers processing large files should prefer Next in a loop.
func (rd *Reader) ReadAll() ([]*Record, error) {
	var recs []*Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// ReadShxOffsets parses a .shx index file into (offset, contentLength)
// pairs, both big-endian 32-bit words counted in 16-bit words from the
// start of the .shp file, one pair per record in file order.
func ReadShxOffsets(r io.Reader) ([][2]int32, error) {
	if _, err := readHeader(r); err != nil {
		return nil, err
	}
	var offsets [][2]int32
	for {
		pair, err := readBEInt32s(r, 2)
		if err == io.EOF {
			return offsets, nil
		}
		if err != nil {
			return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading shx entry: %w", err))
		}
		offsets = append(offsets, [2]int32{pair[0], pair[1]})
	}
}
