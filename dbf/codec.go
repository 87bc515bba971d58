package dbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/spatialmodel/grts/grtserr"
)

const (
	versionByte    byte = 0x03
	terminatorByte byte = 0x0D
	eofByte        byte = 0x1A
	deletionLive   byte = 0x20
	languageDriver byte = 0x1B
	fieldDescSize       = 32
	headerSize          = 32
)

// Table holds a fully decoded dBASE table: its schema and every row, in
// file order. Large attribute tables are uncommon relative to the
// shapefiles they describe, so unlike shpfile's streaming Reader, dbf
// is read and written as a whole.
type Table struct {
	Schema Schema
	Rows   []Row
}

// ReadTable decodes a complete .dbf file. sink receives a DeletedRecord
// event for every row whose deletion-flag byte is not 0x20; the row is
// still included in the result. Pass nil for sink to use
// grtserr.Discard.
func ReadTable(r io.Reader, sink grtserr.Sink) (*Table, error) {
	if sink == nil {
		sink = grtserr.Discard
	}

	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading dbf header: %w", err))
	}
	if hdr[0] != versionByte {
		return nil, grtserr.New(grtserr.BadMagic, fmt.Errorf("dbf version byte 0x%02x, want 0x%02x", hdr[0], versionByte))
	}
	numRecords := binary.LittleEndian.Uint32(hdr[4:8])
	headerLength := binary.LittleEndian.Uint16(hdr[8:10])
	recordLength := binary.LittleEndian.Uint16(hdr[10:12])

	nfields := (int(headerLength) - headerSize - 1) / fieldDescSize
	if nfields < 0 {
		return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("dbf header length %d too small", headerLength))
	}

	schema := make(Schema, nfields)
	for i := range schema {
		var fd [fieldDescSize]byte
		if _, err := io.ReadFull(r, fd[:]); err != nil {
			return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading field descriptor %d: %w", i, err))
		}
		var nameBytes [11]byte
		copy(nameBytes[:], fd[0:11])
		ft := FieldType(fd[11])
		if !ft.Valid() {
			return nil, grtserr.New(grtserr.BadMagic, fmt.Errorf("dbf field %q has unknown type %q", fieldNameFromBytes(nameBytes), fd[11]))
		}
		schema[i] = Field{
			Name:     fieldNameFromBytes(nameBytes),
			Type:     ft,
			Length:   fd[16],
			Decimals: fd[17],
		}
	}

	var term [1]byte
	if _, err := io.ReadFull(r, term[:]); err != nil {
		return nil, grtserr.New(grtserr.Truncated, fmt.Errorf("reading field descriptor terminator: %w", err))
	}
	if term[0] != terminatorByte {
		return nil, grtserr.New(grtserr.BadMagic, fmt.Errorf("field descriptor terminator 0x%02x, want 0x%02x", term[0], terminatorByte))
	}

	rows := make([]Row, 0, numRecords)
	for i := uint32(0); i < numRecords; i++ {
		row, err := readRow(r, schema, int(recordLength), int(i)+1, sink)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return &Table{Schema: schema, Rows: rows}, nil
}

func readRow(r io.Reader, schema Schema, recordLength, recordNum int, sink grtserr.Sink) (Row, error) {
	buf := make([]byte, recordLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, grtserr.NewRecord(grtserr.Truncated, recordNum, fmt.Errorf("reading dbf row: %w", err))
	}
	if buf[0] != deletionLive {
		sink(grtserr.Event{Kind: grtserr.DeletedRecord, Record: recordNum,
			Msg: fmt.Sprintf("deletion flag 0x%02x", buf[0])})
	}

	row := make(Row, len(schema))
	pos := 1
	for _, f := range schema {
		raw := string(buf[pos : pos+int(f.Length)])
		pos += int(f.Length)
		v, err := parseField(f, raw)
		if err != nil {
			return nil, err
		}
		row[f.Name] = v
	}
	return row, nil
}

// WriteTable encodes schema and rows as a complete .dbf file. Column
// widths are discovered in a first pass over the rendered rows (per
// field, the maximum rendered width, capped at 255), then the header,
// field descriptors, and rows are emitted in a second pass using those
// widths. C values wider than the discovered width are truncated; all
// others are left-justified and space-padded.
func WriteTable(w io.Writer, schema Schema, rows []Row) error {
	widths := make([]int, len(schema))
	rendered := make([][]string, len(rows))
	for i, row := range rows {
		rendered[i] = make([]string, len(schema))
		for j, f := range schema {
			s, err := renderUnpadded(f, row[f.Name])
			if err != nil {
				return err
			}
			if f.Type == FieldChar && len(s) > 255 {
				s = s[:255]
			}
			rendered[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}
	final := make(Schema, len(schema))
	for j, f := range schema {
		width := widths[j]
		if width == 0 {
			width = 1
		}
		if f.Type == FieldChar && width > 255 {
			width = 255
		}
		decimals := f.Decimals
		if f.Type == FieldFloat {
			decimals = 15
		}
		final[j] = Field{Name: f.Name, Type: f.Type, Length: uint8(width), Decimals: decimals}
	}

	recordLength := 1
	for _, f := range final {
		recordLength += int(f.Length)
	}
	headerLength := headerSize + fieldDescSize*len(final) + 1

	if err := writeHeader(w, len(rows), headerLength, recordLength); err != nil {
		return err
	}
	for _, f := range final {
		if err := writeFieldDescriptor(w, f); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte{terminatorByte}); err != nil {
		return err
	}

	for i := range rows {
		if _, err := w.Write([]byte{deletionLive}); err != nil {
			return err
		}
		for j, f := range final {
			if _, err := io.WriteString(w, padRight(rendered[i][j], int(f.Length))); err != nil {
				return err
			}
		}
	}
	_, err := w.Write([]byte{eofByte})
	return err
}

// renderUnpadded renders v per f's type with no width padding or
// truncation, for width-discovery purposes. Padding is applied only
// when rows are emitted, so a genuine trailing space in a C value
// survives the width-discovery pass.
func renderUnpadded(f Field, v interface{}) (string, error) {
	switch f.Type {
	case FieldChar:
		s, _ := v.(string)
		return s, nil
	case FieldNumeric:
		n, ok := asInt(v)
		if !ok {
			return "", fmt.Errorf("dbf: field %q expects an integer, got %T", f.Name, v)
		}
		return fmt.Sprintf("%d", n), nil
	case FieldFloat:
		fv, ok := asFloat(v)
		if !ok {
			return "", fmt.Errorf("dbf: field %q expects a float, got %T", f.Name, v)
		}
		return fmtFloat15(fv), nil
	case FieldLogical:
		switch b := v.(type) {
		case *bool:
			if b == nil {
				return "?", nil
			}
			if *b {
				return "T", nil
			}
			return "F", nil
		case bool:
			if b {
				return "T", nil
			}
			return "F", nil
		case nil:
			return "?", nil
		default:
			return "", fmt.Errorf("dbf: field %q expects a bool, got %T", f.Name, v)
		}
	default:
		return "", fmt.Errorf("dbf: unknown field type %q", f.Type)
	}
}

func writeHeader(w io.Writer, numRecords, headerLength, recordLength int) error {
	var buf [headerSize]byte
	buf[0] = versionByte
	now := time.Now()
	buf[1] = byte(now.Year() - 1900)
	buf[2] = byte(now.Month())
	buf[3] = byte(now.Day())
	binary.LittleEndian.PutUint32(buf[4:8], uint32(numRecords))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(headerLength))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(recordLength))
	buf[29] = languageDriver
	_, err := w.Write(buf[:])
	return err
}

func writeFieldDescriptor(w io.Writer, f Field) error {
	var buf [fieldDescSize]byte
	name := nameToBytes(f.Name)
	copy(buf[0:11], name[:])
	buf[11] = byte(f.Type)
	buf[16] = f.Length
	buf[17] = f.Decimals
	_, err := w.Write(buf[:])
	return err
}

// CheckSchemas validates that every schema in schemas is compatible with
// the first (field count and names), returning a SchemaMismatch error
// naming the first disagreement if not.
func CheckSchemas(schemas []Schema) error {
	if len(schemas) == 0 {
		return nil
	}
	first := schemas[0]
	for i, s := range schemas[1:] {
		if !SchemaMatch(first, s) {
			return grtserr.New(grtserr.SchemaMismatch, fmt.Errorf("table %d schema disagrees with table 0", i+1))
		}
	}
	return nil
}

// Concat merges tables sharing a compatible schema into one, reassigning
// record numbers densely (callers read Rows in order; row identity is
// positional, not a stored field).
func Concat(tables []*Table) (*Table, error) {
	schemas := make([]Schema, len(tables))
	for i, t := range tables {
		schemas[i] = t.Schema
	}
	if err := CheckSchemas(schemas); err != nil {
		return nil, err
	}
	out := &Table{Schema: tables[0].Schema}
	for _, t := range tables {
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}
