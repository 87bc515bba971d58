package dbf

import (
	"bytes"
	"testing"

	"github.com/spatialmodel/grts/grtserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	schema := Schema{
		{Name: "NAME", Type: FieldChar},
		{Name: "N", Type: FieldNumeric},
		{Name: "AREA", Type: FieldFloat},
		{Name: "OK", Type: FieldLogical},
	}
	trueVal := true
	falseVal := false
	rows := []Row{
		{"NAME": "alpha", "N": int64(7), "AREA": 1.5, "OK": &trueVal},
		{"NAME": "b", "N": int64(-3), "AREA": 0.125, "OK": &falseVal},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, schema, rows))

	table, err := ReadTable(&buf, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "alpha", table.Rows[0]["NAME"])
	assert.Equal(t, int64(7), table.Rows[0]["N"])
	assert.Equal(t, int64(-3), table.Rows[1]["N"])

	ok0, _ := table.Rows[0]["OK"].(*bool)
	if assert.NotNil(t, ok0) {
		assert.True(t, *ok0)
	}
}

// Column width discovery must use the longest rendered value across all
// rows, not the first row.
func TestColumnWidthDiscovery(t *testing.T) {
	schema := Schema{{Name: "NAME", Type: FieldChar}}
	rows := []Row{
		{"NAME": "a"},
		{"NAME": "a much longer name"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, schema, rows))

	table, err := ReadTable(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "a much longer name", table.Rows[1]["NAME"])
}

func TestDeletedRecordWarning(t *testing.T) {
	schema := Schema{{Name: "N", Type: FieldNumeric}}
	rows := []Row{{"N": int64(1)}}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, schema, rows))

	raw := buf.Bytes()
	// Flip the first row's deletion-flag byte (right after the header,
	// field descriptor, and terminator).
	headerLen := headerSize + fieldDescSize*len(schema) + 1
	raw[headerLen] = '*'

	var warned bool
	sink := func(e grtserr.Event) {
		if e.Kind == grtserr.DeletedRecord {
			warned = true
		}
	}
	table, err := ReadTable(bytes.NewReader(raw), sink)
	require.NoError(t, err)
	assert.True(t, warned, "expected DeletedRecord warning")
	assert.Len(t, table.Rows, 1, "deleted row should still be returned")
}

func TestSchemaMismatchOnConcat(t *testing.T) {
	a := &Table{Schema: Schema{{Name: "N", Type: FieldNumeric}}}
	b := &Table{Schema: Schema{{Name: "M", Type: FieldNumeric}}}
	_, err := Concat([]*Table{a, b})
	ge, ok := err.(*grtserr.Error)
	require.True(t, ok, "expected *grtserr.Error")
	assert.Equal(t, grtserr.SchemaMismatch, ge.Kind)
}
