// Package grtslog adapts grtserr.Event warnings onto a structured
// github.com/rs/zerolog logger, used in place of the teacher's
// inmaputil msgLog string-channel pattern for leveled, field-structured
// warning records.
package grtslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/spatialmodel/grts/grtserr"
)

// New returns a console-formatted logger writing to w (os.Stderr if w
// is nil), matching the teacher's human-readable log default.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}

// Sink adapts l into a grtserr.Sink: every event is logged at warn
// level with its kind, record number, and source path as fields, and
// input processing continues unaffected, matching the library's
// synchronous, non-cancelling error model (spec.md §5, §7).
func Sink(l zerolog.Logger, path string) grtserr.Sink {
	return func(e grtserr.Event) {
		ev := l.Warn().Str("kind", e.Kind.String()).Str("path", path)
		if e.Record > 0 {
			ev = ev.Int("record", e.Record)
		}
		ev.Msg(e.Msg)
	}
}
