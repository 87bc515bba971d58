// Package grts is the driver facade: it wires the shpfile, dbf, grid,
// address, and sample packages into the typed operations spec.md §4.8
// names, plus a YAML-loadable Job description, the GRTS analogue of
// the teacher's inmap.VarGridConfig (also loaded from a config file by
// inmaputil/config.go).
package grts

import (
	"fmt"
	"os"

	"github.com/invopop/yaml"
)

// Job describes one GRTS sampling run: an input shapefile (optionally
// a glob matching several files to be unioned), the dBASE columns to
// draw per-record weight panels from, a grid configuration, and where
// to write the selected sample points.
type Job struct {
	// InputShapefiles is a glob pattern (e.g. "counties/*.shp") matched
	// against the working directory; a single literal path is also
	// valid. Every match must agree on shape type and dBASE schema.
	InputShapefiles string `json:"input_shapefiles"`

	// WeightColumns names one or more dBASE numeric columns to draw
	// per-record weight panels from. Each column produces one
	// independent sample draw sharing the same grid, generalizing
	// spec.md's single weight vector the way the teacher's
	// CensusPopColumns generalizes a single population column.
	WeightColumns []string `json:"weight_columns"`

	// SampleSize is the desired number of sample points per weight
	// panel.
	SampleSize int `json:"sample_size"`

	// MaxLevel caps the grid-refinement loop (§4.5).
	MaxLevel int `json:"max_level"`

	// ShiftGrid perturbs the refinement grid by a random sub-cell
	// offset each iteration.
	ShiftGrid bool `json:"shift_grid"`

	// MaxTry bounds the polygon rejection sampler's retry budget.
	// Defaults to 25 when zero.
	MaxTry int `json:"max_try"`

	// Seed seeds the job's RNG for reproducible runs (spec.md §5).
	Seed int64 `json:"seed"`

	// OutputPrefix is the path prefix (without extension) of the output
	// files. Each weight column's sample points and their source record
	// IDs are written to "<prefix>_<column>.shp", "<prefix>_<column>.shx"
	// and "<prefix>_<column>.dbf".
	OutputPrefix string `json:"output_prefix"`

	// TempFile names the fixed temp-file path used by the multi-file
	// union adapter when HashTempFile is false. Defaults to
	// "shapefile1021.temp" to match the documented source default
	// (spec.md §6, §9); kept only for hosts wanting byte-compatible
	// behavior with tools that observe it.
	TempFile string `json:"temp_file"`

	// HashTempFile selects a content-addressed temp-file name (an
	// xxhash of the sorted input filenames) instead of the fixed
	// default, resolving the concurrent-use hazard spec.md §9 flags.
	HashTempFile bool `json:"hash_temp_file"`
}

const defaultTempFile = "shapefile1021.temp"
const defaultMaxTry = 25

// DefaultTempFile and DefaultMaxTry expose the package defaults above
// to callers (e.g. inmaputil's flag registration) that need a default
// value to display in --help output.
const (
	DefaultTempFile = defaultTempFile
	DefaultMaxTry   = defaultMaxTry
)

// LoadJob reads and validates a Job from a YAML file.
func LoadJob(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grts: reading job file: %w", err)
	}
	var j Job
	if err := yaml.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("grts: parsing job file %s: %w", path, err)
	}
	j.applyDefaults()
	return &j, j.Validate()
}

func (j *Job) applyDefaults() {
	if j.MaxTry <= 0 {
		j.MaxTry = defaultMaxTry
	}
	if j.TempFile == "" {
		j.TempFile = defaultTempFile
	}
}

// ApplyDefaults fills in MaxTry and TempFile when unset, the same
// defaulting LoadJob applies to a YAML-loaded Job. Exported so other
// constructors of a Job (e.g. inmaputil's flag-and-config assembly)
// get identical defaulting behavior.
func (j *Job) ApplyDefaults() { j.applyDefaults() }

// Validate checks that Job has enough information to run.
func (j *Job) Validate() error {
	if j.InputShapefiles == "" {
		return fmt.Errorf("grts: job.input_shapefiles must be set")
	}
	if len(j.WeightColumns) == 0 {
		return fmt.Errorf("grts: job.weight_columns must name at least one column")
	}
	if j.SampleSize <= 0 {
		return fmt.Errorf("grts: job.sample_size must be > 0")
	}
	if j.MaxLevel <= 0 {
		return fmt.Errorf("grts: job.max_level must be > 0")
	}
	if j.OutputPrefix == "" {
		return fmt.Errorf("grts: job.output_prefix must be set")
	}
	return nil
}
