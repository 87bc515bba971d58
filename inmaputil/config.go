// Package inmaputil holds the configuration and CLI scaffolding for the
// grts command-line tool: a Cfg wrapping a github.com/lnashier/viper
// configuration (file-, env-var-, and flag-backed, per the teacher's
// own Cfg in spatialmodel/inmap/inmaputil/config.go) plus the
// github.com/spf13/cobra command tree that reads it into a grts.Job.
//
// The teacher's inmaputil covers an entire air-quality-model run
// (preprocessing, steady-state solving, source-receptor matrices, a
// cloud launcher, a web GUI). None of that is GRTS's concern, so this
// package keeps only the option-registration and config-file-loading
// machinery and points it at grts.Job's fields instead of
// inmap.VarGridConfig's.
package inmaputil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/grts"
)

// Cfg holds configuration information for the grts command-line tool.
type Cfg struct {
	*viper.Viper

	// inputFiles holds the names of the configuration options that are
	// input files.
	inputFiles []string

	// outputFiles holds the names of the configuration options that are
	// output files.
	outputFiles []string
}

// InputFiles returns the names of the configuration options that are
// input files.
func (cfg *Cfg) InputFiles() []string { return cfg.inputFiles }

// OutputFiles returns the names of the configuration options that are
// output files.
func (cfg *Cfg) OutputFiles() []string { return cfg.outputFiles }

// option describes one configuration variable: its name (used as both
// the flag name and the viper key, dotted where it groups under
// "job."), a default value whose Go type selects which pflag
// registration method to use, and whether it names an input or output
// file (so callers can, e.g., resolve relative paths or expand
// environment variables uniformly).
var options = []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	isInputFile            bool
	isOutputFile           bool
}{
	{name: "job.input_shapefiles", usage: "glob pattern (or literal path) naming the input shapefile(s) to sample from", defaultVal: "", isInputFile: true},
	{name: "job.weight_columns", usage: "dBASE column(s) to draw per-record weight panels from", defaultVal: []string{}},
	{name: "job.sample_size", usage: "desired number of sample points per weight panel", defaultVal: 0},
	{name: "job.max_level", usage: "maximum grid-refinement level", defaultVal: 0},
	{name: "job.shift_grid", usage: "perturb the refinement grid by a random sub-cell offset each iteration", defaultVal: false},
	{name: "job.max_try", usage: "polygon rejection-sampler retry budget", defaultVal: grts.DefaultMaxTry},
	{name: "job.seed", usage: "RNG seed for reproducible runs", defaultVal: int64(0)},
	{name: "job.output_prefix", usage: "output shapefile/dBASE pair prefix (without extension)", defaultVal: "", isOutputFile: true},
	{name: "job.temp_file", usage: "fixed temp-file name used by the multi-file union adapter", defaultVal: grts.DefaultTempFile},
	{name: "job.hash_temp_file", usage: "use a content-addressed temp-file name instead of job.temp_file", defaultVal: false},
}

// InitializeConfig returns a Cfg with every option above registered on
// set as a persistent flag and bound into the viper configuration, the
// same BindPFlag discipline the teacher's InitializeConfig uses.
func InitializeConfig(set *pflag.FlagSet) *Cfg {
	cfg := &Cfg{Viper: viper.New()}
	cfg.SetEnvPrefix("GRTS")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	for _, o := range options {
		if o.isInputFile {
			cfg.inputFiles = append(cfg.inputFiles, o.name)
		}
		if o.isOutputFile {
			cfg.outputFiles = append(cfg.outputFiles, o.name)
		}
		registerFlag(set, o.name, o.shorthand, o.usage, o.defaultVal)
		if err := cfg.BindPFlag(o.name, set.Lookup(o.name)); err != nil {
			panic(fmt.Errorf("inmaputil: binding flag %q: %w", o.name, err))
		}
	}
	return cfg
}

func registerFlag(set *pflag.FlagSet, name, shorthand, usage string, defaultVal interface{}) {
	switch v := defaultVal.(type) {
	case string:
		if shorthand == "" {
			set.String(name, v, usage)
		} else {
			set.StringP(name, shorthand, v, usage)
		}
	case []string:
		if shorthand == "" {
			set.StringSlice(name, v, usage)
		} else {
			set.StringSliceP(name, shorthand, v, usage)
		}
	case bool:
		if shorthand == "" {
			set.Bool(name, v, usage)
		} else {
			set.BoolP(name, shorthand, v, usage)
		}
	case int:
		if shorthand == "" {
			set.Int(name, v, usage)
		} else {
			set.IntP(name, shorthand, v, usage)
		}
	case int64:
		if shorthand == "" {
			set.Int64(name, v, usage)
		} else {
			set.Int64P(name, shorthand, v, usage)
		}
	default:
		panic(fmt.Errorf("inmaputil: unsupported option default type %T", defaultVal))
	}
}

// setConfig finds and reads in the configuration file named by the
// "config" flag, if one was given.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("grts: problem reading configuration file: %w", err)
		}
	}
	return nil
}

// JobFromConfig builds a grts.Job from cfg's current values (job file,
// flags, and GRTS_-prefixed environment variables, in viper's usual
// override order), the GRTS analogue of the teacher's VarGridConfig
// function that unmarshals a viper configuration into an
// inmap.VarGridConfig.
func JobFromConfig(cfg *Cfg) (*grts.Job, error) {
	j := &grts.Job{
		InputShapefiles: expandEnv(cfg.GetString("job.input_shapefiles")),
		WeightColumns:   expandEnvSlice(cfg.GetStringSlice("job.weight_columns")),
		SampleSize:      cfg.GetInt("job.sample_size"),
		MaxLevel:        cfg.GetInt("job.max_level"),
		ShiftGrid:       cfg.GetBool("job.shift_grid"),
		MaxTry:          cfg.GetInt("job.max_try"),
		Seed:            cfg.GetInt64("job.seed"),
		OutputPrefix:    expandEnv(cfg.GetString("job.output_prefix")),
		TempFile:        cfg.GetString("job.temp_file"),
		HashTempFile:    cfg.GetBool("job.hash_temp_file"),
	}
	j.ApplyDefaults()
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

func expandEnv(s string) string { return os.ExpandEnv(s) }

func expandEnvSlice(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = os.ExpandEnv(v)
	}
	return out
}
