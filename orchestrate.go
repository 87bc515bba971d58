package grts

import (
	"math/rand"

	"github.com/spatialmodel/grts/grtserr"
)

// Run executes job end to end: it unions the matching input
// shapefiles, draws one independent GRTS sample per weight column, and
// writes each panel's points to its own output shapefile/dBASE pair.
// sink receives every non-fatal event encountered while parsing input;
// pass nil to discard them.
func Run(job *Job, sink grtserr.Sink) ([]*PanelResult, error) {
	if sink == nil {
		sink = grtserr.Discard
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	union, err := UnionShapefiles(job.InputShapefiles, job.HashTempFile, job.TempFile, sink)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(job.Seed))

	var results []*PanelResult
	for _, column := range job.WeightColumns {
		weights, err := WeightVector(union.Attrs, column)
		if err != nil {
			return nil, err
		}
		panel, err := RunPanel(column, union.Shapes, weights, job, rng, sink)
		if err != nil {
			return nil, err
		}
		if err := WritePanelResults(job, panel); err != nil {
			return nil, err
		}
		results = append(results, panel)
	}
	return results, nil
}
