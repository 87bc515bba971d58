package grid

import (
	"math"
	"math/rand"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config parameterizes the grid-refinement loop of §4.5.
type Config struct {
	BBox *geom.Bounds
	// NSamples is the desired sample size n.
	NSamples int
	// ShiftGrid, when true, perturbs every cell corner by an
	// independent U[0,dx) / U[0,dy) offset each iteration.
	ShiftGrid bool
	// StartLevel overrides the default starting level
	// ceil(log4(NSamples)) (minimum 1). Zero means use the default.
	StartLevel int
	// MaxLevel caps how many refinement levels are attempted.
	MaxLevel int
	// Rand supplies randomness for the grid shift; required only when
	// ShiftGrid is true.
	Rand *rand.Rand
}

// Result is the grid state num_levels converged on.
type Result struct {
	Level   int
	Dx, Dy  float64
	Xc, Yc  []float64
	Weights []float64
	Sint    float64
	// Stalled is true if the loop terminated because the maximum cell
	// weight was unchanged for two consecutive iterations, rather than
	// because every cell's weight/sint ratio dropped to <= 1.
	Stalled bool
}

func startLevel(cfg Config) int {
	if cfg.StartLevel > 0 {
		return cfg.StartLevel
	}
	lev := int(math.Ceil(math.Log(float64(cfg.NSamples)) / math.Log(4)))
	if lev < 1 {
		lev = 1
	}
	return lev
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

func anyOverThreshold(weights []float64, sint, threshold float64) bool {
	for _, w := range weights {
		if w/sint > threshold {
			return true
		}
	}
	return false
}

// NumLevels runs the iterative grid-refinement loop: at each level k it
// builds a (2^k+1)^2 grid of cell corners over the 1.08x-expanded
// bounding box, evaluates weigh at every cell, and either terminates or
// advances to a higher level per §4.5's stall and threshold rules.
func NumLevels(cfg Config, weigh Weigher) *Result {
	ext := math.Max(cfg.BBox.Max.X-cfg.BBox.Min.X, cfg.BBox.Max.Y-cfg.BBox.Min.Y)
	gridXMin, gridYMin := cfg.BBox.Min.X, cfg.BBox.Min.Y
	gridXMax := gridXMin + ext*1.08
	gridYMax := gridYMin + ext*1.08

	nlev := startLevel(cfg)
	if nlev > cfg.MaxLevel {
		nlev = cfg.MaxLevel
	}

	weights := []float64{99999.0}
	sint := 1.0
	stallCount := 0
	level := nlev

	var dx, dy float64
	var xc, yc []float64

	for anyOverThreshold(weights, sint, 1.0) && stallCount < 2 && nlev <= cfg.MaxLevel {
		level = nlev
		prevMax := maxOf(weights)

		size := 1 << uint(nlev)
		n := size + 1
		dx = ext * 1.08 / float64(size)
		dy = ext * 1.08 / float64(size)

		tempXc := seq(gridXMin, gridXMax, n)
		tempYc := seq(gridYMin, gridYMax, n)

		var offX, offY float64
		if cfg.ShiftGrid {
			offX = distuv.Uniform{Min: 0, Max: dx, Src: cfg.Rand}.Rand()
			offY = distuv.Uniform{Min: 0, Max: dy, Src: cfg.Rand}.Rand()
		}

		count := n * n
		xc = make([]float64, count)
		yc = make([]float64, count)
		weights = make([]float64, count)
		for i := 0; i < count; i++ {
			col := i % n
			row := i / n
			xc[i] = tempXc[col] + offX
			yc[i] = tempYc[row] + offY
			cell := &geom.Bounds{
				Min: geom.Point{X: xc[i] - dx, Y: yc[i] - dy},
				Max: geom.Point{X: xc[i], Y: yc[i]},
			}
			weights[i] = weigh(cell)
		}

		sint = floats.Sum(weights) / float64(cfg.NSamples)

		if maxOf(weights) == prevMax {
			stallCount++
		} else {
			stallCount = 0
		}

		inc := 1
		if nlev < cfg.MaxLevel-1 {
			for _, w := range weights {
				if w > 0 {
					lev := int(math.Ceil(math.Log(w/sint) / math.Log(4)))
					if lev > inc {
						inc = lev
					}
				}
			}
			if nlev+inc > cfg.MaxLevel {
				inc = cfg.MaxLevel - nlev
			}
		}
		nlev += inc
	}

	return &Result{
		Level:   level,
		Dx:      dx,
		Dy:      dy,
		Xc:      xc,
		Yc:      yc,
		Weights: weights,
		Sint:    sint,
		Stalled: stallCount >= 2,
	}
}

func seq(min, max float64, length int) []float64 {
	out := make([]float64, length)
	if length == 1 {
		out[0] = min
		return out
	}
	inc := (max - min) / float64(length-1)
	out[0] = min
	for i := 1; i < length; i++ {
		out[i] = out[i-1] + inc
	}
	return out
}
