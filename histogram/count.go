package histogram

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hi-paris/denslowrank/common"
)

// Count1D bins samples into per-bin counts. Samples outside the grid
// are dropped.
func Count1D(g *Grid, samples []float64) []float64 {
	counts := make([]float64, g.Len())
	for _, x := range samples {
		if c, ok := g.Index(x); ok {
			counts[c]++
		}
	}
	return counts
}

// Count2D bins paired samples (xs[k], ys[k]) into a count matrix of
// shape (g1.Len(), g2.Len()). A pair is counted only when both
// coordinates land on their grids.
func Count2D(g1, g2 *Grid, xs, ys []float64) (*mat.Dense, error) {
	if len(xs) != len(ys) {
		return nil, common.ErrorShapeMismatch
	}

	counts := mat.NewDense(g1.Len(), g2.Len(), nil)
	for k := range xs {
		i, ok1 := g1.Index(xs[k])
		j, ok2 := g2.Index(ys[k])
		if ok1 && ok2 {
			counts.Set(i, j, counts.At(i, j)+1)
		}
	}
	return counts, nil
}
