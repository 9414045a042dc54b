package histogram

import (
	"math"

	"github.com/hi-paris/denslowrank/common"
)

// Grid is an adaptive bin grid over one axis. Bin edges are anchored
// at the calibration lower bound r, padded left towards 0 and right
// past max(R, 1) so that every calibration-range sample maps to
// exactly one half-open bin.
type Grid struct {
	origin  float64
	width   float64
	offsets []int
}

// NewGrid derives the bin width H = (R-r)/⌊(R-r)·n^{1/3}·L^{1/2}⌋ and
// the instantiated bin offsets. A floor of zero means the sample
// spread is too small for the configured smoothness constant and
// fails with ErrorInvalidBandwidth.
func NewGrid(r, R float64, n int, L float64) (*Grid, error) {
	if n <= 0 || L <= 0 || math.IsNaN(r) || math.IsNaN(R) ||
		math.IsInf(r, 0) || math.IsInf(R, 0) || R < r {
		return nil, common.ErrorInvalidBandwidth
	}

	span := R - r
	k := math.Floor(span * math.Cbrt(float64(n)) * math.Sqrt(L))
	if k < 1 {
		return nil, common.ErrorInvalidBandwidth
	}
	h := span / k

	lo := -int(math.Floor(r / h))
	top := math.Max(1, R)
	hi := int(math.Ceil((top-r)/h - 1))
	if hi < lo {
		return nil, common.ErrorInvalidBandwidth
	}

	offsets := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		offsets = append(offsets, i)
	}

	return &Grid{origin: r, width: h, offsets: offsets}, nil
}

func (g *Grid) Len() int {
	return len(g.offsets)
}

func (g *Grid) Width() float64 {
	return g.width
}

func (g *Grid) Origin() float64 {
	return g.origin
}

// Lower returns the inclusive lower edge of bin c.
func (g *Grid) Lower(c int) float64 {
	return g.origin + float64(g.offsets[c])*g.width
}

// Upper returns the exclusive upper edge of bin c.
func (g *Grid) Upper(c int) float64 {
	return g.origin + float64(g.offsets[c]+1)*g.width
}

// Index locates the bin containing x by linear scan over the offset
// list. The second return is false when x falls outside the grid.
func (g *Grid) Index(x float64) (int, bool) {
	for c := range g.offsets {
		if x >= g.Lower(c) && x < g.Upper(c) {
			return c, true
		}
	}
	return 0, false
}
