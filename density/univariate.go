package density

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/hi-paris/denslowrank/common"
	"github.com/hi-paris/denslowrank/histogram"
	"github.com/hi-paris/denslowrank/model"
	"github.com/hi-paris/denslowrank/utils"
)

type UnivariateKind int

const (
	// KindUniform is the narrow-calibration-range fallback: a constant
	// density over the calibration range.
	KindUniform UnivariateKind = iota + 1
	// KindBinned is the adaptive piecewise-constant estimate.
	KindBinned
)

// Univariate is a fitted one-dimensional density estimate. It is
// immutable after FitUnivariate returns; Eval may be called
// repeatedly and concurrently.
type Univariate struct {
	Kind UnivariateKind

	// Min and Max are the calibration-slice range.
	Min float64
	Max float64

	// Grid and Counts are set for KindBinned only.
	Grid   *histogram.Grid
	Counts []float64

	correctBounds bool
	cdf           []model.Cdf
}

// FitUnivariate estimates a density from the sample sequence Z. The
// first half of Z calibrates the support; the samples after position
// len(Z)/2+1 populate the bins (the boundary sample belongs to
// neither slice). When the calibration range is narrower than
// n^{-1/3}*L^{-1/2} the estimate degenerates to a uniform density
// over that range.
//
// The uniform density historically guards its support with the
// reversed test x <= Min && x >= Max, which only ever matches when
// the calibration range is a single point; cfg.CorrectNarrowBounds
// replaces it with the ordinary Min <= x <= Max test.
func FitUnivariate(ctx context.Context, Z []float64, cfg model.Config) (*Univariate, error) {
	logger := utils.GetLogger(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(Z)
	if n/2 == 0 {
		logger.Error("univariate fit needs a non-empty calibration slice", zap.Int("n", n))
		return nil, common.ErrorDegenerateInput
	}

	calib := Z[:n/2]
	r := floats.Min(calib)
	R := floats.Max(calib)

	if R-r < math.Pow(float64(n), -1.0/3.0)/math.Sqrt(cfg.L) {
		logger.Info("calibration range too narrow, falling back to uniform density",
			zap.Float64("min", r), zap.Float64("max", R), zap.Int("n", n))
		return &Univariate{
			Kind:          KindUniform,
			Min:           r,
			Max:           R,
			correctBounds: cfg.CorrectNarrowBounds,
		}, nil
	}

	grid, err := histogram.NewGrid(r, R, n, cfg.L)
	if err != nil {
		logger.Error("bin grid construction failed", zap.Error(err),
			zap.Float64("min", r), zap.Float64("max", R))
		return nil, err
	}

	return &Univariate{
		Kind:   KindBinned,
		Min:    r,
		Max:    R,
		Grid:   grid,
		Counts: histogram.Count1D(grid, Z[n/2+1:]),
	}, nil
}

// Eval returns the estimated density at x.
func (u *Univariate) Eval(x float64) float64 {
	switch u.Kind {
	case KindUniform:
		if u.correctBounds {
			if x >= u.Min && x <= u.Max {
				return 1 / (u.Max - u.Min)
			}
			return 0
		}
		if x <= u.Min && x >= u.Max {
			return 1 / (u.Max - u.Min)
		}
		return 0
	case KindBinned:
		c, ok := u.Grid.Index(x)
		if !ok {
			return 0
		}
		return u.Counts[c] / u.Grid.Width()
	}
	return 0
}

// Curve samples the density at the given points.
func (u *Univariate) Curve(xs []float64) []model.Density {
	res := make([]model.Density, 0, len(xs))
	for _, x := range xs {
		res = append(res, model.Density{X: x, Value: u.Eval(x)})
	}
	return res
}

// Cdf returns the cumulative distribution at the upper edge of each
// bin, scaled so the final value is 1 whenever the estimate carries
// any mass. The result is computed once and cached.
func (u *Univariate) Cdf() []model.Cdf {
	if u.cdf != nil {
		return u.cdf
	}

	res := []model.Cdf{}
	var cum float64
	switch u.Kind {
	case KindUniform:
		cum = quad.Fixed(u.Eval, u.Min, u.Max, 50, nil, 0)
		res = append(res, model.Cdf{X: u.Max, Value: cum})
	case KindBinned:
		for c := 0; c < u.Grid.Len(); c++ {
			cum += quad.Fixed(u.Eval, u.Grid.Lower(c), u.Grid.Upper(c), 50, nil, 0)
			res = append(res, model.Cdf{X: u.Grid.Upper(c), Value: cum})
		}
	}

	if cum > 0 {
		for i := range res {
			res[i].Value /= cum
		}
	}

	u.cdf = res
	return res
}

// Quantile inverts the Cdf by linear interpolation, clamping at the
// grid ends.
func (u *Univariate) Quantile(p float64) (*model.QuantileValue, error) {
	cdf := u.Cdf()
	if len(cdf) == 0 || cdf[len(cdf)-1].Value == 0 {
		return nil, common.ErrorDegenerateInput
	}

	if p <= cdf[0].Value {
		return &model.QuantileValue{Quantile: p, Value: cdf[0].X}, nil
	}
	if p >= cdf[len(cdf)-1].Value {
		return &model.QuantileValue{Quantile: p, Value: cdf[len(cdf)-1].X}, nil
	}

	for i := 1; i < len(cdf); i++ {
		if cdf[i].Value > p {
			lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
			upperX, upperP := cdf[i].X, cdf[i].Value
			value := lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP)
			return &model.QuantileValue{Quantile: p, Value: value}, nil
		}
	}
	return &model.QuantileValue{Quantile: p, Value: cdf[len(cdf)-1].X}, nil
}
