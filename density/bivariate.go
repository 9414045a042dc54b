package density

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hi-paris/denslowrank/common"
	"github.com/hi-paris/denslowrank/histogram"
	"github.com/hi-paris/denslowrank/lowrank"
	"github.com/hi-paris/denslowrank/model"
	"github.com/hi-paris/denslowrank/utils"
)

type BivariateKind int

const (
	// KindDelegateAxis1 means axis 1 degenerated during calibration
	// and the estimate is a univariate fit on axis 2, rescaled.
	KindDelegateAxis1 BivariateKind = iota + 1
	// KindDelegateAxis2 is the symmetric case.
	KindDelegateAxis2
	// KindLowRank is the general two-dimensional low-rank estimate.
	KindLowRank
)

// Bivariate is a fitted two-dimensional density estimate, a tagged
// variant over the three construction outcomes. Eval dispatches on
// Kind; only the fields of the active variant are set.
type Bivariate struct {
	Kind BivariateKind

	// Min1/Max1 and Min2/Max2 are the per-axis calibration ranges.
	// The second axis range is left zero when axis 1 delegates before
	// it is ever calibrated.
	Min1, Max1 float64
	Min2, Max2 float64

	// Marginal is the delegated univariate estimate (delegate kinds).
	Marginal *Univariate

	// Grid1, Grid2 and Prob hold the fitted grid and normalized
	// probability matrix (KindLowRank).
	Grid1 *histogram.Grid
	Grid2 *histogram.Grid
	Prob  *mat.Dense

	// Bandwidth is the reference bandwidth C/(n^{-1/3}*sqrt(L)).
	// The low-rank variant derives its cell sizes from the grids
	// instead; it is reported for delegating consumers that want the
	// scale.
	Bandwidth float64
}

// FitBivariate estimates a joint density from the paired sample
// sequences xs, ys. The first half of the samples calibrates the
// per-axis supports. An axis whose calibration range is narrower than
// n^{1/3}*L^{-1/2} is treated as degenerate and the fit delegates to
// FitUnivariate on the other axis. Otherwise the remaining samples
// are split into two positional quarters, binned into two independent
// histograms over an adaptive grid, and denoised by
// lowrank.Estimate.
func FitBivariate(ctx context.Context, xs, ys []float64, cfg model.Config) (est *Bivariate, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("FitBivariate recover panic error!", zap.Any("err", rec),
				zap.String("panic info", utils.GetPanicInfo()))
			est, err = nil, common.ErrorInvalidValue
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		logger.Error("sample sequences differ in length",
			zap.Int("xs", len(xs)), zap.Int("ys", len(ys)))
		return nil, common.ErrorShapeMismatch
	}

	n := len(xs)
	if n/2 == 0 {
		return nil, common.ErrorDegenerateInput
	}

	bw := cfg.C / (math.Pow(float64(n), -1.0/3.0) * math.Sqrt(cfg.L))
	narrow := math.Cbrt(float64(n)) / math.Sqrt(cfg.L)

	calib1 := xs[:n/2]
	r1 := floats.Min(calib1)
	R1 := floats.Max(calib1)
	logger.Info("axis 1 calibration",
		zap.Float64("min", r1), zap.Float64("max", R1),
		zap.Float64("mean", utils.FormatFloat(stat.Mean(calib1, nil), 3)),
		zap.Float64("stddev", utils.FormatFloat(stat.StdDev(calib1, nil), 3)))

	if R1-r1 < narrow {
		logger.Info("axis 1 degenerate, delegating to univariate fit on axis 2")
		g, err := FitUnivariate(ctx, ys[n/2+1:], cfg)
		if err != nil {
			return nil, err
		}
		return &Bivariate{
			Kind:      KindDelegateAxis1,
			Min1:      r1,
			Max1:      R1,
			Marginal:  g,
			Bandwidth: bw,
		}, nil
	}

	calib2 := ys[:n/2]
	r2 := floats.Min(calib2)
	R2 := floats.Max(calib2)
	logger.Info("axis 2 calibration",
		zap.Float64("min", r2), zap.Float64("max", R2),
		zap.Float64("mean", utils.FormatFloat(stat.Mean(calib2, nil), 3)),
		zap.Float64("stddev", utils.FormatFloat(stat.StdDev(calib2, nil), 3)))

	if R2-r2 < narrow {
		logger.Info("axis 2 degenerate, delegating to univariate fit on axis 1")
		g, err := FitUnivariate(ctx, xs[n/2+1:], cfg)
		if err != nil {
			return nil, err
		}
		return &Bivariate{
			Kind:      KindDelegateAxis2,
			Min1:      r1,
			Max1:      R1,
			Min2:      r2,
			Max2:      R2,
			Marginal:  g,
			Bandwidth: bw,
		}, nil
	}

	grid1, err := histogram.NewGrid(r1, R1, n, cfg.L)
	if err != nil {
		return nil, err
	}
	grid2, err := histogram.NewGrid(r2, R2, n, cfg.L)
	if err != nil {
		return nil, err
	}

	if n/2+1 > 3*n/4 {
		return nil, common.ErrorDegenerateInput
	}

	N1, err := normalizedCounts(grid1, grid2, xs[n/2+1:3*n/4], ys[n/2+1:3*n/4])
	if err != nil {
		logger.Error("first training quarter carries no on-grid mass", zap.Error(err))
		return nil, err
	}
	N2, err := normalizedCounts(grid1, grid2, xs[3*n/4:], ys[3*n/4:])
	if err != nil {
		logger.Error("second training quarter carries no on-grid mass", zap.Error(err))
		return nil, err
	}

	P, err := lowrank.Estimate(n/2, max(grid1.Len(), grid2.Len()), N1, N2, cfg)
	if err != nil {
		logger.Error("low-rank block estimation failed", zap.Error(err))
		return nil, err
	}

	logger.Info("low-rank fit complete",
		zap.Int("d1", grid1.Len()), zap.Int("d2", grid2.Len()))

	return &Bivariate{
		Kind:      KindLowRank,
		Min1:      r1,
		Max1:      R1,
		Min2:      r2,
		Max2:      R2,
		Grid1:     grid1,
		Grid2:     grid2,
		Prob:      P,
		Bandwidth: bw,
	}, nil
}

// normalizedCounts bins one training quarter and scales the counts to
// a frequency matrix summing to 1, the empirical probability estimate
// the block estimator expects.
func normalizedCounts(g1, g2 *histogram.Grid, xs, ys []float64) (*mat.Dense, error) {
	counts, err := histogram.Count2D(g1, g2, xs, ys)
	if err != nil {
		return nil, err
	}
	total := floats.Sum(counts.RawMatrix().Data)
	if total == 0 {
		return nil, common.ErrorDegenerateInput
	}
	counts.Scale(1/total, counts)
	return counts, nil
}

// Eval returns the estimated density at (x, y).
func (b *Bivariate) Eval(x, y float64) float64 {
	switch b.Kind {
	case KindDelegateAxis1:
		if x >= b.Min1 && x <= b.Max1 {
			return b.Marginal.Eval(y) / (b.Max1 - b.Min1)
		}
		return 0
	case KindDelegateAxis2:
		if y >= b.Min2 && y <= b.Max2 {
			return b.Marginal.Eval(x) / (b.Max2 - b.Min2)
		}
		return 0
	case KindLowRank:
		c1, ok1 := b.Grid1.Index(x)
		c2, ok2 := b.Grid2.Index(y)
		if !ok1 || !ok2 {
			return 0
		}
		return b.Prob.At(c1, c2) / (b.Grid1.Width() * b.Grid2.Width())
	}
	return 0
}

// EvalGrid samples the density surface over the cartesian product of
// the given axis points.
func (b *Bivariate) EvalGrid(xs, ys []float64) []model.Density2D {
	res := make([]model.Density2D, 0, len(xs)*len(ys))
	for _, x := range xs {
		for _, y := range ys {
			res = append(res, model.Density2D{X: x, Y: y, Value: b.Eval(x, y)})
		}
	}
	return res
}
