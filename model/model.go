package model

import (
	"github.com/hi-paris/denslowrank/common"
)

// Config bundles the tuning constants of the estimation pipeline.
// All float constants must be positive; the caller picks them,
// the estimators only validate and consume them.
type Config struct {
	// Alpha scales the per-block energy cutoff.
	Alpha float64
	// L is the smoothness constant used to size bins.
	L float64
	// C scales the reference bandwidth reported by the bivariate
	// estimator.
	C float64
	// Cbar is the absolute constant of the energy test.
	Cbar float64
	// Cstar scales the singular value threshold.
	Cstar float64

	// CorrectNarrowBounds switches the narrow-range uniform density
	// from the historical bound test (x <= min and x >= max, only
	// satisfiable on a single-point range) to the ordinary
	// min <= x <= max test.
	CorrectNarrowBounds bool

	// Workers is the number of goroutines used for the per-block
	// SVD computations. Values below 2 keep the serial path.
	Workers int
}

func (c Config) Validate() error {
	if c.Alpha <= 0 || c.L <= 0 || c.C <= 0 || c.Cbar <= 0 || c.Cstar <= 0 {
		return common.ErrorInvalidValue
	}
	return nil
}

// Density is one sample point of a univariate density curve.
type Density struct {
	X     float64
	Value float64
}

// Density2D is one sample point of a bivariate density surface.
type Density2D struct {
	X     float64
	Y     float64
	Value float64
}

type Cdf struct {
	X     float64
	Value float64
}

type QuantileValue struct {
	Value    float64 `json:"v,omitempty"`
	Quantile float64 `json:"q,omitempty"`
}
