package common

import "errors"

var (
	// ErrorInvalidValue covers bad caller-supplied values, like a
	// non-positive constant in the configuration bundle.
	ErrorInvalidValue = errors.New("invalid value")

	// ErrorInvalidBandwidth means the derived bin width is zero or not
	// finite, usually because the sample spread is too small for the
	// configured smoothness constant.
	ErrorInvalidBandwidth = errors.New("invalid bandwidth")

	// ErrorDegenerateInput means the input carries no usable mass:
	// an empty calibration slice, or an all-zero matrix at
	// normalization time.
	ErrorDegenerateInput = errors.New("degenerate input")

	// ErrorShapeMismatch means two inputs that must share dimensions
	// do not.
	ErrorShapeMismatch = errors.New("shape mismatch")
)
