package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

// DefaultMaxError is the tolerance accepted for beta CDF evaluation.
const DefaultMaxError = 1e-10

var (
	// ErrInvalidShape is returned when a beta shape parameter is not positive.
	ErrInvalidShape = errors.New("beta shape parameters must be positive")

	// ErrInvalidProbability is returned when x lies outside [0, 1].
	ErrInvalidProbability = errors.New("x must be within [0, 1]")

	// ErrInvalidTolerance is returned when the requested maximum error is not positive.
	ErrInvalidTolerance = errors.New("maximum error must be positive")
)

// BetaCDF returns the regularized incomplete beta function I_x(a, b), the
// probability that the a-th smallest of a+b-1 independent U(0,1) draws is <= x.
// maxError is the largest absolute error the caller accepts. Invalid
// arguments are rejected with the sentinel errors before evaluation.
func BetaCDF(a, b, x, maxError float64) (float64, error) {
	if !(a > 0) || !(b > 0) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, fmt.Errorf("%w: a=%g b=%g", ErrInvalidShape, a, b)
	}
	if !(x >= 0 && x <= 1) {
		return 0, fmt.Errorf("%w: x=%g", ErrInvalidProbability, x)
	}
	if !(maxError > 0) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidTolerance, maxError)
	}

	switch x {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return clamp01(mathext.RegIncBeta(a, b, x)), nil
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
