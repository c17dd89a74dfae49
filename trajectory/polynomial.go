package trajectory

import (
	"github.com/pkg/errors"

	"go.viam.com/pathsmoother/utils"
)

// Polynomial is a scalar polynomial in segment-local time, with coefficients stored in ascending
// powers of t.
type Polynomial struct {
	coefficients []float64
}

// NewPolynomial creates a polynomial from ascending-order coefficients. The slice is copied.
func NewPolynomial(coefficients ...float64) (Polynomial, error) {
	if len(coefficients) == 0 {
		return Polynomial{}, errors.New("polynomial needs at least one coefficient")
	}
	for i, c := range coefficients {
		if !utils.IsFinite(c) {
			return Polynomial{}, errors.Errorf("polynomial coefficient %d is not finite: %v", i, c)
		}
	}
	return Polynomial{coefficients: append([]float64(nil), coefficients...)}, nil
}

// Degree returns the polynomial degree, i.e. the number of coefficients minus one.
func (p Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Coefficients returns a copy of the ascending-order coefficients.
func (p Polynomial) Coefficients() []float64 {
	return append([]float64(nil), p.coefficients...)
}

// Evaluate returns the derivative-th time derivative of the polynomial at t, using Horner's scheme on
// the differentiated coefficients.
func (p Polynomial) Evaluate(t float64, derivative int) float64 {
	result := 0.
	for n := len(p.coefficients) - 1; n >= derivative; n-- {
		result = result*t + p.coefficients[n]*utils.FallingFactorial(n, derivative)
	}
	return result
}
