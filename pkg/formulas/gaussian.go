// Package formulas provides the numerical building blocks shared by operators and samplers.
package formulas

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/wigner/pkg/phasespace"
)

// GaussianFunction is a normalized axis-aligned multivariate Gaussian
//
//	f(x) = norm * exp(-sum_i alpha_i (x_i - x0_i)^2),  norm = prod_i sqrt(alpha_i / pi)
//
// It is immutable after construction.
type GaussianFunction struct {
	x0    []float64
	alpha []float64
	sigma []float64
	norm  float64
}

// NewGaussianFunction builds a Gaussian centred at x0 with per-axis precision alpha.
// A zero-length Gaussian is valid: its norm is 1 and it evaluates to 1 on an empty vector.
func NewGaussianFunction(x0, alpha []float64) (*GaussianFunction, error) {
	if len(x0) != len(alpha) {
		return nil, fmt.Errorf("%w: len(x0)=%d, len(alpha)=%d", phasespace.ErrShapeMismatch, len(x0), len(alpha))
	}

	sigma := make([]float64, len(alpha))
	factors := make([]float64, len(alpha))
	for i, a := range alpha {
		if !(a > 0) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: precision alpha[%d]=%g must be positive and finite", phasespace.ErrShapeMismatch, i, a)
		}
		sigma[i] = 1.0 / math.Sqrt(2.0*a)
		factors[i] = math.Sqrt(a / math.Pi)
	}

	return &GaussianFunction{
		x0:    append([]float64(nil), x0...),
		alpha: append([]float64(nil), alpha...),
		sigma: sigma,
		norm:  floats.Prod(factors),
	}, nil
}

// Len is the dimension of the Gaussian
func (g *GaussianFunction) Len() int { return len(g.x0) }

// Norm is the normalization constant prod sqrt(alpha_i / pi)
func (g *GaussianFunction) Norm() float64 { return g.norm }

// X0 returns a copy of the centre
func (g *GaussianFunction) X0() []float64 { return append([]float64(nil), g.x0...) }

// Alpha returns a copy of the precisions
func (g *GaussianFunction) Alpha() []float64 { return append([]float64(nil), g.alpha...) }

// Sigma returns a copy of the per-axis standard deviations 1/sqrt(2 alpha)
func (g *GaussianFunction) Sigma() []float64 { return append([]float64(nil), g.sigma...) }

// Exponent returns sum_i alpha_i (x_i - x0_i)^2, the argument of the exponential
func (g *GaussianFunction) Exponent(x []float64) (float64, error) {
	if len(x) != len(g.x0) {
		return 0, fmt.Errorf("%w: evaluating %d-dimensional Gaussian at %d values", phasespace.ErrShapeMismatch, len(g.x0), len(x))
	}
	sum := 0.0
	for i := range x {
		d := x[i] - g.x0[i]
		sum += g.alpha[i] * d * d
	}
	return sum, nil
}

// Evaluate returns the Gaussian value at x. The caller slices x to the dofs the Gaussian
// was built for.
func (g *GaussianFunction) Evaluate(x []float64) (float64, error) {
	exponent, err := g.Exponent(x)
	if err != nil {
		return 0, err
	}
	return g.norm * math.Exp(-exponent), nil
}

// DrawSample returns one vector of independent draws, draw_i ~ Normal(x0_i, sigma_i).
// A nil src draws from the global source, which is safe for concurrent use; a non-nil src
// must not be shared between goroutines.
func (g *GaussianFunction) DrawSample(src rand.Source) []float64 {
	sample := make([]float64, len(g.x0))
	for i := range sample {
		sample[i] = distuv.Normal{
			Mu:    g.x0[i],
			Sigma: g.sigma[i],
			Src:   src,
		}.Rand()
	}
	return sample
}
