// Package operators provides phase-space operators: coherent-state projections and their
// tensor products.
//
// The Operator interface is sealed. Its implementations are CoherentProjection,
// ElectronicCoherentProjection, ProductOperator and OrthogonalProductOperator.
package operators

import (
	"github.com/aristath/wigner/pkg/phasespace"
	"github.com/aristath/wigner/pkg/samplers"
)

// Operator is a phase-space observable with a Wigner-function value and a matching
// importance sampler
type Operator interface {
	// Evaluate returns the Wigner-function value at snap
	Evaluate(snap *phasespace.Snapshot) (float64, error)

	// DefaultSampler builds the sampler this operator is meant to be estimated with
	DefaultSampler() (samplers.Sampler, error)

	// Correction is the importance-sampling weight of snap drawn from sampler
	Correction(snap *phasespace.Snapshot, sampler samplers.Sampler) (float64, error)

	isOperator()
}

// correction is the generic weight Evaluate(snap) / sampler.Evaluate(snap) * sampler.Norm()
func correction(op Operator, snap *phasespace.Snapshot, sampler samplers.Sampler) (float64, error) {
	value, err := op.Evaluate(snap)
	if err != nil {
		return 0, err
	}
	return samplers.ImportanceWeight(value, sampler, snap)
}
