package samplers

import (
	"fmt"
	"math/rand/v2"

	"github.com/aristath/wigner/pkg/phasespace"
)

// OrthogonalInitialConditions composes samplers that own disjoint dofs. It draws a snapshot
// by letting every child fill its own dofs of one shared copy, and its density is the
// product of the children's densities.
type OrthogonalInitialConditions struct {
	base
	samplers    []Sampler
	features    []phasespace.Feature
	featureDofs map[phasespace.Feature]phasespace.Dofs
}

// NewOrthogonalInitialConditions fails with ErrDofOverlap unless every (feature, dof) pair is
// owned by at most one child
func NewOrthogonalInitialConditions(children ...Sampler) (*OrthogonalInitialConditions, error) {
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("%w: sampler %d is nil", phasespace.ErrUnimplemented, i)
		}
	}

	features, featureDofs, err := partitionFeatures(children)
	if err != nil {
		return nil, fmt.Errorf("failed to compose samplers: %w", err)
	}

	return &OrthogonalInitialConditions{
		samplers:    append([]Sampler(nil), children...),
		features:    features,
		featureDofs: featureDofs,
	}, nil
}

func (o *OrthogonalInitialConditions) ready() error {
	if o.featureDofs == nil {
		return fmt.Errorf("%w: orthogonal sampler was not built with a constructor", phasespace.ErrUnimplemented)
	}
	return nil
}

// Samplers returns the children in construction order
func (o *OrthogonalInitialConditions) Samplers() []Sampler {
	return append([]Sampler(nil), o.samplers...)
}

func (o *OrthogonalInitialConditions) Features() []phasespace.Feature {
	return append([]phasespace.Feature(nil), o.features...)
}

func (o *OrthogonalInitialConditions) FeatureDofs() map[phasespace.Feature]phasespace.Dofs {
	out := make(map[phasespace.Feature]phasespace.Dofs, len(o.featureDofs))
	for f, d := range o.featureDofs {
		out[f] = d
	}
	return out
}

// Norm is the product of the children's norms
func (o *OrthogonalInitialConditions) Norm() float64 {
	norm := 1.0
	for _, s := range o.samplers {
		norm *= s.Norm()
	}
	return norm
}

func (o *OrthogonalInitialConditions) Evaluate(snap *phasespace.Snapshot) (float64, error) {
	if err := o.ready(); err != nil {
		return 0, err
	}
	value := 1.0
	for i, s := range o.samplers {
		v, err := s.Evaluate(snap)
		if err != nil {
			return 0, fmt.Errorf("failed to evaluate sampler %d: %w", i, err)
		}
		value *= v
	}
	return value, nil
}

// Prepare applies to this sampler and every child
func (o *OrthogonalInitialConditions) Prepare(nFrames int, engine phasespace.Engine) {
	o.base.Prepare(nFrames, engine)
	for _, s := range o.samplers {
		s.Prepare(nFrames, engine)
	}
}

func (o *OrthogonalInitialConditions) GenerateInitialSnapshot(prev *phasespace.Snapshot, src rand.Source) (*phasespace.Snapshot, error) {
	if err := o.ready(); err != nil {
		return nil, err
	}
	return generateInitialSnapshot(o, &o.base, prev, src)
}

func (o *OrthogonalInitialConditions) GenerateTrialTrajectory(prev phasespace.Trajectory, src rand.Source) (phasespace.Trajectory, error) {
	return generateTrialTrajectory(o, prev, src)
}

func (o *OrthogonalInitialConditions) fillInitialSnapshot(snap *phasespace.Snapshot, src rand.Source) error {
	for i, s := range o.samplers {
		if err := s.fillInitialSnapshot(snap, src); err != nil {
			return fmt.Errorf("failed to fill from sampler %d: %w", i, err)
		}
	}
	return nil
}
