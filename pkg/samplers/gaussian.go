package samplers

import (
	"fmt"
	"math/rand/v2"

	"github.com/aristath/wigner/pkg/formulas"
	"github.com/aristath/wigner/pkg/phasespace"
)

// GaussianInitialConditions samples positions and momenta from independent Gaussians.
// Its density is the product of the position and momentum Gaussians, each evaluated on the
// dofs it owns.
type GaussianInitialConditions struct {
	base
	coordinate        *formulas.GaussianFunction
	momentum          *formulas.GaussianFunction
	coordinateDofs    phasespace.Dofs
	momentumDofs      phasespace.Dofs
	coordinateFeature phasespace.Feature
	momentumFeature   phasespace.Feature
}

// NewGaussianInitialConditions builds a nuclear sampler. x0/alphaX act on coordinateDofs of
// the coordinates, p0/alphaP on momentumDofs of the momenta. An explicit dof selection must
// have one entry per centre; phasespace.AllDofs() takes the whole feature array.
func NewGaussianInitialConditions(
	x0, p0, alphaX, alphaP []float64,
	coordinateDofs, momentumDofs phasespace.Dofs,
) (*GaussianInitialConditions, error) {
	g, err := newGaussianConditions(x0, p0, alphaX, alphaP, coordinateDofs, momentumDofs,
		phasespace.Coordinates, phasespace.Momenta)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func newGaussianConditions(
	x0, p0, alphaX, alphaP []float64,
	coordinateDofs, momentumDofs phasespace.Dofs,
	coordinateFeature, momentumFeature phasespace.Feature,
) (GaussianInitialConditions, error) {
	coordinate, err := formulas.NewGaussianFunction(x0, alphaX)
	if err != nil {
		return GaussianInitialConditions{}, fmt.Errorf("failed to build %s Gaussian: %w", coordinateFeature, err)
	}
	momentum, err := formulas.NewGaussianFunction(p0, alphaP)
	if err != nil {
		return GaussianInitialConditions{}, fmt.Errorf("failed to build %s Gaussian: %w", momentumFeature, err)
	}
	if err := checkDofs(coordinateDofs, len(x0), coordinateFeature); err != nil {
		return GaussianInitialConditions{}, err
	}
	if err := checkDofs(momentumDofs, len(p0), momentumFeature); err != nil {
		return GaussianInitialConditions{}, err
	}

	return GaussianInitialConditions{
		coordinate:        coordinate,
		momentum:          momentum,
		coordinateDofs:    coordinateDofs,
		momentumDofs:      momentumDofs,
		coordinateFeature: coordinateFeature,
		momentumFeature:   momentumFeature,
	}, nil
}

func checkDofs(dofs phasespace.Dofs, n int, feature phasespace.Feature) error {
	if err := dofs.Validate(); err != nil {
		return fmt.Errorf("invalid %s dofs: %w", feature, err)
	}
	if !dofs.All() && dofs.Len(0) != n {
		return fmt.Errorf("%w: %d %s dofs for %d centres", phasespace.ErrShapeMismatch, dofs.Len(0), feature, n)
	}
	return nil
}

func (g *GaussianInitialConditions) ready() error {
	if g.coordinate == nil || g.momentum == nil {
		return fmt.Errorf("%w: Gaussian sampler was not built with a constructor", phasespace.ErrUnimplemented)
	}
	return nil
}

// Features returns the coordinate and/or momentum feature, omitting a feature whose dof
// selection is empty
func (g *GaussianInitialConditions) Features() []phasespace.Feature {
	var features []phasespace.Feature
	if !g.coordinateDofs.Empty() {
		features = append(features, g.coordinateFeature)
	}
	if !g.momentumDofs.Empty() {
		features = append(features, g.momentumFeature)
	}
	return features
}

func (g *GaussianInitialConditions) FeatureDofs() map[phasespace.Feature]phasespace.Dofs {
	out := make(map[phasespace.Feature]phasespace.Dofs, 2)
	if !g.coordinateDofs.Empty() {
		out[g.coordinateFeature] = g.coordinateDofs
	}
	if !g.momentumDofs.Empty() {
		out[g.momentumFeature] = g.momentumDofs
	}
	return out
}

// Norm is the product of the two Gaussian norms
func (g *GaussianInitialConditions) Norm() float64 {
	if g.ready() != nil {
		return 0
	}
	return g.coordinate.Norm() * g.momentum.Norm()
}

// Coordinate returns the position Gaussian
func (g *GaussianInitialConditions) Coordinate() *formulas.GaussianFunction { return g.coordinate }

// Momentum returns the momentum Gaussian
func (g *GaussianInitialConditions) Momentum() *formulas.GaussianFunction { return g.momentum }

func (g *GaussianInitialConditions) Evaluate(snap *phasespace.Snapshot) (float64, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}
	x, err := evaluateOn(snap, g.coordinateFeature, g.coordinateDofs, g.coordinate)
	if err != nil {
		return 0, err
	}
	p, err := evaluateOn(snap, g.momentumFeature, g.momentumDofs, g.momentum)
	if err != nil {
		return 0, err
	}
	return x * p, nil
}

func evaluateOn(snap *phasespace.Snapshot, feature phasespace.Feature, dofs phasespace.Dofs, gauss *formulas.GaussianFunction) (float64, error) {
	if dofs.Empty() {
		return 1.0, nil
	}
	values, err := snap.Feature(feature)
	if err != nil {
		return 0, err
	}
	selected, err := dofs.Gather(values)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", feature, err)
	}
	v, err := gauss.Evaluate(selected)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %s: %w", feature, err)
	}
	return v, nil
}

func (g *GaussianInitialConditions) GenerateInitialSnapshot(prev *phasespace.Snapshot, src rand.Source) (*phasespace.Snapshot, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	return generateInitialSnapshot(g, &g.base, prev, src)
}

func (g *GaussianInitialConditions) GenerateTrialTrajectory(prev phasespace.Trajectory, src rand.Source) (phasespace.Trajectory, error) {
	return generateTrialTrajectory(g, prev, src)
}

func (g *GaussianInitialConditions) fillInitialSnapshot(snap *phasespace.Snapshot, src rand.Source) error {
	if err := g.ready(); err != nil {
		return err
	}
	if err := fillFeature(snap, g.coordinateFeature, g.coordinateDofs, g.coordinate, src); err != nil {
		return err
	}
	return fillFeature(snap, g.momentumFeature, g.momentumDofs, g.momentum, src)
}

func fillFeature(snap *phasespace.Snapshot, feature phasespace.Feature, dofs phasespace.Dofs, gauss *formulas.GaussianFunction, src rand.Source) error {
	if dofs.Empty() {
		return nil
	}
	values, err := snap.Feature(feature)
	if err != nil {
		return err
	}
	if err := dofs.Scatter(values, gauss.DrawSample(src)); err != nil {
		return fmt.Errorf("failed to fill %s: %w", feature, err)
	}
	return nil
}

// MMSTElectronicGaussianInitialConditions is the Gaussian sampler over the electronic
// (Meyer-Miller-Stock-Thoss mapping) coordinates and momenta
type MMSTElectronicGaussianInitialConditions struct {
	GaussianInitialConditions
}

// NewMMSTElectronicGaussianInitialConditions has the same contract as
// NewGaussianInitialConditions, bound to the electronic features
func NewMMSTElectronicGaussianInitialConditions(
	x0, p0, alphaX, alphaP []float64,
	coordinateDofs, momentumDofs phasespace.Dofs,
) (*MMSTElectronicGaussianInitialConditions, error) {
	g, err := newGaussianConditions(x0, p0, alphaX, alphaP, coordinateDofs, momentumDofs,
		phasespace.ElectronicCoordinates, phasespace.ElectronicMomenta)
	if err != nil {
		return nil, err
	}
	return &MMSTElectronicGaussianInitialConditions{GaussianInitialConditions: g}, nil
}

// NewMMSTElectronicGaussianInitialConditionsWithNDofs samples all n electronic dofs around
// the origin with unit precision
func NewMMSTElectronicGaussianInitialConditionsWithNDofs(n int) (*MMSTElectronicGaussianInitialConditions, error) {
	zeros := make([]float64, n)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	return NewMMSTElectronicGaussianInitialConditions(zeros, zeros, ones, ones,
		phasespace.AllDofs(), phasespace.AllDofs())
}
