package operators

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/aristath/wigner/pkg/formulas"
	"github.com/aristath/wigner/pkg/phasespace"
	"github.com/aristath/wigner/pkg/samplers"
)

// MaxExcitons is the largest exciton count with a known Wigner correction
const MaxExcitons = 1

// DefaultRatios returns the default sampling-precision ratio per exciton count.
// Excited dofs are sampled from a broadened Gaussian so the operator stays bounded by a
// multiple of the sampling density.
func DefaultRatios() map[int]float64 {
	return map[int]float64{0: 1.0, 1: 1.1}
}

// CoherentProjection projects onto a product of harmonic-oscillator states, one per dof,
// centred at (x0, p0) with width parameter gamma. Each dof is in its ground state or carries
// one exciton.
//
// Excite must not be called while the same projection is being evaluated.
type CoherentProjection struct {
	x0       []float64
	p0       []float64
	gamma    []float64
	invGamma []float64
	dofs     phasespace.Dofs

	excitons     []int
	excitonIndex map[int]int

	position *formulas.GaussianFunction
	momentum *formulas.GaussianFunction
	norm     float64

	coordinateFeature phasespace.Feature
	momentumFeature   phasespace.Feature
}

// NewCoherentProjection builds a ground-state projection over the nuclear features.
// dofs restricts it to a subset of the snapshot's dofs; phasespace.AllDofs() uses them all,
// in which case the snapshot arrays must have len(x0) entries.
func NewCoherentProjection(x0, p0, gamma []float64, dofs phasespace.Dofs) (*CoherentProjection, error) {
	c, err := newCoherentProjection(x0, p0, gamma, dofs, phasespace.Coordinates, phasespace.Momenta)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func newCoherentProjection(
	x0, p0, gamma []float64,
	dofs phasespace.Dofs,
	coordinateFeature, momentumFeature phasespace.Feature,
) (CoherentProjection, error) {
	n := len(x0)
	if len(p0) != n || len(gamma) != n {
		return CoherentProjection{}, fmt.Errorf("%w: len(x0)=%d, len(p0)=%d, len(gamma)=%d",
			phasespace.ErrShapeMismatch, len(x0), len(p0), len(gamma))
	}
	if err := dofs.Validate(); err != nil {
		return CoherentProjection{}, fmt.Errorf("invalid dofs: %w", err)
	}
	if !dofs.All() && dofs.Len(0) != n {
		return CoherentProjection{}, fmt.Errorf("%w: %d dofs for %d centres", phasespace.ErrShapeMismatch, dofs.Len(0), n)
	}

	invGamma := make([]float64, n)
	for i, g := range gamma {
		invGamma[i] = 1.0 / g
	}
	position, err := formulas.NewGaussianFunction(x0, gamma)
	if err != nil {
		return CoherentProjection{}, fmt.Errorf("failed to build position factor: %w", err)
	}
	momentum, err := formulas.NewGaussianFunction(p0, invGamma)
	if err != nil {
		return CoherentProjection{}, fmt.Errorf("failed to build momentum factor: %w", err)
	}

	c := CoherentProjection{
		x0:                slices.Clone(x0),
		p0:                slices.Clone(p0),
		gamma:             slices.Clone(gamma),
		invGamma:          invGamma,
		dofs:              dofs,
		excitons:          make([]int, n),
		position:          position,
		momentum:          momentum,
		norm:              math.Pow(2.0, float64(n)) / (position.Norm() * momentum.Norm()),
		coordinateFeature: coordinateFeature,
		momentumFeature:   momentumFeature,
	}
	c.rebuildExcitonIndex()
	return c, nil
}

func (c *CoherentProjection) isOperator() {}

func (c *CoherentProjection) ready() error {
	if c.position == nil || c.momentum == nil {
		return fmt.Errorf("%w: coherent projection was not built with a constructor", phasespace.ErrUnimplemented)
	}
	return nil
}

// NDofs is the number of dofs the projection acts on
func (c *CoherentProjection) NDofs() int { return len(c.x0) }

func (c *CoherentProjection) X0() []float64       { return slices.Clone(c.x0) }
func (c *CoherentProjection) P0() []float64       { return slices.Clone(c.p0) }
func (c *CoherentProjection) Gamma() []float64    { return slices.Clone(c.gamma) }
func (c *CoherentProjection) InvGamma() []float64 { return slices.Clone(c.invGamma) }
func (c *CoherentProjection) Dofs() phasespace.Dofs {
	return c.dofs
}

// Excitons returns a copy of the per-dof exciton counts
func (c *CoherentProjection) Excitons() []int { return slices.Clone(c.excitons) }

// ExcitonIndex returns a copy of the sparse index: dof -> exciton count, positive counts only
func (c *CoherentProjection) ExcitonIndex() map[int]int { return maps.Clone(c.excitonIndex) }

// Excite sets the exciton count of one dof and returns the projection for chaining
func (c *CoherentProjection) Excite(dof, n int) (*CoherentProjection, error) {
	return c.ExciteMany([]int{dof}, []int{n})
}

// ExciteMany sets the exciton counts of several dofs. Nothing changes if any pair is invalid.
func (c *CoherentProjection) ExciteMany(dofs, counts []int) (*CoherentProjection, error) {
	if len(dofs) != len(counts) {
		return c, fmt.Errorf("%w: %d dofs, %d exciton counts", phasespace.ErrShapeMismatch, len(dofs), len(counts))
	}
	for k, dof := range dofs {
		if dof < 0 || dof >= len(c.excitons) {
			return c, fmt.Errorf("%w: dof %d outside [0, %d)", phasespace.ErrShapeMismatch, dof, len(c.excitons))
		}
		if err := checkExcitons(counts[k]); err != nil {
			return c, err
		}
	}

	for k, dof := range dofs {
		c.excitons[dof] = counts[k]
	}
	c.rebuildExcitonIndex()
	return c, nil
}

// SetExcitons replaces the whole exciton vector
func (c *CoherentProjection) SetExcitons(excitons []int) error {
	if len(excitons) != len(c.excitons) {
		return fmt.Errorf("%w: %d exciton counts for %d dofs", phasespace.ErrShapeMismatch, len(excitons), len(c.excitons))
	}
	for _, n := range excitons {
		if err := checkExcitons(n); err != nil {
			return err
		}
	}
	copy(c.excitons, excitons)
	c.rebuildExcitonIndex()
	return nil
}

func checkExcitons(n int) error {
	if n < 0 || n > MaxExcitons {
		return fmt.Errorf("%w: exciton count %d (only 0 and 1 are implemented)", phasespace.ErrNotSupported, n)
	}
	return nil
}

// rebuildExcitonIndex recomputes the sparse index from the dense vector
func (c *CoherentProjection) rebuildExcitonIndex() {
	index := make(map[int]int)
	for dof, n := range c.excitons {
		if n > 0 {
			index[dof] = n
		}
	}
	c.excitonIndex = index
}

// Evaluate returns
//
//	2^n * exp(-sum gamma (q-x0)^2 - sum (p-p0)^2 / gamma) * prod_excited 2((q-x0)^2 + (p-p0)^2 - 1/2)
//
// which is exactly 2^n at the centre of a ground-state projection.
func (c *CoherentProjection) Evaluate(snap *phasespace.Snapshot) (float64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	q, err := c.gather(snap, c.coordinateFeature)
	if err != nil {
		return 0, err
	}
	p, err := c.gather(snap, c.momentumFeature)
	if err != nil {
		return 0, err
	}

	gx, err := c.position.Evaluate(q)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %s: %w", c.coordinateFeature, err)
	}
	gp, err := c.momentum.Evaluate(p)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %s: %w", c.momentumFeature, err)
	}

	value := c.norm * gx * gp
	for _, dof := range slices.Sorted(maps.Keys(c.excitonIndex)) {
		dq := q[dof] - c.x0[dof]
		dp := p[dof] - c.p0[dof]
		value *= 2.0 * (dq*dq + dp*dp - 0.5)
	}
	return value, nil
}

func (c *CoherentProjection) gather(snap *phasespace.Snapshot, feature phasespace.Feature) ([]float64, error) {
	values, err := snap.Feature(feature)
	if err != nil {
		return nil, err
	}
	selected, err := c.dofs.Gather(values)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", feature, err)
	}
	if len(selected) != len(c.x0) {
		return nil, fmt.Errorf("%w: %s has %d values, projection has %d dofs",
			phasespace.ErrShapeMismatch, feature, len(selected), len(c.x0))
	}
	return selected, nil
}

// DefaultSampler is SamplerWithRatios(DefaultRatios())
func (c *CoherentProjection) DefaultSampler() (samplers.Sampler, error) {
	return c.SamplerWithRatios(DefaultRatios())
}

// SamplerWithRatios builds a Gaussian sampler on the projection's dofs with precision
// ratio[excitons] * gamma for positions and ratio[excitons] / gamma for momenta
func (c *CoherentProjection) SamplerWithRatios(ratios map[int]float64) (samplers.Sampler, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	n := len(c.x0)
	alphaX := make([]float64, n)
	alphaP := make([]float64, n)
	for dof, count := range c.excitons {
		ratio, ok := ratios[count]
		if !ok {
			return nil, fmt.Errorf("%w: no sampling ratio for %d excitons", phasespace.ErrNotSupported, count)
		}
		alphaX[dof] = ratio * c.gamma[dof]
		alphaP[dof] = ratio * c.invGamma[dof]
	}

	if c.coordinateFeature == phasespace.ElectronicCoordinates {
		return samplers.NewMMSTElectronicGaussianInitialConditions(c.x0, c.p0, alphaX, alphaP, c.dofs, c.dofs)
	}
	return samplers.NewGaussianInitialConditions(c.x0, c.p0, alphaX, alphaP, c.dofs, c.dofs)
}

// Correction returns Evaluate(snap) / sampler.Evaluate(snap) * sampler.Norm(). For a
// ground-state projection and its own default sampler this is 2^NDofs at every snapshot.
func (c *CoherentProjection) Correction(snap *phasespace.Snapshot, sampler samplers.Sampler) (float64, error) {
	return correction(c, snap, sampler)
}

// ElectronicCoherentProjection is a CoherentProjection over the electronic features
type ElectronicCoherentProjection struct {
	CoherentProjection
}

// NewElectronicCoherentProjection has the same contract as NewCoherentProjection
func NewElectronicCoherentProjection(x0, p0, gamma []float64, dofs phasespace.Dofs) (*ElectronicCoherentProjection, error) {
	c, err := newCoherentProjection(x0, p0, gamma, dofs, phasespace.ElectronicCoordinates, phasespace.ElectronicMomenta)
	if err != nil {
		return nil, err
	}
	return &ElectronicCoherentProjection{CoherentProjection: c}, nil
}

func (e *ElectronicCoherentProjection) Excite(dof, n int) (*ElectronicCoherentProjection, error) {
	_, err := e.CoherentProjection.Excite(dof, n)
	return e, err
}

func (e *ElectronicCoherentProjection) ExciteMany(dofs, counts []int) (*ElectronicCoherentProjection, error) {
	_, err := e.CoherentProjection.ExciteMany(dofs, counts)
	return e, err
}
