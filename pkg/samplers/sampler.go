// Package samplers draws and weights initial phase-space snapshots.
//
// The Sampler interface is sealed: its implementations are GaussianInitialConditions,
// MMSTElectronicGaussianInitialConditions and OrthogonalInitialConditions. Each declares the
// features it touches and, per feature, the dofs it owns, so that independent samplers over
// disjoint dofs can be composed with NewOrthogonalInitialConditions.
package samplers

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/aristath/wigner/pkg/phasespace"
)

// ErrZeroDensity is returned when an importance weight is requested at a point where the
// sampling density vanishes
var ErrZeroDensity = errors.New("sampler density is zero")

// Sampler draws initial snapshots and evaluates the density it draws them from
type Sampler interface {
	// Features lists the touched features in declaration order
	Features() []phasespace.Feature

	// FeatureDofs maps every touched feature to the dofs owned within it
	FeatureDofs() map[phasespace.Feature]phasespace.Dofs

	// Norm is the normalization constant of the sampling density
	Norm() float64

	// Evaluate returns the sampling density at snap, restricted to the owned dofs
	Evaluate(snap *phasespace.Snapshot) (float64, error)

	// GenerateInitialSnapshot returns a copy of prev with the owned dofs redrawn.
	// prev is never modified. A nil prev is materialized through the engine.
	GenerateInitialSnapshot(prev *phasespace.Snapshot, src rand.Source) (*phasespace.Snapshot, error)

	// GenerateTrialTrajectory draws from the first snapshot of prev and returns a
	// trajectory holding only the drawn snapshot
	GenerateTrialTrajectory(prev phasespace.Trajectory, src rand.Source) (phasespace.Trajectory, error)

	// Prepare sets the frame count and engine; zero or nil arguments keep current values
	Prepare(nFrames int, engine phasespace.Engine)

	// Engine returns the configured engine or ErrMissingEngine
	Engine() (phasespace.Engine, error)

	// NFrames is the frame count set by Prepare
	NFrames() int

	fillInitialSnapshot(snap *phasespace.Snapshot, src rand.Source) error
}

// base holds the engine and frame count every sampler carries
type base struct {
	engine  phasespace.Engine
	nFrames int
}

func (b *base) Prepare(nFrames int, engine phasespace.Engine) {
	if engine != nil {
		b.engine = engine
	}
	if nFrames > 0 {
		b.nFrames = nFrames
	}
}

func (b *base) Engine() (phasespace.Engine, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("can't create snapshot: %w", phasespace.ErrMissingEngine)
	}
	return b.engine, nil
}

func (b *base) NFrames() int {
	return b.nFrames
}

// startingSnapshot copies prev, or asks the engine for a blank snapshot when prev is nil
func (b *base) startingSnapshot(prev *phasespace.Snapshot) (*phasespace.Snapshot, error) {
	if prev != nil {
		return prev.Copy(), nil
	}
	engine, err := b.Engine()
	if err != nil {
		return nil, err
	}
	snap, err := engine.EmptySnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize snapshot: %w", err)
	}
	return snap, nil
}

func generateInitialSnapshot(s Sampler, b *base, prev *phasespace.Snapshot, src rand.Source) (*phasespace.Snapshot, error) {
	snap, err := b.startingSnapshot(prev)
	if err != nil {
		return nil, err
	}
	if err := s.fillInitialSnapshot(snap, src); err != nil {
		return nil, err
	}
	return snap, nil
}

func generateTrialTrajectory(s Sampler, prev phasespace.Trajectory, src rand.Source) (phasespace.Trajectory, error) {
	snap, err := s.GenerateInitialSnapshot(prev.First(), src)
	if err != nil {
		return nil, err
	}
	return phasespace.Trajectory{snap}, nil
}

// ImportanceWeight converts a target value at snap into an importance-sampling weight
// against s: target / s.Evaluate(snap) * s.Norm().
func ImportanceWeight(target float64, s Sampler, snap *phasespace.Snapshot) (float64, error) {
	density, err := s.Evaluate(snap)
	if err != nil {
		return 0, err
	}
	if density == 0 {
		return 0, ErrZeroDensity
	}
	return target / density * s.Norm(), nil
}
