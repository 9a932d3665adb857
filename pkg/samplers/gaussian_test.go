package samplers

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/wigner/pkg/phasespace"
)

func TestGaussianInitialConditions_AllDofs(t *testing.T) {
	topology := &phasespace.Topology{Name: "stub", Masses: []float64{0.5}, NSpatial: 1}
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0}, []float64{1.0}, []float64{1.0}, []float64{2.0},
		phasespace.AllDofs(), phasespace.AllDofs(),
	)
	require.NoError(t, err)

	norm := 0.4501581580785531
	assert.InDelta(t, norm, sampler.Norm(), 1e-15)

	tests := []struct {
		name string
		snap *phasespace.Snapshot
		want float64
	}{
		{"0.0", oneDofSnapshot(topology, 0.0, 0.0), norm * math.Exp(-2.0*1.0)},
		{"0.5", oneDofSnapshot(topology, 0.5, 0.5), norm * math.Exp(-0.25-2.0*0.25)},
		{"1.0", oneDofSnapshot(topology, 1.0, 1.0), norm * math.Exp(-1.0)},
		{"1.5", oneDofSnapshot(topology, 1.5, 1.5), norm * math.Exp(-2.25-2.0*0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sampler.Evaluate(tt.snap)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	assert.Equal(t, []phasespace.Feature{phasespace.Coordinates, phasespace.Momenta}, sampler.Features())
	assert.True(t, sampler.FeatureDofs()[phasespace.Coordinates].All())
	assert.True(t, sampler.FeatureDofs()[phasespace.Momenta].All())
}

func TestGaussianInitialConditions_GenerateDoesNotMutate(t *testing.T) {
	topology := &phasespace.Topology{Name: "stub", Masses: []float64{0.5}, NSpatial: 1}
	prev := oneDofSnapshot(topology, 0.0, 0.0)
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0}, []float64{1.0}, []float64{1.0}, []float64{2.0},
		phasespace.AllDofs(), phasespace.AllDofs(),
	)
	require.NoError(t, err)

	snap, err := sampler.GenerateInitialSnapshot(prev, rand.NewPCG(1, 2))
	require.NoError(t, err)

	assert.NotSame(t, prev, snap)
	assert.Same(t, prev.Topology, snap.Topology)
	assert.NotSame(t, &prev.Coordinates[0], &snap.Coordinates[0])
	assert.NotSame(t, &prev.Momenta[0], &snap.Momenta[0])
	assert.NotEqual(t, prev.Coordinates, snap.Coordinates)
	assert.NotEqual(t, prev.Momenta, snap.Momenta)
	assert.Equal(t, []float64{0.0}, prev.Coordinates, "input snapshot must not change")
	assert.Equal(t, []float64{0.0}, prev.Momenta)
}

func TestGaussianInitialConditions_SingleCoordinate(t *testing.T) {
	topology := &phasespace.Topology{Name: "stub2", Masses: []float64{0.5, 0.5}, NSpatial: 2}
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0}, []float64{}, []float64{1.0}, []float64{},
		phasespace.SelectDofs(1), phasespace.SelectDofs(),
	)
	require.NoError(t, err)

	norm := 0.5641895835477563
	assert.InDelta(t, norm, sampler.Norm(), 1e-15)
	for _, v := range []float64{0.0, 0.5, 1.0, 1.5} {
		got, err := sampler.Evaluate(twoDofSnapshot(topology, v))
		require.NoError(t, err)
		assert.InDelta(t, norm*math.Exp(-v*v), got, 1e-12, "v=%v", v)
	}

	assert.Equal(t, []phasespace.Feature{phasespace.Coordinates}, sampler.Features())

	prev := twoDofSnapshot(topology, 0.0)
	snap, err := sampler.GenerateInitialSnapshot(prev, rand.NewPCG(5, 6))
	require.NoError(t, err)
	assert.Same(t, prev.Topology, snap.Topology)
	assert.Equal(t, prev.Coordinates[0], snap.Coordinates[0])
	assert.NotEqual(t, prev.Coordinates[1], snap.Coordinates[1])
	assert.InDeltaSlice(t, prev.Momenta, snap.Momenta, 1e-15)
}

func TestGaussianInitialConditions_SingleMomentum(t *testing.T) {
	topology := &phasespace.Topology{Name: "stub2", Masses: []float64{0.5, 0.5}, NSpatial: 2}
	sampler, err := NewGaussianInitialConditions(
		[]float64{}, []float64{1.0}, []float64{}, []float64{2.0},
		phasespace.SelectDofs(), phasespace.SelectDofs(1),
	)
	require.NoError(t, err)

	norm := 0.7978845608028654
	for _, v := range []float64{0.0, 0.5, 1.0, 1.5} {
		got, err := sampler.Evaluate(twoDofSnapshot(topology, v))
		require.NoError(t, err)
		assert.InDelta(t, norm*math.Exp(-2.0*(v-1.0)*(v-1.0)), got, 1e-12, "v=%v", v)
	}

	prev := twoDofSnapshot(topology, 0.0)
	snap, err := sampler.GenerateInitialSnapshot(prev, rand.NewPCG(5, 6))
	require.NoError(t, err)
	assert.InDeltaSlice(t, prev.Coordinates, snap.Coordinates, 1e-15)
	assert.Equal(t, prev.Momenta[0], snap.Momenta[0])
	assert.NotEqual(t, prev.Momenta[1], snap.Momenta[1])
}

func TestNewGaussianInitialConditions_Errors(t *testing.T) {
	tests := []struct {
		name           string
		x0, p0, ax, ap []float64
		cDofs, pDofs   phasespace.Dofs
		want           error
	}{
		{
			name: "centre and precision lengths differ",
			x0:   []float64{0.0}, p0: []float64{0.0}, ax: []float64{1.0, 1.0}, ap: []float64{1.0},
			cDofs: phasespace.AllDofs(), pDofs: phasespace.AllDofs(),
			want: phasespace.ErrShapeMismatch,
		},
		{
			name: "explicit dofs do not match centres",
			x0:   []float64{0.0}, p0: []float64{0.0}, ax: []float64{1.0}, ap: []float64{1.0},
			cDofs: phasespace.SelectDofs(0, 1), pDofs: phasespace.AllDofs(),
			want: phasespace.ErrShapeMismatch,
		},
		{
			name: "duplicate dof",
			x0:   []float64{0.0, 0.0}, p0: []float64{0.0}, ax: []float64{1.0, 1.0}, ap: []float64{1.0},
			cDofs: phasespace.SelectDofs(1, 1), pDofs: phasespace.AllDofs(),
			want: phasespace.ErrDofOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGaussianInitialConditions(tt.x0, tt.p0, tt.ax, tt.ap, tt.cDofs, tt.pDofs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGaussianInitialConditions_EvaluateShortSnapshot(t *testing.T) {
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0, 0.0}, []float64{0.0, 0.0}, []float64{1.0, 1.0}, []float64{1.0, 1.0},
		phasespace.AllDofs(), phasespace.AllDofs(),
	)
	require.NoError(t, err)

	short := oneDofSnapshot(nil, 0.0, 0.0)
	_, err = sampler.Evaluate(short)
	assert.ErrorIs(t, err, phasespace.ErrShapeMismatch)

	_, err = sampler.GenerateInitialSnapshot(short, nil)
	assert.ErrorIs(t, err, phasespace.ErrShapeMismatch)
}

func TestGaussianInitialConditions_ZeroValue(t *testing.T) {
	var sampler GaussianInitialConditions

	_, err := sampler.Evaluate(oneDofSnapshot(nil, 0.0, 0.0))
	assert.ErrorIs(t, err, phasespace.ErrUnimplemented)

	_, err = sampler.GenerateInitialSnapshot(oneDofSnapshot(nil, 0.0, 0.0), nil)
	assert.ErrorIs(t, err, phasespace.ErrUnimplemented)
	assert.Equal(t, 0.0, sampler.Norm())
}

func TestGaussianInitialConditions_EngineFallback(t *testing.T) {
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0}, []float64{0.0}, []float64{1.0}, []float64{1.0},
		phasespace.AllDofs(), phasespace.AllDofs(),
	)
	require.NoError(t, err)

	_, err = sampler.Engine()
	assert.ErrorIs(t, err, phasespace.ErrMissingEngine)
	_, err = sampler.GenerateInitialSnapshot(nil, nil)
	assert.ErrorIs(t, err, phasespace.ErrMissingEngine)
	_, err = sampler.GenerateTrialTrajectory(nil, nil)
	assert.ErrorIs(t, err, phasespace.ErrMissingEngine)

	topology := &phasespace.Topology{Name: "engine"}
	engine := &mockEngine{}
	engine.On("EmptySnapshot").Return(oneDofSnapshot(topology, 0.0, 0.0), nil).Once()

	sampler.Prepare(10, engine)
	assert.Equal(t, 10, sampler.NFrames())
	got, err := sampler.Engine()
	require.NoError(t, err)
	assert.Same(t, engine, got)

	traj, err := sampler.GenerateTrialTrajectory(phasespace.Trajectory{}, rand.NewPCG(1, 1))
	require.NoError(t, err)
	require.Len(t, traj, 1)
	assert.Same(t, topology, traj[0].Topology)
	engine.AssertExpectations(t)

	// zero arguments keep the configured values
	sampler.Prepare(0, nil)
	assert.Equal(t, 10, sampler.NFrames())
	got, err = sampler.Engine()
	require.NoError(t, err)
	assert.Same(t, engine, got)
}

func TestGaussianInitialConditions_TrialTrajectoryReadsFirstSnapshot(t *testing.T) {
	topology := &phasespace.Topology{Name: "first"}
	sampler, err := NewGaussianInitialConditions(
		[]float64{0.0}, []float64{0.0}, []float64{1.0}, []float64{1.0},
		phasespace.SelectDofs(0), phasespace.SelectDofs(),
	)
	require.NoError(t, err)

	first := oneDofSnapshot(topology, 0.0, 7.0)
	second := oneDofSnapshot(&phasespace.Topology{Name: "second"}, 0.0, 9.0)
	traj, err := sampler.GenerateTrialTrajectory(phasespace.Trajectory{first, second}, nil)
	require.NoError(t, err)
	require.Len(t, traj, 1)
	assert.Same(t, topology, traj[0].Topology)
	assert.Equal(t, 7.0, traj[0].Momenta[0])
}

func TestMMSTElectronicGaussianInitialConditions(t *testing.T) {
	sampler, err := NewMMSTElectronicGaussianInitialConditionsWithNDofs(2)
	require.NoError(t, err)

	assert.Equal(t, []phasespace.Feature{phasespace.ElectronicCoordinates, phasespace.ElectronicMomenta}, sampler.Features())
	assert.InDelta(t, 1.0/(math.Pi*math.Pi), sampler.Norm(), 1e-15)

	snap := fullSnapshot(nil)
	snap.Coordinates = []float64{5.0, 5.0} // ignored by the electronic sampler
	snap.ElectronicCoordinates = []float64{1.0, 0.0}
	got, err := sampler.Evaluate(snap)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-1.0)/(math.Pi*math.Pi), got, 1e-12)

	drawn, err := sampler.GenerateInitialSnapshot(snap, rand.NewPCG(9, 9))
	require.NoError(t, err)
	assert.Equal(t, snap.Coordinates, drawn.Coordinates)
	assert.Equal(t, snap.Momenta, drawn.Momenta)
	assert.NotEqual(t, snap.ElectronicCoordinates, drawn.ElectronicCoordinates)
	assert.NotEqual(t, snap.ElectronicMomenta, drawn.ElectronicMomenta)

	// a nuclear-only snapshot has no electronic arrays to fill
	_, err = sampler.GenerateInitialSnapshot(oneDofSnapshot(nil, 0.0, 0.0), nil)
	assert.ErrorIs(t, err, phasespace.ErrShapeMismatch)
}
