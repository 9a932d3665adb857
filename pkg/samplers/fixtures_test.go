package samplers

import (
	"github.com/stretchr/testify/mock"

	"github.com/aristath/wigner/pkg/phasespace"
)

// mockEngine is a testify mock of phasespace.Engine
type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) EmptySnapshot() (*phasespace.Snapshot, error) {
	args := m.Called()
	if snap := args.Get(0); snap != nil {
		return snap.(*phasespace.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func oneDofSnapshot(topology *phasespace.Topology, x, p float64) *phasespace.Snapshot {
	return &phasespace.Snapshot{
		Topology:    topology,
		Coordinates: []float64{x},
		Momenta:     []float64{p},
	}
}

// twoDofSnapshot sets dof 1 of both features to v and leaves dof 0 at zero
func twoDofSnapshot(topology *phasespace.Topology, v float64) *phasespace.Snapshot {
	return &phasespace.Snapshot{
		Topology:    topology,
		Coordinates: []float64{0.0, v},
		Momenta:     []float64{0.0, v},
	}
}

func fullSnapshot(topology *phasespace.Topology) *phasespace.Snapshot {
	return &phasespace.Snapshot{
		Topology:              topology,
		Coordinates:           []float64{0.0, 0.0},
		Momenta:               []float64{0.0, 0.0},
		ElectronicCoordinates: []float64{0.0, 0.0},
		ElectronicMomenta:     []float64{0.0, 0.0},
	}
}
