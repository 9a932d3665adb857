// Package phasespace provides the snapshot, trajectory and engine shapes that operators and
// samplers act on, plus the dof selection type used to partition feature arrays.
package phasespace

import "fmt"

// Feature names a phase-space subspace of a snapshot
type Feature string

const (
	Coordinates           Feature = "coordinates"
	Momenta               Feature = "momenta"
	ElectronicCoordinates Feature = "electronic_coordinates"
	ElectronicMomenta     Feature = "electronic_momenta"
)

// Features lists every known feature in canonical order
var Features = []Feature{Coordinates, Momenta, ElectronicCoordinates, ElectronicMomenta}

// Topology carries mass and potential metadata. It is shared by pointer and never copied
// along with a snapshot, so pointer equality is its identity.
type Topology struct {
	Name     string
	Masses   []float64
	NSpatial int
}

// Snapshot is one point in phase space
type Snapshot struct {
	Topology              *Topology
	Coordinates           []float64
	Momenta               []float64
	ElectronicCoordinates []float64
	ElectronicMomenta     []float64
}

// Copy returns a deep copy of every feature array. The topology pointer is kept.
func (s *Snapshot) Copy() *Snapshot {
	return &Snapshot{
		Topology:              s.Topology,
		Coordinates:           cloneFloats(s.Coordinates),
		Momenta:               cloneFloats(s.Momenta),
		ElectronicCoordinates: cloneFloats(s.ElectronicCoordinates),
		ElectronicMomenta:     cloneFloats(s.ElectronicMomenta),
	}
}

// Feature returns the array backing f. The slice aliases the snapshot.
func (s *Snapshot) Feature(f Feature) ([]float64, error) {
	switch f {
	case Coordinates:
		return s.Coordinates, nil
	case Momenta:
		return s.Momenta, nil
	case ElectronicCoordinates:
		return s.ElectronicCoordinates, nil
	case ElectronicMomenta:
		return s.ElectronicMomenta, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
}

// SetFeature replaces the array backing f
func (s *Snapshot) SetFeature(f Feature, values []float64) error {
	switch f {
	case Coordinates:
		s.Coordinates = values
	case Momenta:
		s.Momenta = values
	case ElectronicCoordinates:
		s.ElectronicCoordinates = values
	case ElectronicMomenta:
		s.ElectronicMomenta = values
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return nil
}

// Trajectory is an ordered sequence of snapshots. Samplers only read the first one.
type Trajectory []*Snapshot

// First returns the initial snapshot, or nil for an empty trajectory
func (t Trajectory) First() *Snapshot {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Engine materializes snapshots for a fixed topology.
// Samplers use it only when no previous snapshot is available; it is never stepped.
type Engine interface {
	// EmptySnapshot returns a new zero-valued snapshot with correctly sized feature arrays
	EmptySnapshot() (*Snapshot, error)
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
