package phasespace

import "errors"

// Error conditions shared by the operator and sampler packages.
// Callers match them with errors.Is; every returned error wraps exactly one of these.
var (
	// ErrShapeMismatch is returned when paired vectors differ in length or a snapshot
	// feature array is too short for the dofs being read or written
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDofOverlap is returned when composed samplers claim the same dof of the same feature
	ErrDofOverlap = errors.New("dof overlap")

	// ErrUnimplemented is returned when an operator or sampler value was not built by its constructor
	ErrUnimplemented = errors.New("unimplemented")

	// ErrMissingEngine is returned when a snapshot must be materialized and no engine is configured
	ErrMissingEngine = errors.New("no engine set")

	// ErrNotSupported is returned for exciton counts other than 0 or 1
	ErrNotSupported = errors.New("not supported")

	// ErrUnknownFeature is returned for a Feature value outside the four known subspaces
	ErrUnknownFeature = errors.New("unknown feature")
)
