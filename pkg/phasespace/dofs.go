package phasespace

import (
	"fmt"
	"slices"
)

// Dofs selects degree-of-freedom indices inside one feature array.
// The zero value selects nothing; AllDofs selects the whole array.
type Dofs struct {
	indices []int
	all     bool
}

// AllDofs is the unrestricted selection
func AllDofs() Dofs {
	return Dofs{all: true}
}

// SelectDofs selects the given indices in order. With no arguments it selects nothing.
func SelectDofs(indices ...int) Dofs {
	return Dofs{indices: slices.Clone(indices)}
}

// All reports whether every dof of the feature is selected
func (d Dofs) All() bool {
	return d.all
}

// Empty reports whether the selection claims no dof at all
func (d Dofs) Empty() bool {
	return !d.all && len(d.indices) == 0
}

// Indices returns a copy of the explicit indices; nil when All is true
func (d Dofs) Indices() []int {
	if d.all {
		return nil
	}
	return slices.Clone(d.indices)
}

// Len is the number of selected dofs in a feature array of length featureLen
func (d Dofs) Len(featureLen int) int {
	if d.all {
		return featureLen
	}
	return len(d.indices)
}

// Validate checks that every explicit index is non-negative and appears once
func (d Dofs) Validate() error {
	seen := make(map[int]struct{}, len(d.indices))
	for _, i := range d.indices {
		if i < 0 {
			return fmt.Errorf("%w: negative dof index %d", ErrShapeMismatch, i)
		}
		if _, dup := seen[i]; dup {
			return fmt.Errorf("%w: dof %d selected twice", ErrDofOverlap, i)
		}
		seen[i] = struct{}{}
	}
	return nil
}

// Gather returns the selected entries of values as a new slice
func (d Dofs) Gather(values []float64) ([]float64, error) {
	if d.all {
		return cloneFloats(values), nil
	}
	out := make([]float64, len(d.indices))
	for k, i := range d.indices {
		if i >= len(values) {
			return nil, fmt.Errorf("%w: dof %d outside feature of length %d", ErrShapeMismatch, i, len(values))
		}
		out[k] = values[i]
	}
	return out, nil
}

// Scatter writes src into the selected entries of dst. len(src) must equal Len(len(dst)).
func (d Dofs) Scatter(dst, src []float64) error {
	if n := d.Len(len(dst)); n != len(src) {
		return fmt.Errorf("%w: %d values for %d selected dofs", ErrShapeMismatch, len(src), n)
	}
	if d.all {
		copy(dst, src)
		return nil
	}
	for k, i := range d.indices {
		if i >= len(dst) {
			return fmt.Errorf("%w: dof %d outside feature of length %d", ErrShapeMismatch, i, len(dst))
		}
		dst[i] = src[k]
	}
	return nil
}

// String renders the selection for error messages
func (d Dofs) String() string {
	if d.all {
		return "all"
	}
	return fmt.Sprint(d.indices)
}
