package samplers

import (
	"fmt"

	"github.com/aristath/wigner/pkg/phasespace"
)

// partitionFeatures merges the feature ownership of independent samplers.
//
// A feature claimed by one sampler keeps that sampler's claim, unrestricted or not. A feature
// claimed by several samplers gets the concatenation of their explicit indices; an
// unrestricted claim there, or an index claimed twice, is ErrDofOverlap.
func partitionFeatures(children []Sampler) ([]phasespace.Feature, map[phasespace.Feature]phasespace.Dofs, error) {
	var order []phasespace.Feature
	claims := make(map[phasespace.Feature][]phasespace.Dofs)

	for _, child := range children {
		owned := child.FeatureDofs()
		for _, feature := range child.Features() {
			if _, seen := claims[feature]; !seen {
				order = append(order, feature)
			}
			claims[feature] = append(claims[feature], owned[feature])
		}
	}

	merged := make(map[phasespace.Feature]phasespace.Dofs, len(order))
	for _, feature := range order {
		dofs, err := mergeClaims(feature, claims[feature])
		if err != nil {
			return nil, nil, err
		}
		merged[feature] = dofs
	}
	return order, merged, nil
}

func mergeClaims(feature phasespace.Feature, claims []phasespace.Dofs) (phasespace.Dofs, error) {
	if len(claims) == 1 {
		return claims[0], nil
	}

	var indices []int
	seen := make(map[int]struct{})
	for _, claim := range claims {
		if claim.All() {
			return phasespace.Dofs{}, fmt.Errorf("%w: %s shared by %d samplers, one of which claims all dofs",
				phasespace.ErrDofOverlap, feature, len(claims))
		}
		for _, i := range claim.Indices() {
			if _, dup := seen[i]; dup {
				return phasespace.Dofs{}, fmt.Errorf("%w: %s dof %d claimed more than once", phasespace.ErrDofOverlap, feature, i)
			}
			seen[i] = struct{}{}
			indices = append(indices, i)
		}
	}
	return phasespace.SelectDofs(indices...), nil
}
