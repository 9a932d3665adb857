package operators

import (
	"fmt"

	"github.com/aristath/wigner/pkg/phasespace"
	"github.com/aristath/wigner/pkg/samplers"
)

// ProductOperator is the tensor product of its children. Overlap between the children's
// dofs is not checked here; DefaultSampler reports it as ErrDofOverlap.
type ProductOperator struct {
	operators []Operator
}

// NewProductOperator requires at least one operator
func NewProductOperator(ops ...Operator) (*ProductOperator, error) {
	children, err := checkOperands(ops)
	if err != nil {
		return nil, err
	}
	return &ProductOperator{operators: children}, nil
}

func checkOperands(ops []Operator) ([]Operator, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: product of no operators", phasespace.ErrShapeMismatch)
	}
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("%w: operator %d is nil", phasespace.ErrUnimplemented, i)
		}
	}
	return append([]Operator(nil), ops...), nil
}

func (p *ProductOperator) isOperator() {}

func (p *ProductOperator) ready() error {
	if len(p.operators) == 0 {
		return fmt.Errorf("%w: product operator was not built with a constructor", phasespace.ErrUnimplemented)
	}
	return nil
}

// Operators returns the children in order
func (p *ProductOperator) Operators() []Operator {
	return append([]Operator(nil), p.operators...)
}

// Evaluate is the product of the children's values
func (p *ProductOperator) Evaluate(snap *phasespace.Snapshot) (float64, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}
	value := 1.0
	for i, op := range p.operators {
		v, err := op.Evaluate(snap)
		if err != nil {
			return 0, fmt.Errorf("failed to evaluate operator %d: %w", i, err)
		}
		value *= v
	}
	return value, nil
}

// DefaultSampler composes the children's default samplers into one
// OrthogonalInitialConditions
func (p *ProductOperator) DefaultSampler() (samplers.Sampler, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	children := make([]samplers.Sampler, len(p.operators))
	for i, op := range p.operators {
		s, err := op.DefaultSampler()
		if err != nil {
			return nil, fmt.Errorf("failed to build sampler for operator %d: %w", i, err)
		}
		children[i] = s
	}
	return samplers.NewOrthogonalInitialConditions(children...)
}

func (p *ProductOperator) Correction(snap *phasespace.Snapshot, sampler samplers.Sampler) (float64, error) {
	return correction(p, snap, sampler)
}

// OrthogonalProductOperator is a product of operators acting on disjoint dofs. Its
// correction against an OrthogonalInitialConditions with one child per operator factorizes
// into the children's corrections.
type OrthogonalProductOperator struct {
	ProductOperator
}

// NewOrthogonalProductOperator requires at least one operator
func NewOrthogonalProductOperator(ops ...Operator) (*OrthogonalProductOperator, error) {
	children, err := checkOperands(ops)
	if err != nil {
		return nil, err
	}
	return &OrthogonalProductOperator{ProductOperator: ProductOperator{operators: children}}, nil
}

func (o *OrthogonalProductOperator) Correction(snap *phasespace.Snapshot, sampler samplers.Sampler) (float64, error) {
	if err := o.ready(); err != nil {
		return 0, err
	}
	orthogonal, ok := sampler.(*samplers.OrthogonalInitialConditions)
	if !ok || len(orthogonal.Samplers()) != len(o.operators) {
		return correction(o, snap, sampler)
	}

	weight := 1.0
	for i, child := range orthogonal.Samplers() {
		w, err := o.operators[i].Correction(snap, child)
		if err != nil {
			return 0, fmt.Errorf("failed to correct operator %d: %w", i, err)
		}
		weight *= w
	}
	return weight, nil
}

// Mul multiplies two operators. A product on the left is extended rather than nested, and
// keeps its kind; anything else yields a ProductOperator.
func Mul(left, right Operator) (Operator, error) {
	switch l := left.(type) {
	case *OrthogonalProductOperator:
		return NewOrthogonalProductOperator(append(l.Operators(), right)...)
	case *ProductOperator:
		return NewProductOperator(append(l.Operators(), right)...)
	default:
		return NewProductOperator(left, right)
	}
}
