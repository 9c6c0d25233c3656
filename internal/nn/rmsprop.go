package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RMSProp keeps a running average of squared gradients per parameter and
// scales each step by its root:
//
//	v = alpha*v + (1-alpha)*g^2
//	p -= lr * g / (sqrt(v) + eps)
type RMSProp struct {
	Alpha float64
	Eps   float64

	square []*mat.Dense
}

// NewRMSProp creates an optimizer for params with zeroed state.
func NewRMSProp(params []*mat.Dense, alpha, eps float64) *RMSProp {
	o := &RMSProp{Alpha: alpha, Eps: eps}
	for _, p := range params {
		r, c := p.Dims()
		o.square = append(o.square, mat.NewDense(r, c, nil))
	}
	return o
}

// Step applies one update with learning rate lr. grads must match params.
func (o *RMSProp) Step(params, grads []*mat.Dense, lr float64) error {
	if len(params) != len(o.square) || len(grads) != len(o.square) {
		return fmt.Errorf("%w: optimizer tracks %d tensors, got %d params and %d grads",
			ErrShape, len(o.square), len(params), len(grads))
	}
	for i, p := range params {
		pd := p.RawMatrix().Data
		gd := grads[i].RawMatrix().Data
		vd := o.square[i].RawMatrix().Data
		if len(pd) != len(gd) || len(pd) != len(vd) {
			return fmt.Errorf("%w: tensor %d has %d values, grad %d, state %d", ErrShape, i, len(pd), len(gd), len(vd))
		}
		for j, g := range gd {
			vd[j] = o.Alpha*vd[j] + (1-o.Alpha)*g*g
			pd[j] -= lr * g / (math.Sqrt(vd[j]) + o.Eps)
		}
	}
	return nil
}

// State exports the squared-gradient averages.
func (o *RMSProp) State() []Tensor {
	return exportAll(o.square)
}

// SetState replaces the squared-gradient averages. On a shape mismatch the
// optimizer is left unchanged.
func (o *RMSProp) SetState(state []Tensor) error {
	if err := checkShapes(o.square, state); err != nil {
		return fmt.Errorf("optimizer state: %w", err)
	}
	importAll(o.square, state)
	return nil
}
