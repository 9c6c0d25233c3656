package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a plain copy of a parameter matrix, suitable for encoding.
type Tensor struct {
	Rows int
	Cols int
	Data []float64
}

// State exports a copy of every parameter in Params order.
func (n *Network) State() []Tensor {
	return exportAll(n.Params())
}

// SetState replaces every parameter. On a shape mismatch the network is
// left unchanged.
func (n *Network) SetState(state []Tensor) error {
	if err := checkShapes(n.Params(), state); err != nil {
		return fmt.Errorf("network parameters: %w", err)
	}
	importAll(n.Params(), state)
	return nil
}

// CheckState reports whether state fits the network without applying it.
func (n *Network) CheckState(state []Tensor) error {
	return checkShapes(n.Params(), state)
}

// CheckState reports whether state fits the optimizer without applying it.
func (o *RMSProp) CheckState(state []Tensor) error {
	return checkShapes(o.square, state)
}

func exportAll(ms []*mat.Dense) []Tensor {
	out := make([]Tensor, len(ms))
	for i, m := range ms {
		r, c := m.Dims()
		out[i] = Tensor{Rows: r, Cols: c, Data: append([]float64(nil), m.RawMatrix().Data...)}
	}
	return out
}

func checkShapes(ms []*mat.Dense, state []Tensor) error {
	if len(ms) != len(state) {
		return fmt.Errorf("%w: expected %d tensors, got %d", ErrShape, len(ms), len(state))
	}
	for i, m := range ms {
		r, c := m.Dims()
		t := state[i]
		if t.Rows != r || t.Cols != c || len(t.Data) != r*c {
			return fmt.Errorf("%w: tensor %d is %dx%d (%d values), expected %dx%d",
				ErrShape, i, t.Rows, t.Cols, len(t.Data), r, c)
		}
	}
	return nil
}

func importAll(ms []*mat.Dense, state []Tensor) {
	for i, m := range ms {
		copy(m.RawMatrix().Data, state[i].Data)
	}
}
