// Package nn implements the small fully connected Q-network used by the agent:
// dense layers with ReLU between them and a linear output, trained with
// hand-written backpropagation over gonum matrices.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when parameters do not fit the network layout.
var ErrShape = errors.New("parameter shape mismatch")

// Layer is one affine transform y = xW + b. W is in×out, B is 1×out.
type Layer struct {
	W *mat.Dense
	B *mat.Dense
}

// Network is a multilayer perceptron. Every layer but the last is followed by
// a ReLU.
type Network struct {
	sizes  []int
	layers []Layer
}

// New builds a network with the given layer sizes, input first and output
// last. Weights and biases are drawn uniformly from ±1/sqrt(fan_in).
func New(sizes []int, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("network needs at least an input and an output size, got %v", sizes)
	}
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("layer sizes must be positive, got %v", sizes)
		}
	}

	n := &Network{sizes: append([]int(nil), sizes...)}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		bound := 1 / math.Sqrt(float64(in))
		l := Layer{
			W: mat.NewDense(in, out, nil),
			B: mat.NewDense(1, out, nil),
		}
		fillUniform(l.W, bound, rng)
		fillUniform(l.B, bound, rng)
		n.layers = append(n.layers, l)
	}
	return n, nil
}

// Layout returns the sizes of the hidden stack: input, hidden..., output.
func Layout(inputs, hiddenWidth, hiddenLayers, outputs int) []int {
	sizes := []int{inputs}
	for i := 0; i < hiddenLayers; i++ {
		sizes = append(sizes, hiddenWidth)
	}
	return append(sizes, outputs)
}

func fillUniform(m *mat.Dense, bound float64, rng *rand.Rand) {
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
}

// Sizes returns the layer sizes, input first.
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// Inputs returns the width of the input vector.
func (n *Network) Inputs() int { return n.sizes[0] }

// Outputs returns the width of the output vector.
func (n *Network) Outputs() int { return n.sizes[len(n.sizes)-1] }

// Forward evaluates a batch, one row per sample.
func (n *Network) Forward(x mat.Matrix) *mat.Dense {
	acts := n.forward(x)
	return acts[len(acts)-1]
}

// Predict evaluates a single input vector.
func (n *Network) Predict(input []float64) []float64 {
	x := mat.NewDense(1, len(input), append([]float64(nil), input...))
	out := n.Forward(x)
	return append([]float64(nil), out.RawRowView(0)...)
}

// forward returns the input followed by the output of every layer.
func (n *Network) forward(x mat.Matrix) []*mat.Dense {
	rows, _ := x.Dims()
	acts := make([]*mat.Dense, 0, len(n.layers)+1)
	acts = append(acts, mat.DenseCopyOf(x))

	for i, l := range n.layers {
		_, out := l.W.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(acts[i], l.W)
		bias := l.B.RawRowView(0)
		for r := 0; r < rows; r++ {
			floats.Add(z.RawRowView(r), bias)
		}
		if i < len(n.layers)-1 {
			z.Apply(relu, z)
		}
		acts = append(acts, z)
	}
	return acts
}

func relu(_, _ int, v float64) float64 {
	return math.Max(v, 0)
}

// Gradients backpropagates dOut, the loss gradient with respect to the
// network output for batch x, and returns parameter gradients in Params order.
func (n *Network) Gradients(x mat.Matrix, dOut mat.Matrix) []*mat.Dense {
	acts := n.forward(x)
	grads := make([]*mat.Dense, 2*len(n.layers))

	delta := mat.DenseCopyOf(dOut)
	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		in, out := l.W.Dims()
		rows, _ := delta.Dims()

		dW := mat.NewDense(in, out, nil)
		dW.Mul(acts[i].T(), delta)
		dB := mat.NewDense(1, out, nil)
		for r := 0; r < rows; r++ {
			floats.Add(dB.RawRowView(0), delta.RawRowView(r))
		}
		grads[2*i] = dW
		grads[2*i+1] = dB

		if i == 0 {
			break
		}
		prev := mat.NewDense(rows, in, nil)
		prev.Mul(delta, l.W.T())
		// ReLU passes gradient only where its output was positive.
		a := acts[i]
		prev.Apply(func(r, c int, v float64) float64 {
			if a.At(r, c) <= 0 {
				return 0
			}
			return v
		}, prev)
		delta = prev
	}
	return grads
}

// Params returns the live parameter matrices: W0, B0, W1, B1, ...
func (n *Network) Params() []*mat.Dense {
	params := make([]*mat.Dense, 0, 2*len(n.layers))
	for _, l := range n.layers {
		params = append(params, l.W, l.B)
	}
	return params
}

// CopyFrom overwrites every parameter with the values from src.
func (n *Network) CopyFrom(src *Network) error {
	if !sameSizes(n.sizes, src.sizes) {
		return fmt.Errorf("%w: %v vs %v", ErrShape, n.sizes, src.sizes)
	}
	for i, p := range src.Params() {
		n.Params()[i].Copy(p)
	}
	return nil
}

// Clone returns an independent copy of the network.
func (n *Network) Clone() *Network {
	c := &Network{sizes: n.Sizes()}
	for _, l := range n.layers {
		c.layers = append(c.layers, Layer{W: mat.DenseCopyOf(l.W), B: mat.DenseCopyOf(l.B)})
	}
	return c
}

func sameSizes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ClipGradNorm rescales grads in place so that their global L2 norm does not
// exceed maxNorm. It returns the norm measured before clipping.
func ClipGradNorm(grads []*mat.Dense, maxNorm float64) float64 {
	var sum float64
	for _, g := range grads {
		norm := floats.Norm(g.RawMatrix().Data, 2)
		sum += norm * norm
	}
	total := math.Sqrt(sum)
	if total > maxNorm {
		scale := maxNorm / (total + 1e-6)
		for _, g := range grads {
			g.Scale(scale, g)
		}
	}
	return total
}
