package nn

import (
	"fmt"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// Network is an ordered sequence of layers with one error function.
//
// Each layer's output shape must equal the next layer's input shape; the
// chain is re-validated whenever the sequence changes. A layer is owned by
// at most one network at a time.
//
// Example:
//
//	conv, _ := nn.NewConv2D(tensor.Shape{1, 8, 8}, nn.Conv2DConfig{Filters: 4, KernelH: 3, KernelW: 3}, nn.NewReLU(), rng)
//	flat, _ := nn.NewFlatten(conv.OutputShape())
//	out, _ := nn.NewDense(flat.OutputShape()[0], 10, nn.NewSoftmax(), rng)
//	net, _ := nn.NewNetwork(nn.NewCrossEntropy(), conv, flat, out)
type Network struct {
	layers []Layer
	errFn  ErrorFunc
}

// NewNetwork creates a network from an error function and an initial
// (possibly empty) layer sequence.
func NewNetwork(errFn ErrorFunc, layers ...Layer) (*Network, error) {
	if errFn == nil {
		return nil, fmt.Errorf("nn: network requires an error function")
	}
	n := &Network{errFn: errFn}
	for _, l := range layers {
		if err := n.Add(l); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ErrorFunc returns the network's error function.
func (n *Network) ErrorFunc() ErrorFunc { return n.errFn }

// Len returns the number of layers.
func (n *Network) Len() int { return len(n.layers) }

// Layer returns the layer at the given index.
func (n *Network) Layer(i int) Layer {
	if i < 0 || i >= len(n.layers) {
		panic(fmt.Sprintf("nn: layer index %d out of bounds for %d layers", i, len(n.layers)))
	}
	return n.layers[i]
}

// Add appends a layer to the sequence.
func (n *Network) Add(l Layer) error {
	return n.Insert(len(n.layers), l)
}

// Insert places a layer at position i, shifting later layers up. It fails
// with ErrShapeMismatch if the resulting chain's shapes disagree.
func (n *Network) Insert(i int, l Layer) error {
	if i < 0 || i > len(n.layers) {
		return fmt.Errorf("nn: insert position %d out of bounds for %d layers", i, len(n.layers))
	}
	if i > 0 {
		if prev := n.layers[i-1].OutputShape(); !prev.Equal(l.InputShape()) {
			return fmt.Errorf("nn: layer %d output shape %v disagrees with inserted input shape %v: %w",
				i-1, prev, l.InputShape(), ErrShapeMismatch)
		}
	}
	if i < len(n.layers) {
		if next := n.layers[i].InputShape(); !l.OutputShape().Equal(next) {
			return fmt.Errorf("nn: inserted output shape %v disagrees with layer %d input shape %v: %w",
				l.OutputShape(), i, next, ErrShapeMismatch)
		}
	}
	n.layers = append(n.layers, nil)
	copy(n.layers[i+1:], n.layers[i:])
	n.layers[i] = l
	return nil
}

// Remove deletes the layer at position i. It fails with ErrShapeMismatch
// if its neighbours cannot be joined directly.
func (n *Network) Remove(i int) error {
	if i < 0 || i >= len(n.layers) {
		return fmt.Errorf("nn: remove position %d out of bounds for %d layers", i, len(n.layers))
	}
	if i > 0 && i < len(n.layers)-1 {
		prev, next := n.layers[i-1].OutputShape(), n.layers[i+1].InputShape()
		if !prev.Equal(next) {
			return fmt.Errorf("nn: removing layer %d leaves shapes %v and %v adjacent: %w",
				i, prev, next, ErrShapeMismatch)
		}
	}
	n.layers = append(n.layers[:i], n.layers[i+1:]...)
	return nil
}

// Predict pipes a batch through every layer without caching.
func (n *Network) Predict(x *tensor.Tensor) *tensor.Tensor {
	out := x
	for _, l := range n.layers {
		out = l.Predict(out)
	}
	return out
}

// Forward pipes a batch through every layer in training mode, leaving
// each layer's cache populated for Backpropagate.
func (n *Network) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x
	for _, l := range n.layers {
		out = l.Forward(out)
	}
	return out
}

// Loss evaluates the error function over a batch, returning the total.
func (n *Network) Loss(x, target *tensor.Tensor) float64 {
	return n.errFn.Loss(n.Predict(x), target)
}

// Backpropagate walks the chain backwards after a Forward call and
// returns one Gradients per layer.
//
// The last layer takes the fused error-derivative path (OutputBackward),
// the middle layers the plain path with the previous layer's cached
// output as input, and the first layer the no-input-gradient path
// (InputBackward). A single-layer network takes the fused path with the
// raw input and discards the input gradient.
func (n *Network) Backpropagate(x, target *tensor.Tensor) []Gradients {
	last := len(n.layers) - 1
	if last < 0 {
		panic("nn: Backpropagate on an empty network")
	}
	grads := make([]Gradients, len(n.layers))

	if last == 0 {
		_, grads[0] = n.layers[0].OutputBackward(n.errFn, x, target)
		return grads
	}

	grad, g := n.layers[last].OutputBackward(n.errFn, n.layers[last-1].cached().Z, target)
	grads[last] = g
	for i := last - 1; i >= 1; i-- {
		grad, grads[i] = n.layers[i].Backward(grad, n.layers[i-1].cached().Z)
	}
	grads[0] = n.layers[0].InputBackward(grad, x)
	return grads
}

// Snapshot exports a deep copy of every layer's parameters, in layer
// order. Parameter-free layers contribute a zero LayerParams entry.
func (n *Network) Snapshot() []LayerParams {
	params := make([]LayerParams, len(n.layers))
	for i, l := range n.layers {
		w, b := l.Parameters()
		if w == nil {
			continue
		}
		params[i] = LayerParams{Weight: w.Clone(), Bias: b.Clone()}
	}
	return params
}

// Restore imports parameters exported by Snapshot into a network of the
// same topology. It fails with ErrShapeMismatch when the layer count or
// any parameter shape disagrees.
func (n *Network) Restore(params []LayerParams) error {
	if len(params) != len(n.layers) {
		return fmt.Errorf("nn: snapshot holds %d layers, network has %d: %w",
			len(params), len(n.layers), ErrShapeMismatch)
	}
	for i, l := range n.layers {
		if w, _ := l.Parameters(); w == nil {
			if params[i].Weight != nil {
				return fmt.Errorf("nn: snapshot layer %d has parameters, network layer does not: %w",
					i, ErrShapeMismatch)
			}
			continue
		}
		if err := l.SetParameters(params[i].Weight, params[i].Bias); err != nil {
			return fmt.Errorf("nn: restoring layer %d: %w", i, err)
		}
	}
	return nil
}
