// Package nn implements the propnet layer, activation, error-function and
// network types.
//
// The engine does manual backpropagation: every layer implements an
// explicit backward pass instead of recording operations on a tape.
// Layers cache their pre-activation (A) and post-activation (Z) tensors
// during a training-mode Forward call; Predict runs the same computation
// without touching the caches, so inference can never leave a stale cache
// behind for the next backward pass.
package nn

import "github.com/propnet-ml/propnet/internal/tensor"

// Gradients holds one layer's parameter gradients from a backward pass.
// Both tensors are nil for parameter-free layers such as Flatten.
type Gradients struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor
}

// LayerParams is a deep copy of one layer's trainable parameters, used for
// snapshot/restore and checkpointing. Both tensors are nil for
// parameter-free layers.
type LayerParams struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor
}

// cache holds the tensors a training-mode forward pass records for
// backpropagation: the pre-activation A and the post-activation Z.
// Activation derivatives read from it through the non-owning reference
// installed at layer construction.
type cache struct {
	A *tensor.Tensor
	Z *tensor.Tensor
}

func (c *cache) store(a, z *tensor.Tensor) {
	c.A = a
	c.Z = z
}

// Layer is the contract every network layer implements.
//
// Forward/Predict compute the same value; only Forward mutates the layer's
// cache. Backward variants follow the position of the layer in the
// network: OutputBackward fuses the error-function derivative for the last
// layer, InputBackward skips the input gradient for the first layer.
type Layer interface {
	// InputShape returns the per-sample input shape.
	InputShape() tensor.Shape

	// OutputShape returns the per-sample output shape. It is derived from
	// the layer configuration, never set directly.
	OutputShape() tensor.Shape

	// Parameters returns the layer's live weight and bias tensors.
	// Parameter-free layers return nil, nil.
	Parameters() (weight, bias *tensor.Tensor)

	// SetParameters replaces the parameter values. It fails with
	// ErrShapeMismatch if the given shapes differ from the layer's.
	SetParameters(weight, bias *tensor.Tensor) error

	// Predict runs an inference-mode forward pass with no caching.
	Predict(x *tensor.Tensor) *tensor.Tensor

	// Forward runs a training-mode forward pass, caching the
	// pre-activation and post-activation tensors for backpropagation.
	Forward(x *tensor.Tensor) *tensor.Tensor

	// Backward, given the gradient of the loss w.r.t. this layer's output
	// and the input x the layer saw, returns the gradient w.r.t. x (for
	// the upstream layer) and the parameter gradients.
	Backward(grad, x *tensor.Tensor) (*tensor.Tensor, Gradients)

	// OutputBackward is Backward for the network's last layer: it fuses
	// the error-function derivative with the activation derivative.
	// When the error function is cross-entropy and the activation is
	// sigmoid or softmax the combined derivative collapses to Z - T,
	// which is used directly instead of composing the two derivatives.
	OutputBackward(errFn ErrorFunc, x, target *tensor.Tensor) (*tensor.Tensor, Gradients)

	// InputBackward is Backward for the network's first layer: there is
	// nothing upstream, so no input gradient is computed.
	InputBackward(grad, x *tensor.Tensor) Gradients

	// UpdateParameters adds the given deltas to the parameters in place.
	// Parameter-free layers ignore the call.
	UpdateParameters(deltaWeight, deltaBias *tensor.Tensor)

	// cached exposes the layer's forward cache to the network, which
	// feeds layer i-1's cached output into layer i's backward pass.
	cached() *cache
}

// fusedOutputDelta returns the fused derivative (Z - T) when the error
// function and activation pair admits the cross-entropy shortcut, or nil
// when the general composition must be used. Using the shortcut is a
// correctness requirement, not an optimization: composing -T/Y with the
// softmax or sigmoid derivative is algebraically equal but goes through an
// unstable quotient.
func fusedOutputDelta(errFn ErrorFunc, act Activation, z, target *tensor.Tensor) *tensor.Tensor {
	if _, ok := errFn.(*CrossEntropy); !ok {
		return nil
	}
	switch act.(type) {
	case *Sigmoid, *Softmax:
		return z.Sub(target)
	default:
		return nil
	}
}
