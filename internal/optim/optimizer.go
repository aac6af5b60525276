// Package optim implements the parameter-update rules for training:
// stochastic gradient descent and resilient backpropagation.
//
// Optimizers do not touch layers themselves; they turn per-layer
// gradients into per-layer deltas which the training loop applies through
// Layer.UpdateParameters.
//
// Example usage:
//
//	opt, err := optim.NewRProp(optim.RPropConfig{EtaMinus: 0.5, EtaPlus: 1.2})
//	...
//	net.Forward(x)
//	grads := net.Backpropagate(x, t)
//	for i, d := range opt.Deltas(grads, batchSize) {
//		net.Layer(i).UpdateParameters(d.Weight, d.Bias)
//	}
package optim

import (
	"errors"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// ErrInvalidHyperparameter reports an out-of-range optimizer or training
// configuration value, detected at construction.
var ErrInvalidHyperparameter = errors.New("invalid hyperparameter")

// Deltas holds one layer's parameter updates. Both tensors are nil for
// parameter-free layers.
type Deltas struct {
	Weight *tensor.Tensor
	Bias   *tensor.Tensor
}

// Optimizer turns the gradients of one backward pass into parameter
// deltas.
//
// Stateful optimizers (RProp) accumulate per-parameter state across calls;
// that state is tied to the parameter shapes of one specific network.
// Clear must be called before reusing an optimizer on a fresh training
// run, and an optimizer must never be carried across networks of
// different shapes.
type Optimizer interface {
	// Deltas computes the parameter updates for one batch of size
	// batchSize. The slice is indexed like the gradient slice: one entry
	// per layer, zero entries for parameter-free layers.
	Deltas(grads []nn.Gradients, batchSize int) []Deltas

	// Clear resets any per-parameter state. It is a no-op for stateless
	// optimizers.
	Clear()
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
