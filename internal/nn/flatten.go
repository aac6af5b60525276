package nn

import (
	"fmt"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// Flatten is a parameter-free layer that reshapes each sample's
// multi-dimensional features into a flat vector, typically between the
// convolutional and fully connected parts of a network. Gradients are
// reshaped back on the way down. It carries no activation of its own, so
// as an output layer it applies the error-function derivative directly.
type Flatten struct {
	inShape  tensor.Shape
	features int
	cache    cache
}

// NewFlatten creates a flatten layer for the given per-sample input shape.
func NewFlatten(input tensor.Shape) (*Flatten, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("nn: flatten input shape must not be empty: %w", ErrInvalidShape)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("nn: flatten input shape: %v: %w", err, ErrInvalidShape)
	}
	return &Flatten{
		inShape:  input.Clone(),
		features: input.NumElements(),
	}, nil
}

// InputShape returns the per-sample input shape.
func (l *Flatten) InputShape() tensor.Shape { return l.inShape.Clone() }

// OutputShape returns the flat per-sample shape [features].
func (l *Flatten) OutputShape() tensor.Shape { return tensor.Shape{l.features} }

// Parameters returns nil, nil: flatten has no trainable parameters.
func (l *Flatten) Parameters() (*tensor.Tensor, *tensor.Tensor) { return nil, nil }

// SetParameters fails with ErrShapeMismatch unless both arguments are nil.
func (l *Flatten) SetParameters(weight, bias *tensor.Tensor) error {
	if weight != nil || bias != nil {
		return fmt.Errorf("nn: flatten has no parameters: %w", ErrShapeMismatch)
	}
	return nil
}

func (l *Flatten) flatten(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) < 2 || !shape.Sample().Equal(l.inShape) {
		panic(fmt.Sprintf("nn: flatten expects batches of %v, got %v", l.inShape, shape))
	}
	return x.Reshape(shape[0], l.features)
}

// Predict reshapes the batch without caching.
func (l *Flatten) Predict(x *tensor.Tensor) *tensor.Tensor {
	return l.flatten(x)
}

// Forward reshapes the batch and caches the result.
func (l *Flatten) Forward(x *tensor.Tensor) *tensor.Tensor {
	z := l.flatten(x)
	l.cache.store(z, z)
	return z
}

func (l *Flatten) unflatten(grad *tensor.Tensor) *tensor.Tensor {
	n := grad.Shape()[0]
	return grad.Reshape(l.inShape.WithBatch(n)...)
}

// Backward reshapes the gradient back to the multi-dimensional shape.
func (l *Flatten) Backward(grad, _ *tensor.Tensor) (*tensor.Tensor, Gradients) {
	return l.unflatten(grad), Gradients{}
}

// OutputBackward applies the error-function derivative and reshapes it in
// one step (flatten behaves as an identity activation).
func (l *Flatten) OutputBackward(errFn ErrorFunc, _, target *tensor.Tensor) (*tensor.Tensor, Gradients) {
	if l.cache.Z == nil {
		panic("nn: flatten OutputBackward called before a training-mode Forward")
	}
	return l.unflatten(errFn.Derive(l.cache.Z, target)), Gradients{}
}

// InputBackward returns empty gradients: flatten has nothing to train and
// as a first layer nothing upstream to feed.
func (l *Flatten) InputBackward(_, _ *tensor.Tensor) Gradients {
	return Gradients{}
}

// UpdateParameters is a no-op.
func (l *Flatten) UpdateParameters(_, _ *tensor.Tensor) {}

func (l *Flatten) cached() *cache { return &l.cache }
