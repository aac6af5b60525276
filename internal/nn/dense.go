package nn

import (
	"fmt"
	"math/rand"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// Dense is a fully connected layer.
//
// Performs the transformation: A = X @ W.T + b, Z = activation(A)
// where:
//   - X is the input batch with shape [batch, in]
//   - W is the weight matrix with shape [out, in]
//   - b is the bias vector with shape [out]
//   - Z is the output batch with shape [batch, out]
//
// Weights and biases are initialized to independent uniform values in
// [-1, 1] drawn from the generator passed at construction.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer, err := nn.NewDense(784, 128, nn.NewReLU(), rng)
type Dense struct {
	inSize  int
	outSize int
	weight  *tensor.Tensor // [out, in]
	bias    *tensor.Tensor // [out]
	act     Activation
	cache   cache
}

// NewDense creates a fully connected layer mapping inSize features to
// outSize features. A nil activation defaults to Identity. The activation
// is bound to this layer and must not be reused elsewhere.
func NewDense(inSize, outSize int, act Activation, rng *rand.Rand) (*Dense, error) {
	if inSize <= 0 || outSize <= 0 {
		return nil, fmt.Errorf("nn: dense layer sizes must be positive, got %dx%d: %w",
			inSize, outSize, ErrInvalidShape)
	}
	if act == nil {
		act = NewIdentity()
	}

	l := &Dense{
		inSize:  inSize,
		outSize: outSize,
		weight:  tensor.Uniform(rng, -1, 1, tensor.Shape{outSize, inSize}),
		bias:    tensor.Uniform(rng, -1, 1, tensor.Shape{outSize}),
		act:     act,
	}
	act.bind(&l.cache)
	return l, nil
}

// InputShape returns the per-sample input shape [in].
func (l *Dense) InputShape() tensor.Shape { return tensor.Shape{l.inSize} }

// OutputShape returns the per-sample output shape [out].
func (l *Dense) OutputShape() tensor.Shape { return tensor.Shape{l.outSize} }

// Parameters returns the live weight and bias tensors.
func (l *Dense) Parameters() (*tensor.Tensor, *tensor.Tensor) {
	return l.weight, l.bias
}

// SetParameters copies new parameter values into the layer. The shapes
// must match the layer's own parameter shapes.
func (l *Dense) SetParameters(weight, bias *tensor.Tensor) error {
	if weight == nil || !weight.Shape().Equal(l.weight.Shape()) {
		return fmt.Errorf("nn: dense weight shape %v, want %v: %w",
			shapeOf(weight), l.weight.Shape(), ErrShapeMismatch)
	}
	if bias == nil || !bias.Shape().Equal(l.bias.Shape()) {
		return fmt.Errorf("nn: dense bias shape %v, want %v: %w",
			shapeOf(bias), l.bias.Shape(), ErrShapeMismatch)
	}
	copy(l.weight.Data(), weight.Data())
	copy(l.bias.Data(), bias.Data())
	return nil
}

func shapeOf(t *tensor.Tensor) tensor.Shape {
	if t == nil {
		return nil
	}
	return t.Shape()
}

func (l *Dense) preActivate(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != l.inSize {
		panic(fmt.Sprintf("nn: dense layer expects [batch, %d] input, got %v", l.inSize, shape))
	}
	return x.MatMul(l.weight.Transpose()).AddRowVector(l.bias)
}

// Predict runs the forward pass without caching.
func (l *Dense) Predict(x *tensor.Tensor) *tensor.Tensor {
	return l.act.Eval(l.preActivate(x))
}

// Forward runs the forward pass and caches A and Z for backpropagation.
func (l *Dense) Forward(x *tensor.Tensor) *tensor.Tensor {
	a := l.preActivate(x)
	z := l.act.Eval(a)
	l.cache.store(a, z)
	return z
}

func (l *Dense) gradients(dA, x *tensor.Tensor) Gradients {
	return Gradients{
		Weight: dA.Transpose().MatMul(x), // [out, in]
		Bias:   dA.ColSum(),              // [out]
	}
}

// Backward computes dX, dW and db from the output gradient and the input
// the layer saw during Forward.
func (l *Dense) Backward(grad, x *tensor.Tensor) (*tensor.Tensor, Gradients) {
	dA := l.act.Derive(grad)
	return dA.MatMul(l.weight), l.gradients(dA, x)
}

// OutputBackward is Backward with the error-function derivative fused in,
// for when this layer is the network's last.
func (l *Dense) OutputBackward(errFn ErrorFunc, x, target *tensor.Tensor) (*tensor.Tensor, Gradients) {
	dA := fusedOutputDelta(errFn, l.act, l.cache.Z, target)
	if dA == nil {
		dA = l.act.Derive(errFn.Derive(l.cache.Z, target))
	}
	return dA.MatMul(l.weight), l.gradients(dA, x)
}

// InputBackward is Backward without the input gradient, for when this
// layer is the network's first.
func (l *Dense) InputBackward(grad, x *tensor.Tensor) Gradients {
	return l.gradients(l.act.Derive(grad), x)
}

// UpdateParameters adds the optimizer deltas to the parameters in place.
func (l *Dense) UpdateParameters(deltaWeight, deltaBias *tensor.Tensor) {
	l.weight.AddInPlace(deltaWeight)
	l.bias.AddInPlace(deltaBias)
}

func (l *Dense) cached() *cache { return &l.cache }
