package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// Activation is an elementwise activation function bound to exactly one
// layer. The binding is a non-owning back-reference to the layer's forward
// cache: Sigmoid's derivative reads the cached post-activation Z, ReLU's
// the cached pre-activation A. An activation must never be shared across
// layers; bind panics on a second binding attempt.
type Activation interface {
	// Eval applies the function elementwise to the pre-activation tensor.
	Eval(a *tensor.Tensor) *tensor.Tensor

	// Derive converts the gradient w.r.t. the post-activation Z into the
	// gradient w.r.t. the pre-activation A, using the bound layer's cache.
	Derive(grad *tensor.Tensor) *tensor.Tensor

	bind(c *cache)
}

type binding struct {
	layer *cache
}

func (b *binding) bind(c *cache) {
	if b.layer != nil {
		panic("nn: activation is already bound to a layer")
	}
	b.layer = c
}

func (b *binding) cachedA(name string) *tensor.Tensor {
	if b.layer == nil || b.layer.A == nil {
		panic("nn: " + name + ".Derive called before a training-mode Forward")
	}
	return b.layer.A
}

func (b *binding) cachedZ(name string) *tensor.Tensor {
	if b.layer == nil || b.layer.Z == nil {
		panic("nn: " + name + ".Derive called before a training-mode Forward")
	}
	return b.layer.Z
}

// Identity is the no-op activation: Eval and Derive pass values through.
type Identity struct {
	binding
}

// NewIdentity creates an identity activation.
func NewIdentity() *Identity { return &Identity{} }

func (*Identity) Eval(a *tensor.Tensor) *tensor.Tensor { return a.Clone() }

func (*Identity) Derive(grad *tensor.Tensor) *tensor.Tensor { return grad.Clone() }

// Sigmoid is the logistic activation 1 / (1 + e^-a).
type Sigmoid struct {
	binding
}

// NewSigmoid creates a sigmoid activation.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

func (*Sigmoid) Eval(a *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(a.Shape())
	src, dst := a.Data(), out.Data()
	for i, v := range src {
		dst[i] = 1.0 / (1.0 + math.Exp(-v))
	}
	return out
}

// Derive computes grad * Z * (1 - Z) from the cached post-activation.
func (s *Sigmoid) Derive(grad *tensor.Tensor) *tensor.Tensor {
	z := s.cachedZ("Sigmoid")
	out := tensor.New(grad.Shape())
	g, zd, dst := grad.Data(), z.Data(), out.Data()
	for i := range g {
		dst[i] = g[i] * zd[i] * (1.0 - zd[i])
	}
	return out
}

// ReLU is the rectified linear activation max(0, a).
type ReLU struct {
	binding
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return &ReLU{} }

func (*ReLU) Eval(a *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(a.Shape())
	src, dst := a.Data(), out.Data()
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
	return out
}

// Derive gates the gradient on the sign of the cached pre-activation:
// grad where A >= 0, zero elsewhere.
func (r *ReLU) Derive(grad *tensor.Tensor) *tensor.Tensor {
	a := r.cachedA("ReLU")
	out := tensor.New(grad.Shape())
	g, ad, dst := grad.Data(), a.Data(), out.Data()
	for i := range g {
		if ad[i] >= 0 {
			dst[i] = g[i]
		}
	}
	return out
}

// Softmax normalizes each row of a [N, C] pre-activation into a
// probability distribution. The row maximum is subtracted before
// exponentiating so large logits cannot overflow.
type Softmax struct {
	binding
}

// NewSoftmax creates a softmax activation.
func NewSoftmax() *Softmax { return &Softmax{} }

func (*Softmax) Eval(a *tensor.Tensor) *tensor.Tensor {
	shape := a.Shape()
	if len(shape) != 2 {
		panic("nn: Softmax expects a 2D [batch, classes] tensor")
	}
	rows, cols := shape[0], shape[1]
	out := tensor.New(shape)
	src, dst := a.Data(), out.Data()
	for i := 0; i < rows; i++ {
		row := src[i*cols : (i+1)*cols]
		outRow := dst[i*cols : (i+1)*cols]
		max := floats.Max(row)
		for j, v := range row {
			outRow[j] = math.Exp(v - max)
		}
		sum := floats.Sum(outRow)
		for j := range outRow {
			outRow[j] /= sum
		}
	}
	return out
}

// Derive computes the softmax Jacobian-vector product per row:
// deltaZ - Z * rowsum(deltaZ) with deltaZ = grad * Z.
func (s *Softmax) Derive(grad *tensor.Tensor) *tensor.Tensor {
	z := s.cachedZ("Softmax")
	shape := grad.Shape()
	rows, cols := shape[0], shape[1]
	out := tensor.New(shape)
	g, zd, dst := grad.Data(), z.Data(), out.Data()
	for i := 0; i < rows; i++ {
		base := i * cols
		rowSum := 0.0
		for j := 0; j < cols; j++ {
			dst[base+j] = g[base+j] * zd[base+j]
			rowSum += dst[base+j]
		}
		for j := 0; j < cols; j++ {
			dst[base+j] -= zd[base+j] * rowSum
		}
	}
	return out
}
