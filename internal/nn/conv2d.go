package nn

import (
	"fmt"
	"math/rand"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// ConvAlgo selects the convolution algorithm a Conv2D layer runs.
//
// Both algorithms compute the same sums and must agree within floating
// tolerance, forward and backward; the patch-matrix form trades memory
// for one large matrix multiplication and is the faster path for bigger
// inputs.
type ConvAlgo int

const (
	// ConvDirect evaluates the convolution with nested spatial loops,
	// extracting each receptive-field patch in place.
	ConvDirect ConvAlgo = iota

	// ConvPatchMatrix unrolls every receptive-field patch into the row of
	// a matrix and reduces the convolution to a single matrix product.
	ConvPatchMatrix
)

// Padding describes the zero border added around the spatial input.
type Padding struct {
	h, w int
	same bool
}

// PadValid is the zero-padding configuration ("valid" convolution).
func PadValid() Padding { return Padding{} }

// PadSame computes the padding so that, at stride 1, the output spatial
// size matches the input. It requires odd filter dimensions.
func PadSame() Padding { return Padding{same: true} }

// Pad is an explicit padding of h rows and w columns on each side.
func Pad(h, w int) Padding { return Padding{h: h, w: w} }

// Conv2DConfig configures a convolutional layer.
//
// Zero strides default to 1. Channels optionally declares the filter
// channel count; when set it must agree with the input shape.
type Conv2DConfig struct {
	Filters          int
	KernelH, KernelW int
	StrideH, StrideW int
	Padding          Padding
	Channels         int
	Algo             ConvAlgo
}

// Conv2D is a 2-D convolutional layer.
//
// Input batches are [batch, channels, height, width]; the filter bank is
// [filters, channels, kernelH, kernelW] with one bias per filter. Output
// spatial size per axis is floor((in - kernel + 2*pad) / stride) + 1.
//
// Example:
//
//	conv, err := nn.NewConv2D(tensor.Shape{1, 28, 28}, nn.Conv2DConfig{
//		Filters: 6,
//		KernelH: 5, KernelW: 5,
//	}, nn.NewReLU(), rng) // output shape [6, 24, 24]
type Conv2D struct {
	inShape  tensor.Shape // [C, H, W]
	outShape tensor.Shape // [F, HOut, WOut]
	filters  *tensor.Tensor
	bias     *tensor.Tensor
	kh, kw   int
	sh, sw   int
	ph, pw   int
	algo     ConvAlgo
	act      Activation
	cache    cache
}

// NewConv2D creates a convolutional layer over per-sample inputs of shape
// [channels, height, width]. Filters and biases are initialized to uniform
// values in [-1, 1]. A nil activation defaults to Identity.
//
// Construction fails with ErrInvalidShape when the configuration yields a
// non-positive output dimension (or same-padding is asked of an even
// kernel), and with ErrChannelMismatch when cfg.Channels disagrees with
// the input channel count.
func NewConv2D(input tensor.Shape, cfg Conv2DConfig, act Activation, rng *rand.Rand) (*Conv2D, error) {
	if len(input) != 3 {
		return nil, fmt.Errorf("nn: conv2d input shape must be [channels, height, width], got %v: %w",
			input, ErrInvalidShape)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("nn: conv2d input shape: %v: %w", err, ErrInvalidShape)
	}
	if cfg.Filters <= 0 || cfg.KernelH <= 0 || cfg.KernelW <= 0 {
		return nil, fmt.Errorf("nn: conv2d needs positive filter count and kernel size, got %d %dx%d: %w",
			cfg.Filters, cfg.KernelH, cfg.KernelW, ErrInvalidShape)
	}
	if cfg.StrideH < 0 || cfg.StrideW < 0 {
		return nil, fmt.Errorf("nn: conv2d stride must be positive, got %dx%d: %w",
			cfg.StrideH, cfg.StrideW, ErrInvalidShape)
	}
	channels, h, w := input[0], input[1], input[2]
	if cfg.Channels != 0 && cfg.Channels != channels {
		return nil, fmt.Errorf("nn: conv2d filter channels %d disagree with input channels %d: %w",
			cfg.Channels, channels, ErrChannelMismatch)
	}

	sh, sw := cfg.StrideH, cfg.StrideW
	if sh == 0 {
		sh = 1
	}
	if sw == 0 {
		sw = 1
	}

	ph, pw := cfg.Padding.h, cfg.Padding.w
	if cfg.Padding.same {
		if cfg.KernelH%2 == 0 || cfg.KernelW%2 == 0 {
			return nil, fmt.Errorf("nn: conv2d same-padding requires odd kernel dimensions, got %dx%d: %w",
				cfg.KernelH, cfg.KernelW, ErrInvalidShape)
		}
		ph, pw = (cfg.KernelH-1)/2, (cfg.KernelW-1)/2
	}
	if ph < 0 || pw < 0 {
		return nil, fmt.Errorf("nn: conv2d padding must not be negative, got %dx%d: %w",
			ph, pw, ErrInvalidShape)
	}

	hOut := (h-cfg.KernelH+2*ph)/sh + 1
	wOut := (w-cfg.KernelW+2*pw)/sw + 1
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("nn: conv2d output dimensions %dx%d (input %v, kernel %dx%d, stride %dx%d, padding %dx%d): %w",
			hOut, wOut, input, cfg.KernelH, cfg.KernelW, sh, sw, ph, pw, ErrInvalidShape)
	}

	if act == nil {
		act = NewIdentity()
	}
	l := &Conv2D{
		inShape:  input.Clone(),
		outShape: tensor.Shape{cfg.Filters, hOut, wOut},
		filters:  tensor.Uniform(rng, -1, 1, tensor.Shape{cfg.Filters, channels, cfg.KernelH, cfg.KernelW}),
		bias:     tensor.Uniform(rng, -1, 1, tensor.Shape{cfg.Filters}),
		kh:       cfg.KernelH,
		kw:       cfg.KernelW,
		sh:       sh,
		sw:       sw,
		ph:       ph,
		pw:       pw,
		algo:     cfg.Algo,
		act:      act,
	}
	act.bind(&l.cache)
	return l, nil
}

// InputShape returns the per-sample input shape [channels, height, width].
func (l *Conv2D) InputShape() tensor.Shape { return l.inShape.Clone() }

// OutputShape returns the per-sample output shape [filters, outH, outW].
func (l *Conv2D) OutputShape() tensor.Shape { return l.outShape.Clone() }

// Parameters returns the live filter bank and bias tensors.
func (l *Conv2D) Parameters() (*tensor.Tensor, *tensor.Tensor) {
	return l.filters, l.bias
}

// SetParameters copies new filter and bias values into the layer.
func (l *Conv2D) SetParameters(weight, bias *tensor.Tensor) error {
	if weight == nil || !weight.Shape().Equal(l.filters.Shape()) {
		return fmt.Errorf("nn: conv2d filter shape %v, want %v: %w",
			shapeOf(weight), l.filters.Shape(), ErrShapeMismatch)
	}
	if bias == nil || !bias.Shape().Equal(l.bias.Shape()) {
		return fmt.Errorf("nn: conv2d bias shape %v, want %v: %w",
			shapeOf(bias), l.bias.Shape(), ErrShapeMismatch)
	}
	copy(l.filters.Data(), weight.Data())
	copy(l.bias.Data(), bias.Data())
	return nil
}

func (l *Conv2D) checkBatch(x *tensor.Tensor) int {
	shape := x.Shape()
	if len(shape) != 4 || !shape.Sample().Equal(l.inShape) {
		panic(fmt.Sprintf("nn: conv2d expects [batch, %d, %d, %d] input, got %v",
			l.inShape[0], l.inShape[1], l.inShape[2], shape))
	}
	return shape[0]
}

func (l *Conv2D) preActivate(x *tensor.Tensor) *tensor.Tensor {
	n := l.checkBatch(x)
	if l.algo == ConvPatchMatrix {
		return l.patchForward(x, n)
	}
	return l.directForward(x, n)
}

// directForward evaluates the convolution with nested loops, reading each
// receptive-field patch in place. Out-of-bounds positions are the zero
// padding.
func (l *Conv2D) directForward(x *tensor.Tensor, n int) *tensor.Tensor {
	c, h, w := l.inShape[0], l.inShape[1], l.inShape[2]
	f, hOut, wOut := l.outShape[0], l.outShape[1], l.outShape[2]
	out := tensor.New(l.outShape.WithBatch(n))
	xd, kd, bd, dst := x.Data(), l.filters.Data(), l.bias.Data(), out.Data()

	for batch := 0; batch < n; batch++ {
		xBatch := xd[batch*c*h*w : (batch+1)*c*h*w]
		for filter := 0; filter < f; filter++ {
			kFilter := kd[filter*c*l.kh*l.kw : (filter+1)*c*l.kh*l.kw]
			for outH := 0; outH < hOut; outH++ {
				for outW := 0; outW < wOut; outW++ {
					hStart := outH*l.sh - l.ph
					wStart := outW*l.sw - l.pw
					sum := bd[filter]
					for ch := 0; ch < c; ch++ {
						xChan := xBatch[ch*h*w : (ch+1)*h*w]
						kChan := kFilter[ch*l.kh*l.kw : (ch+1)*l.kh*l.kw]
						for kh := 0; kh < l.kh; kh++ {
							hPos := hStart + kh
							if hPos < 0 || hPos >= h {
								continue
							}
							for kw := 0; kw < l.kw; kw++ {
								wPos := wStart + kw
								if wPos < 0 || wPos >= w {
									continue
								}
								sum += xChan[hPos*w+wPos] * kChan[kh*l.kw+kw]
							}
						}
					}
					dst[batch*f*hOut*wOut+filter*hOut*wOut+outH*wOut+outW] = sum
				}
			}
		}
	}
	return out
}

// Predict runs the forward pass without caching.
func (l *Conv2D) Predict(x *tensor.Tensor) *tensor.Tensor {
	return l.act.Eval(l.preActivate(x))
}

// Forward runs the forward pass and caches A and Z for backpropagation.
func (l *Conv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	a := l.preActivate(x)
	z := l.act.Eval(a)
	l.cache.store(a, z)
	return z
}

// Backward computes dX, dW and db from the output gradient and the input
// the layer saw during Forward.
func (l *Conv2D) Backward(grad, x *tensor.Tensor) (*tensor.Tensor, Gradients) {
	n := l.checkBatch(x)
	dA := l.act.Derive(grad)
	if l.algo == ConvPatchMatrix {
		g, dX := l.patchBackward(dA, x, n, true)
		return dX, g
	}
	return l.inputGrad(dA, n), l.directGradients(dA, x, n)
}

// OutputBackward is Backward with the error-function derivative fused in,
// for when this layer is the network's last.
func (l *Conv2D) OutputBackward(errFn ErrorFunc, x, target *tensor.Tensor) (*tensor.Tensor, Gradients) {
	n := l.checkBatch(x)
	dA := fusedOutputDelta(errFn, l.act, l.cache.Z, target)
	if dA == nil {
		dA = l.act.Derive(errFn.Derive(l.cache.Z, target))
	}
	if l.algo == ConvPatchMatrix {
		g, dX := l.patchBackward(dA, x, n, true)
		return dX, g
	}
	return l.inputGrad(dA, n), l.directGradients(dA, x, n)
}

// InputBackward is Backward without the input gradient, for when this
// layer is the network's first.
func (l *Conv2D) InputBackward(grad, x *tensor.Tensor) Gradients {
	n := l.checkBatch(x)
	dA := l.act.Derive(grad)
	if l.algo == ConvPatchMatrix {
		g, _ := l.patchBackward(dA, x, n, false)
		return g
	}
	return l.directGradients(dA, x, n)
}

// UpdateParameters adds the optimizer deltas to the parameters in place.
func (l *Conv2D) UpdateParameters(deltaWeight, deltaBias *tensor.Tensor) {
	l.filters.AddInPlace(deltaWeight)
	l.bias.AddInPlace(deltaBias)
}

func (l *Conv2D) cached() *cache { return &l.cache }
