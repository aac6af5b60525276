package nn

import "github.com/propnet-ml/propnet/internal/tensor"

// Direct-algorithm gradients. Both reductions mirror the forward loop
// geometry: the filter gradient gathers input*outputGrad products over
// every batch sample and output position, the input gradient scatters each
// output-gradient value back through the filter taps that produced it.
// Positions that fell in the zero padding contribute nothing, and strides
// that leave a remainder at the input edge are handled by the same bounds
// checks, so the input gradient always comes back in the exact input
// shape.

// directGradients computes the filter and bias gradients for the direct
// algorithm. dA is the activation-gated output gradient [N, F, HOut, WOut].
func (l *Conv2D) directGradients(dA, x *tensor.Tensor, n int) Gradients {
	c, h, w := l.inShape[0], l.inShape[1], l.inShape[2]
	f, hOut, wOut := l.outShape[0], l.outShape[1], l.outShape[2]

	kernelGrad := tensor.New(l.filters.Shape())
	biasGrad := tensor.New(l.bias.Shape())
	gd, xd := dA.Data(), x.Data()
	kg, bg := kernelGrad.Data(), biasGrad.Data()

	for filter := 0; filter < f; filter++ {
		for ch := 0; ch < c; ch++ {
			for kh := 0; kh < l.kh; kh++ {
				for kw := 0; kw < l.kw; kw++ {
					sum := 0.0
					for batch := 0; batch < n; batch++ {
						for outH := 0; outH < hOut; outH++ {
							hPos := outH*l.sh - l.ph + kh
							if hPos < 0 || hPos >= h {
								continue
							}
							for outW := 0; outW < wOut; outW++ {
								wPos := outW*l.sw - l.pw + kw
								if wPos < 0 || wPos >= w {
									continue
								}
								inputIdx := batch*c*h*w + ch*h*w + hPos*w + wPos
								gradIdx := batch*f*hOut*wOut + filter*hOut*wOut + outH*wOut + outW
								sum += xd[inputIdx] * gd[gradIdx]
							}
						}
					}
					kg[filter*c*l.kh*l.kw+ch*l.kh*l.kw+kh*l.kw+kw] = sum
				}
			}
		}
	}

	for batch := 0; batch < n; batch++ {
		for filter := 0; filter < f; filter++ {
			base := batch*f*hOut*wOut + filter*hOut*wOut
			for i := 0; i < hOut*wOut; i++ {
				bg[filter] += gd[base+i]
			}
		}
	}

	return Gradients{Weight: kernelGrad, Bias: biasGrad}
}

// inputGrad computes the gradient w.r.t. the layer input for the direct
// algorithm (the transposed convolution).
func (l *Conv2D) inputGrad(dA *tensor.Tensor, n int) *tensor.Tensor {
	c, h, w := l.inShape[0], l.inShape[1], l.inShape[2]
	f, hOut, wOut := l.outShape[0], l.outShape[1], l.outShape[2]

	inputGrad := tensor.New(l.inShape.WithBatch(n))
	gd, kd, dst := dA.Data(), l.filters.Data(), inputGrad.Data()

	for batch := 0; batch < n; batch++ {
		gradBatch := gd[batch*f*hOut*wOut : (batch+1)*f*hOut*wOut]
		dstBatch := dst[batch*c*h*w : (batch+1)*c*h*w]
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				for filter := 0; filter < f; filter++ {
					gradVal := gradBatch[filter*hOut*wOut+outH*wOut+outW]
					kFilter := kd[filter*c*l.kh*l.kw : (filter+1)*c*l.kh*l.kw]
					for ch := 0; ch < c; ch++ {
						dstChan := dstBatch[ch*h*w : (ch+1)*h*w]
						kChan := kFilter[ch*l.kh*l.kw : (ch+1)*l.kh*l.kw]
						for kh := 0; kh < l.kh; kh++ {
							hPos := outH*l.sh - l.ph + kh
							if hPos < 0 || hPos >= h {
								continue
							}
							for kw := 0; kw < l.kw; kw++ {
								wPos := outW*l.sw - l.pw + kw
								if wPos < 0 || wPos >= w {
									continue
								}
								dstChan[hPos*w+wPos] += gradVal * kChan[kh*l.kw+kw]
							}
						}
					}
				}
			}
		}
	}
	return inputGrad
}
