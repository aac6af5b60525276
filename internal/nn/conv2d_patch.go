package nn

import "github.com/propnet-ml/propnet/internal/tensor"

// Patch-matrix ("unrolled") convolution.
//
// Every receptive-field patch is linearized into the row of a
// [N*HOut*WOut, C*KH*KW] matrix and the filter bank into a
// [F, C*KH*KW] matrix, reducing the convolution to one matrix product.
// The gradients come out of the same two matrices: the filter gradient is
// a product against the patch matrix, the input gradient folds the
// gradient patches back into place (col2im). Results agree with the
// direct loops to floating tolerance.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).

// im2col builds the patch matrix for an input batch. Each row is one
// output position of one sample; out-of-bounds positions stay zero.
func (l *Conv2D) im2col(x *tensor.Tensor, n int) *tensor.Tensor {
	c, h, w := l.inShape[0], l.inShape[1], l.inShape[2]
	hOut, wOut := l.outShape[1], l.outShape[2]
	colWidth := c * l.kh * l.kw

	cols := tensor.New(tensor.Shape{n * hOut * wOut, colWidth})
	xd, cd := x.Data(), cols.Data()

	colIdx := 0
	for batch := 0; batch < n; batch++ {
		xBatch := xd[batch*c*h*w : (batch+1)*c*h*w]
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*l.sh - l.ph
				wStart := outW*l.sw - l.pw
				bufIdx := colIdx * colWidth
				for ch := 0; ch < c; ch++ {
					xChan := xBatch[ch*h*w : (ch+1)*h*w]
					for kh := 0; kh < l.kh; kh++ {
						hPos := hStart + kh
						for kw := 0; kw < l.kw; kw++ {
							wPos := wStart + kw
							if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
								cd[bufIdx] = xChan[hPos*w+wPos]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
	return cols
}

// col2im scatters patch-matrix rows back into an input-shaped batch,
// accumulating where patches overlap. It is the adjoint of im2col.
func (l *Conv2D) col2im(cols *tensor.Tensor, n int) *tensor.Tensor {
	c, h, w := l.inShape[0], l.inShape[1], l.inShape[2]
	hOut, wOut := l.outShape[1], l.outShape[2]
	colWidth := c * l.kh * l.kw

	out := tensor.New(l.inShape.WithBatch(n))
	cd, dst := cols.Data(), out.Data()

	colIdx := 0
	for batch := 0; batch < n; batch++ {
		dstBatch := dst[batch*c*h*w : (batch+1)*c*h*w]
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*l.sh - l.ph
				wStart := outW*l.sw - l.pw
				bufIdx := colIdx * colWidth
				for ch := 0; ch < c; ch++ {
					dstChan := dstBatch[ch*h*w : (ch+1)*h*w]
					for kh := 0; kh < l.kh; kh++ {
						hPos := hStart + kh
						for kw := 0; kw < l.kw; kw++ {
							wPos := wStart + kw
							if hPos >= 0 && hPos < h && wPos >= 0 && wPos < w {
								dstChan[hPos*w+wPos] += cd[bufIdx]
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
	return out
}

// kernelMatrix returns the filter bank as a [F, C*KH*KW] matrix. The
// filter tensor is row-major, so this is a pure reshape.
func (l *Conv2D) kernelMatrix() *tensor.Tensor {
	f := l.outShape[0]
	return l.filters.Reshape(f, l.inShape[0]*l.kh*l.kw)
}

// rowsToBatch rearranges a [N*HOut*WOut, F] product into the batch layout
// [N, F, HOut, WOut].
func (l *Conv2D) rowsToBatch(rows *tensor.Tensor, n int) *tensor.Tensor {
	f, hOut, wOut := l.outShape[0], l.outShape[1], l.outShape[2]
	out := tensor.New(l.outShape.WithBatch(n))
	src, dst := rows.Data(), out.Data()
	plane := hOut * wOut
	for batch := 0; batch < n; batch++ {
		for pos := 0; pos < plane; pos++ {
			rowBase := (batch*plane + pos) * f
			for filter := 0; filter < f; filter++ {
				dst[batch*f*plane+filter*plane+pos] = src[rowBase+filter]
			}
		}
	}
	return out
}

// batchToRows is the inverse of rowsToBatch, turning an output-shaped
// gradient into the [N*HOut*WOut, F] matrix the products need.
func (l *Conv2D) batchToRows(batchGrad *tensor.Tensor, n int) *tensor.Tensor {
	f, hOut, wOut := l.outShape[0], l.outShape[1], l.outShape[2]
	plane := hOut * wOut
	rows := tensor.New(tensor.Shape{n * plane, f})
	src, dst := batchGrad.Data(), rows.Data()
	for batch := 0; batch < n; batch++ {
		for pos := 0; pos < plane; pos++ {
			rowBase := (batch*plane + pos) * f
			for filter := 0; filter < f; filter++ {
				dst[rowBase+filter] = src[batch*f*plane+filter*plane+pos]
			}
		}
	}
	return rows
}

// patchForward is the patch-matrix forward pass.
func (l *Conv2D) patchForward(x *tensor.Tensor, n int) *tensor.Tensor {
	cols := l.im2col(x, n)
	rows := cols.MatMul(l.kernelMatrix().Transpose()).AddRowVector(l.bias)
	return l.rowsToBatch(rows, n)
}

// patchBackward computes the patch-matrix gradients. dA is the
// activation-gated output gradient; the input gradient is only assembled
// when withInput is set (the first layer of a network never needs it).
func (l *Conv2D) patchBackward(dA, x *tensor.Tensor, n int, withInput bool) (Gradients, *tensor.Tensor) {
	rows := l.batchToRows(dA, n) // [N*HOut*WOut, F]
	cols := l.im2col(x, n)       // [N*HOut*WOut, C*KH*KW]

	kernelGrad := rows.Transpose().MatMul(cols).Reshape(l.filters.Shape()...)
	g := Gradients{Weight: kernelGrad, Bias: rows.ColSum()}

	var inputGrad *tensor.Tensor
	if withInput {
		inputGrad = l.col2im(rows.MatMul(l.kernelMatrix()), n)
	}
	return g, inputGrad
}
