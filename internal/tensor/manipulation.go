package tensor

import "fmt"

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved; the data is copied.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	s := Shape(shape)
	if s.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, s))
	}
	r := New(s)
	copy(r.data, t.data)
	return r
}

// Transpose returns the transpose of a 2-D tensor.
func (t *Tensor) Transpose() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: Transpose expects a 2D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols, rows})
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return out
}

// Rows returns a copy of the samples in [start, end) along the leading
// (batch) axis. Panics if the range is out of bounds.
func (t *Tensor) Rows(start, end int) *Tensor {
	if len(t.shape) == 0 {
		panic("tensor: Rows requires at least one axis")
	}
	if start < 0 || end > t.shape[0] || start >= end {
		panic(fmt.Sprintf("tensor: row range [%d, %d) out of bounds for %d rows", start, end, t.shape[0]))
	}
	sampleSize := t.shape.Sample().NumElements()
	out := New(t.shape.Sample().WithBatch(end - start))
	copy(out.data, t.data[start*sampleSize:end*sampleSize])
	return out
}
