package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

func (t *Tensor) binaryOp(other *Tensor, name string, op func(a, b float64) float64) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: %s shape mismatch: %v vs %v", name, t.shape, other.shape))
	}
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = op(t.data[i], other.data[i])
	}
	return out
}

// Add returns the elementwise sum of two same-shaped tensors.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.binaryOp(other, "Add", func(a, b float64) float64 { return a + b })
}

// Sub returns the elementwise difference of two same-shaped tensors.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.binaryOp(other, "Sub", func(a, b float64) float64 { return a - b })
}

// MulElem returns the elementwise (Hadamard) product of two same-shaped tensors.
func (t *Tensor) MulElem(other *Tensor) *Tensor {
	return t.binaryOp(other, "MulElem", func(a, b float64) float64 { return a * b })
}

// Scale returns the tensor multiplied by a scalar.
func (t *Tensor) Scale(s float64) *Tensor {
	out := New(t.shape)
	for i := range t.data {
		out.data[i] = t.data[i] * s
	}
	return out
}

// AddInPlace adds another same-shaped tensor into this one.
func (t *Tensor) AddInPlace(other *Tensor) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: AddInPlace shape mismatch: %v vs %v", t.shape, other.shape))
	}
	floats.Add(t.data, other.data)
}

// AddRowVector adds a length-C vector to every row of a [N, C] tensor
// (bias broadcast over the batch).
func (t *Tensor) AddRowVector(v *Tensor) *Tensor {
	if len(t.shape) != 2 || len(v.shape) != 1 || v.shape[0] != t.shape[1] {
		panic(fmt.Sprintf("tensor: AddRowVector expects [N, C] and [C], got %v and %v", t.shape, v.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := New(t.shape)
	for i := 0; i < rows; i++ {
		row := out.data[i*cols : (i+1)*cols]
		copy(row, t.data[i*cols:(i+1)*cols])
		floats.Add(row, v.data)
	}
	return out
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// ColSum returns the columnwise sums of a [N, C] tensor as a [C] vector.
func (t *Tensor) ColSum() *Tensor {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: ColSum expects a 2D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := New(Shape{cols})
	for i := 0; i < rows; i++ {
		floats.Add(out.data, t.data[i*cols:(i+1)*cols])
	}
	return out
}

// ArgMaxRows returns, for a [N, C] tensor, the index of the maximum entry
// in each row.
func (t *Tensor) ArgMaxRows() []int {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: ArgMaxRows expects a 2D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	idx := make([]int, rows)
	for i := 0; i < rows; i++ {
		idx[i] = floats.MaxIdx(t.data[i*cols : (i+1)*cols])
	}
	return idx
}
