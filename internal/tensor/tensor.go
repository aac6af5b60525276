// Package tensor provides the dense float64 tensor type the propnet
// training engine computes on.
//
// Tensors are row-major and always live on the CPU: the engine implements
// forward and backward passes by hand, so the package favours a small,
// concrete API over configurable backends. Batches are tensors whose
// leading axis is the sample index.
package tensor

import "fmt"

// Tensor is a dense float64 array with a shape and row-major strides.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
//	t.Set(1.5, 2, 1)
//	v := t.At(2, 1)
type Tensor struct {
	data   []float64
	shape  Shape
	stride []int
}

// New creates a zero-filled tensor with the given shape.
// It panics if the shape is invalid; use FromSlice for a checked constructor.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return &Tensor{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("tensor: shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}

	t := New(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Strides returns the tensor's memory strides.
func (t *Tensor) Strides() []int {
	return t.stride
}

// Data returns the underlying storage slice (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Item returns the scalar value of a single-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("tensor: Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data[0]
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.stride[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.shape)
	copy(c.data, t.data)
	return c
}

// CopyFrom copies another tensor's contents into this one.
// The shapes must match exactly.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("tensor: cannot copy shape %v into shape %v", src.shape, t.shape)
	}
	copy(t.data, src.data)
	return nil
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}
