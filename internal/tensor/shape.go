package tensor

import "fmt"

// Shape holds the size of each tensor axis, outermost first.
type Shape []int

// NumElements returns the number of scalar elements a tensor of this
// shape holds. The empty shape is a scalar and counts as one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate reports an error when any axis is non-positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and axis sizes.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// ComputeStrides returns the row-major stride of each axis: the number
// of elements separating consecutive indices along that axis.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// WithBatch returns the batch shape for n samples of this per-sample shape.
//
// Example:
//
//	Shape{3, 8, 8}.WithBatch(32) // Shape{32, 3, 8, 8}
func (s Shape) WithBatch(n int) Shape {
	batched := make(Shape, 0, len(s)+1)
	batched = append(batched, n)
	return append(batched, s...)
}

// Sample returns the per-sample shape of a batch shape (everything after
// the leading batch axis). Panics on scalar shapes.
func (s Shape) Sample() Shape {
	if len(s) == 0 {
		panic("tensor: scalar shape has no sample dimensions")
	}
	return s[1:].Clone()
}

func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}
