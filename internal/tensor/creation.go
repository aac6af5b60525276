package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	// Data is already zero-initialized by make()
	return New(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float64) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [lo, hi).
//
// The generator is passed in explicitly so that weight initialization is
// reproducible: two layers built from generators with the same seed get
// identical parameters.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	w := tensor.Uniform(rng, -1, 1, tensor.Shape{10, 4})
func Uniform(rng *rand.Rand, lo, hi float64, shape Shape) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = lo + rng.Float64()*(hi-lo)
	}
	return t
}
