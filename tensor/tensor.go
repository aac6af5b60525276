// Copyright 2026 PropNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense float64 tensors
// the framework computes on.
//
// A Tensor is a row-major value with an explicit Shape; the leading
// dimension is the batch dimension throughout the framework.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3})
//	y := tensor.Ones(tensor.Shape{2, 3})
//	z := x.Add(y)
package tensor

import (
	"math/rand"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// Type aliases for public API

// Shape describes tensor dimensions, e.g. [2, 3] for a 2x3 matrix.
type Shape = tensor.Shape

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// New creates a zero tensor with the given shape. It panics on an
// invalid shape.
func New(shape Shape) *Tensor {
	return tensor.New(shape)
}

// FromSlice creates a tensor from data laid out in row-major order.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Uniform creates a tensor with values drawn uniformly from [lo, hi)
// using the given source of randomness.
func Uniform(rng *rand.Rand, lo, hi float64, shape Shape) *Tensor {
	return tensor.Uniform(rng, lo, hi, shape)
}
