// Copyright 2026 PropNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv2D, Flatten
//   - Activations: Identity, Sigmoid, ReLU, Softmax
//   - Error functions: SumSquares, CrossEntropy
//   - Network: an ordered stack of layers with backpropagation
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	hidden, _ := nn.NewDense(784, 128, nn.NewSigmoid(), rng)
//	output, _ := nn.NewDense(128, 10, nn.NewSoftmax(), rng)
//	net, _ := nn.NewNetwork(nn.NewCrossEntropy(), hidden, output)
//
//	net.Forward(x)
//	grads := net.Backpropagate(x, labels)
package nn

import (
	"math/rand"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// Type aliases for public API

// Layer is one stage of a network: forward evaluation plus the backward
// contract that produces parameter gradients.
type Layer = nn.Layer

// Gradients holds one layer's parameter gradients.
type Gradients = nn.Gradients

// LayerParams is a snapshot of one layer's parameters.
type LayerParams = nn.LayerParams

// Network is an ordered stack of shape-compatible layers.
type Network = nn.Network

// Activation maps pre-activations to activations and gradients back
// through them.
type Activation = nn.Activation

// ErrorFunc scores predictions against targets.
type ErrorFunc = nn.ErrorFunc

// Layer configuration.
type (
	Conv2DConfig = nn.Conv2DConfig
	ConvAlgo     = nn.ConvAlgo
	Padding      = nn.Padding
)

// Convolution algorithms.
const (
	ConvDirect      = nn.ConvDirect
	ConvPatchMatrix = nn.ConvPatchMatrix
)

// Common errors.
var (
	ErrShapeMismatch   = nn.ErrShapeMismatch
	ErrInvalidShape    = nn.ErrInvalidShape
	ErrChannelMismatch = nn.ErrChannelMismatch
)

// NewNetwork creates a network from an error function and layers,
// validating that consecutive shapes line up.
func NewNetwork(errFn ErrorFunc, layers ...Layer) (*Network, error) {
	return nn.NewNetwork(errFn, layers...)
}

// NewDense creates a fully-connected layer with weights drawn uniformly
// from [-1, 1). A nil activation means identity.
func NewDense(inSize, outSize int, act Activation, rng *rand.Rand) (*nn.Dense, error) {
	return nn.NewDense(inSize, outSize, act, rng)
}

// NewConv2D creates a 2-D convolution layer over [C, H, W] inputs.
func NewConv2D(input tensor.Shape, cfg Conv2DConfig, act Activation, rng *rand.Rand) (*nn.Conv2D, error) {
	return nn.NewConv2D(input, cfg, act, rng)
}

// NewFlatten creates a layer reshaping [C, H, W] samples into vectors.
func NewFlatten(input tensor.Shape) (*nn.Flatten, error) {
	return nn.NewFlatten(input)
}

// Activations.

// NewIdentity creates the pass-through activation.
func NewIdentity() *nn.Identity { return nn.NewIdentity() }

// NewSigmoid creates the logistic activation.
func NewSigmoid() *nn.Sigmoid { return nn.NewSigmoid() }

// NewReLU creates the rectified linear activation.
func NewReLU() *nn.ReLU { return nn.NewReLU() }

// NewSoftmax creates the row-wise softmax activation.
func NewSoftmax() *nn.Softmax { return nn.NewSoftmax() }

// Error functions.

// NewSumSquares creates the sum-of-squares error function.
func NewSumSquares() *nn.SumSquares { return nn.NewSumSquares() }

// NewCrossEntropy creates the categorical cross-entropy error function.
func NewCrossEntropy() *nn.CrossEntropy { return nn.NewCrossEntropy() }

// Padding constructors.

// PadValid applies no padding.
func PadValid() Padding { return nn.PadValid() }

// PadSame pads so the spatial output size equals the input size at
// stride one. Requires odd kernel sizes.
func PadSame() Padding { return nn.PadSame() }

// Pad applies an explicit number of zero rows and columns on each side.
func Pad(h, w int) Padding { return nn.Pad(h, w) }
