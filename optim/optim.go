// Copyright 2026 PropNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizers for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: plain stochastic gradient descent
//   - RProp: resilient backpropagation with per-parameter step sizes
//   - Optimizer interface for custom update rules
//
// # Basic Usage
//
//	opt, _ := optim.NewRProp(optim.RPropConfig{
//	    EtaPlus:  1.2,
//	    EtaMinus: 0.5,
//	})
//
//	net.Forward(x)
//	grads := net.Backpropagate(x, labels)
//	for i, d := range opt.Deltas(grads, batchSize) {
//	    net.Layer(i).UpdateParameters(d.Weight, d.Bias)
//	}
package optim

import (
	"github.com/propnet-ml/propnet/internal/optim"
)

// Type aliases for public API

// Optimizer turns per-layer gradients into parameter deltas.
type Optimizer = optim.Optimizer

// Deltas holds one layer's parameter updates.
type Deltas = optim.Deltas

// SGD is plain stochastic gradient descent.
type SGD = optim.SGD

// RProp is resilient backpropagation.
type RProp = optim.RProp

// RPropConfig contains the RProp hyperparameters.
type RPropConfig = optim.RPropConfig

// Default RProp step-size bounds.
const (
	DefaultDeltaZero = optim.DefaultDeltaZero
	DefaultDeltaMin  = optim.DefaultDeltaMin
	DefaultDeltaMax  = optim.DefaultDeltaMax
)

// ErrInvalidHyperparameter reports an out-of-range configuration value.
var ErrInvalidHyperparameter = optim.ErrInvalidHyperparameter

// NewSGD creates an SGD optimizer with the given learning rate.
func NewSGD(eta float64) (*SGD, error) {
	return optim.NewSGD(eta)
}

// NewRProp creates an RProp optimizer. Zero-valued step bounds take the
// package defaults.
func NewRProp(cfg RPropConfig) (*RProp, error) {
	return optim.NewRProp(cfg)
}
