// Copyright 2026 PropNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the epoch-based training loop.
//
// # Basic Usage
//
//	ds, _ := train.NewDataset(samples, labels)
//	trainer, _ := train.NewTrainer(net, opt, train.Config{
//	    Epochs:          50,
//	    BatchSize:       32,
//	    ValidationSplit: 0.2,
//	    Shuffle:         true,
//	})
//	hist, _ := trainer.Fit(ds)
//	fmt.Println(hist.ValAccuracy[hist.BestEpoch])
package train

import (
	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/optim"
	"github.com/propnet-ml/propnet/internal/tensor"
	"github.com/propnet-ml/propnet/internal/train"
)

// Type aliases for public API

// Dataset pairs a batch of samples with their labels.
type Dataset = train.Dataset

// Config holds the training-loop hyperparameters.
type Config = train.Config

// Trainer drives mini-batch training of a network.
type Trainer = train.Trainer

// History records per-epoch metrics of one Fit call.
type History = train.History

// NewDataset creates a dataset from a sample tensor [N, ...] and a label
// tensor [N, ...] with matching batch dimension.
func NewDataset(samples, labels *tensor.Tensor) (*Dataset, error) {
	return train.NewDataset(samples, labels)
}

// NewTrainer validates the configuration and builds a trainer.
func NewTrainer(net *nn.Network, opt optim.Optimizer, cfg Config) (*Trainer, error) {
	return train.NewTrainer(net, opt, cfg)
}

// OneHot encodes integer class labels as a [N, classes] tensor.
func OneHot(labels []int, classes int) (*tensor.Tensor, error) {
	return train.OneHot(labels, classes)
}

// Accuracy compares predictions against labels row by row.
func Accuracy(pred, labels *tensor.Tensor) float64 {
	return train.Accuracy(pred, labels)
}

// LoadConfig reads a JSON config file.
func LoadConfig(path string) (Config, error) {
	return train.LoadConfig(path)
}
