// Copyright 2026 PropNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and loads network parameters in the .pnet
// binary format.
//
// Example:
//
//	checkpoint.Save("model.pnet", net.Snapshot())
//	...
//	params, _ := checkpoint.Load("model.pnet")
//	net.Restore(params)
package checkpoint

import (
	"io"

	"github.com/propnet-ml/propnet/internal/checkpoint"
	"github.com/propnet-ml/propnet/internal/nn"
)

// Common errors.
var (
	ErrInvalidMagic       = checkpoint.ErrInvalidMagic
	ErrUnsupportedVersion = checkpoint.ErrUnsupportedVersion
	ErrChecksumMismatch   = checkpoint.ErrChecksumMismatch
)

// Save writes the parameters to a file.
func Save(path string, params []nn.LayerParams) error {
	return checkpoint.Save(path, params)
}

// Load reads parameters from a file.
func Load(path string) ([]nn.LayerParams, error) {
	return checkpoint.Load(path)
}

// Write encodes the parameters to w.
func Write(w io.Writer, params []nn.LayerParams) error {
	return checkpoint.Write(w, params)
}

// Read decodes parameters from r.
func Read(r io.Reader) ([]nn.LayerParams, error) {
	return checkpoint.Read(r)
}
