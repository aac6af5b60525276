package nn

import "errors"

// Construction and parameter errors.
//
// These are all structural errors: they are detected synchronously at the
// boundary where the disagreement appears and are never retried.
var (
	// ErrShapeMismatch reports a parameter or tensor shape disagreement,
	// e.g. SetParameters called with shapes the layer was not built with.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidShape reports a configuration that yields an impossible
	// geometry, e.g. a convolution whose output dimension is <= 0.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrChannelMismatch reports a filter bank whose channel count
	// disagrees with the layer input.
	ErrChannelMismatch = errors.New("channel mismatch")
)
