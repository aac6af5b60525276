package nn

import (
	"fmt"
	"math"

	"github.com/propnet-ml/propnet/internal/tensor"
)

// crossEntropyEps clamps predictions away from zero before taking the
// logarithm. This is the engine's only numeric mitigation: training never
// aborts on numeric issues.
const crossEntropyEps = 1e-6

// ErrorFunc evaluates a loss over a batch of network outputs and its
// derivative w.r.t. those outputs. Loss returns the batch total; callers
// that report per-sample metrics divide by the batch size themselves.
type ErrorFunc interface {
	// Loss returns the total loss of predictions y against targets t.
	Loss(y, t *tensor.Tensor) float64

	// Derive returns dE/dY, elementwise over the batch.
	Derive(y, t *tensor.Tensor) *tensor.Tensor
}

func checkErrShapes(name string, y, t *tensor.Tensor) {
	if !y.Shape().Equal(t.Shape()) {
		panic(fmt.Sprintf("nn: %s: prediction shape %v disagrees with target shape %v",
			name, y.Shape(), t.Shape()))
	}
}

// SumSquares is the sum-of-squares error E = 0.5 * sum((T - Y)^2).
type SumSquares struct{}

// NewSumSquares creates a sum-of-squares error function.
func NewSumSquares() *SumSquares { return &SumSquares{} }

func (*SumSquares) Loss(y, t *tensor.Tensor) float64 {
	checkErrShapes("SumSquares", y, t)
	sum := 0.0
	yd, td := y.Data(), t.Data()
	for i := range yd {
		d := td[i] - yd[i]
		sum += d * d
	}
	return 0.5 * sum
}

// Derive returns Y - T.
func (*SumSquares) Derive(y, t *tensor.Tensor) *tensor.Tensor {
	checkErrShapes("SumSquares", y, t)
	return y.Sub(t)
}

// CrossEntropy is the categorical cross-entropy error
// E = -sum(T * log(max(Y, eps))) with eps = 1e-6 guarding log(0).
type CrossEntropy struct{}

// NewCrossEntropy creates a cross-entropy error function.
func NewCrossEntropy() *CrossEntropy { return &CrossEntropy{} }

func (*CrossEntropy) Loss(y, t *tensor.Tensor) float64 {
	checkErrShapes("CrossEntropy", y, t)
	sum := 0.0
	yd, td := y.Data(), t.Data()
	for i := range yd {
		if td[i] == 0 {
			continue
		}
		sum += td[i] * math.Log(math.Max(yd[i], crossEntropyEps))
	}
	return -sum
}

// Derive returns -T/max(Y, eps), the same clamp Loss applies inside the
// log, so the gradient stays finite at Y = 0. The last layer replaces
// this composition with the fused (Z - T) form when its activation is
// sigmoid or softmax; the general quotient exists for every other pairing.
func (*CrossEntropy) Derive(y, t *tensor.Tensor) *tensor.Tensor {
	checkErrShapes("CrossEntropy", y, t)
	out := tensor.New(y.Shape())
	yd, td, dst := y.Data(), t.Data(), out.Data()
	for i := range yd {
		dst[i] = -td[i] / math.Max(yd[i], crossEntropyEps)
	}
	return out
}
