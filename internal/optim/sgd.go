package optim

import (
	"fmt"

	"github.com/propnet-ml/propnet/internal/nn"
)

// SGD implements plain stochastic gradient descent.
//
// Update rule:
//
//	deltaW = -eta * dW / N
//	deltaB = -eta * db / N
//
// where N is the batch size. SGD is stateless: every call is a pure
// function of the learning rate, and Clear is a no-op.
type SGD struct {
	eta float64
}

// NewSGD creates an SGD optimizer with the given learning rate. The rate
// must be positive.
func NewSGD(eta float64) (*SGD, error) {
	if eta <= 0 {
		return nil, fmt.Errorf("optim: sgd learning rate must be positive, got %g: %w",
			eta, ErrInvalidHyperparameter)
	}
	return &SGD{eta: eta}, nil
}

// Eta returns the learning rate.
func (s *SGD) Eta() float64 { return s.eta }

// Deltas scales each gradient by -eta/N.
func (s *SGD) Deltas(grads []nn.Gradients, batchSize int) []Deltas {
	if batchSize <= 0 {
		panic(fmt.Sprintf("optim: batch size must be positive, got %d", batchSize))
	}
	factor := -s.eta / float64(batchSize)
	deltas := make([]Deltas, len(grads))
	for i, g := range grads {
		if g.Weight == nil {
			continue
		}
		deltas[i] = Deltas{
			Weight: g.Weight.Scale(factor),
			Bias:   g.Bias.Scale(factor),
		}
	}
	return deltas
}

// Clear is a no-op: SGD carries no state across steps.
func (s *SGD) Clear() {}

var _ Optimizer = (*SGD)(nil)
