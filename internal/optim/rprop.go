package optim

import (
	"fmt"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

// Default RProp step-size bounds.
const (
	DefaultDeltaZero = 0.1
	DefaultDeltaMin  = 1e-6
	DefaultDeltaMax  = 50.0
)

// RPropConfig holds the hyperparameters of resilient backpropagation.
// Zero-valued step bounds fall back to the package defaults.
type RPropConfig struct {
	// EtaPlus grows the step size after two gradients of equal sign.
	// Must be >= 1.
	EtaPlus float64

	// EtaMinus shrinks the step size after a sign change. Must lie in
	// (0, 1).
	EtaMinus float64

	// DeltaZero is the initial per-parameter step size.
	DeltaZero float64

	// DeltaMin and DeltaMax clamp the step size.
	DeltaMin float64
	DeltaMax float64
}

func (c *RPropConfig) fillDefaults() {
	if c.DeltaZero == 0 {
		c.DeltaZero = DefaultDeltaZero
	}
	if c.DeltaMin == 0 {
		c.DeltaMin = DefaultDeltaMin
	}
	if c.DeltaMax == 0 {
		c.DeltaMax = DefaultDeltaMax
	}
}

func (c RPropConfig) validate() error {
	if c.EtaPlus < 1 {
		return fmt.Errorf("optim: rprop eta+ must be >= 1, got %g: %w",
			c.EtaPlus, ErrInvalidHyperparameter)
	}
	if c.EtaMinus <= 0 || c.EtaMinus >= 1 {
		return fmt.Errorf("optim: rprop eta- must lie in (0, 1), got %g: %w",
			c.EtaMinus, ErrInvalidHyperparameter)
	}
	if c.DeltaZero <= 0 || c.DeltaMin <= 0 || c.DeltaMax <= 0 {
		return fmt.Errorf("optim: rprop step bounds must be positive: %w",
			ErrInvalidHyperparameter)
	}
	if c.DeltaMin > c.DeltaMax {
		return fmt.Errorf("optim: rprop delta-min %g exceeds delta-max %g: %w",
			c.DeltaMin, c.DeltaMax, ErrInvalidHyperparameter)
	}
	return nil
}

// paramState carries the RProp memory for one parameter tensor: the step
// size and gradient of the previous call, element for element.
type paramState struct {
	delta []float64
	grad  []float64
}

func newParamState(n int, deltaZero float64) *paramState {
	s := &paramState{
		delta: make([]float64, n),
		grad:  make([]float64, n),
	}
	for i := range s.delta {
		s.delta[i] = deltaZero
	}
	return s
}

// layerState pairs the weight and bias memory of one layer.
type layerState struct {
	weight *paramState
	bias   *paramState
}

// RProp implements resilient backpropagation (the RPROP- variant without
// weight backtracking).
//
// Each parameter keeps its own step size. When the gradient keeps its
// sign between two calls the step grows by EtaPlus, when it flips the
// step shrinks by EtaMinus, and the applied delta is always
// -sign(gradient) times the step size. Gradient magnitudes and the batch
// size are ignored, which makes RProp robust to badly scaled losses.
type RProp struct {
	cfg   RPropConfig
	state []layerState
}

// NewRProp creates an RProp optimizer. EtaPlus and EtaMinus are
// mandatory; zero-valued step bounds take the package defaults.
func NewRProp(cfg RPropConfig) (*RProp, error) {
	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &RProp{cfg: cfg}, nil
}

// Config returns the effective hyperparameters after defaulting.
func (r *RProp) Config() RPropConfig { return r.cfg }

// Deltas computes sign-based updates for one backward pass. The first
// call after construction or Clear binds the state to the gradient
// shapes; later calls must present the same shapes.
func (r *RProp) Deltas(grads []nn.Gradients, batchSize int) []Deltas {
	if r.state == nil {
		r.state = make([]layerState, len(grads))
		for i, g := range grads {
			if g.Weight == nil {
				continue
			}
			r.state[i] = layerState{
				weight: newParamState(g.Weight.NumElements(), r.cfg.DeltaZero),
				bias:   newParamState(g.Bias.NumElements(), r.cfg.DeltaZero),
			}
		}
	}
	if len(grads) != len(r.state) {
		panic(fmt.Sprintf("optim: rprop state tracks %d layers, got gradients for %d",
			len(r.state), len(grads)))
	}

	deltas := make([]Deltas, len(grads))
	for i, g := range grads {
		if g.Weight == nil {
			continue
		}
		deltas[i] = Deltas{
			Weight: r.step(r.state[i].weight, g.Weight),
			Bias:   r.step(r.state[i].bias, g.Bias),
		}
	}
	return deltas
}

func (r *RProp) step(st *paramState, grad *tensor.Tensor) *tensor.Tensor {
	g := grad.Data()
	if len(g) != len(st.delta) {
		panic(fmt.Sprintf("optim: rprop state holds %d parameters, got gradient with %d",
			len(st.delta), len(g)))
	}

	out := tensor.Zeros(grad.Shape())
	d := out.Data()
	for j, gj := range g {
		switch s := sign(gj * st.grad[j]); {
		case s > 0:
			st.delta[j] = min(st.delta[j]*r.cfg.EtaPlus, r.cfg.DeltaMax)
		case s < 0:
			st.delta[j] = max(st.delta[j]*r.cfg.EtaMinus, r.cfg.DeltaMin)
		}
		d[j] = -sign(gj) * st.delta[j]
		st.grad[j] = gj
	}
	return out
}

// Clear drops all per-parameter state; the next Deltas call starts from
// DeltaZero again.
func (r *RProp) Clear() { r.state = nil }

var _ Optimizer = (*RProp)(nil)
