package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propnet-ml/propnet/internal/nn"
	"github.com/propnet-ml/propnet/internal/tensor"
)

func gradsOf(weight, bias []float64) []nn.Gradients {
	w, err := tensor.FromSlice(weight, tensor.Shape{1, len(weight)})
	if err != nil {
		panic(err)
	}
	b, err := tensor.FromSlice(bias, tensor.Shape{len(bias)})
	if err != nil {
		panic(err)
	}
	return []nn.Gradients{{Weight: w, Bias: b}}
}

func TestNewSGDRejectsNonPositiveRate(t *testing.T) {
	for _, eta := range []float64{0, -0.5} {
		_, err := NewSGD(eta)
		assert.ErrorIs(t, err, ErrInvalidHyperparameter)
	}
}

func TestSGDDeltas(t *testing.T) {
	opt, err := NewSGD(0.5)
	require.NoError(t, err)

	grads := gradsOf([]float64{4, -2, 0}, []float64{8})
	deltas := opt.Deltas(grads, 2)
	require.Len(t, deltas, 1)

	// delta = -eta * grad / batchSize
	assert.Equal(t, []float64{-1, 0.5, 0}, deltas[0].Weight.Data())
	assert.Equal(t, []float64{-2}, deltas[0].Bias.Data())
}

func TestSGDSkipsParameterFreeLayers(t *testing.T) {
	opt, err := NewSGD(0.1)
	require.NoError(t, err)

	deltas := opt.Deltas([]nn.Gradients{{}}, 1)
	require.Len(t, deltas, 1)
	assert.Nil(t, deltas[0].Weight)
	assert.Nil(t, deltas[0].Bias)
}

func TestNewRPropValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  RPropConfig
	}{
		{"eta+ below one", RPropConfig{EtaPlus: 0.9, EtaMinus: 0.5}},
		{"eta- zero", RPropConfig{EtaPlus: 1.2, EtaMinus: 0}},
		{"eta- at one", RPropConfig{EtaPlus: 1.2, EtaMinus: 1}},
		{"negative delta-zero", RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5, DeltaZero: -1}},
		{"min above max", RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5, DeltaMin: 2, DeltaMax: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRProp(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidHyperparameter)
		})
	}
}

func TestRPropDefaults(t *testing.T) {
	opt, err := NewRProp(RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5})
	require.NoError(t, err)

	cfg := opt.Config()
	assert.Equal(t, DefaultDeltaZero, cfg.DeltaZero)
	assert.Equal(t, DefaultDeltaMin, cfg.DeltaMin)
	assert.Equal(t, DefaultDeltaMax, cfg.DeltaMax)
}

func TestRPropFirstStepUsesDeltaZero(t *testing.T) {
	opt, err := NewRProp(RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5, DeltaZero: 0.1})
	require.NoError(t, err)

	deltas := opt.Deltas(gradsOf([]float64{3, -7, 0}, []float64{-1}), 4)
	require.Len(t, deltas, 1)

	// The step ignores gradient magnitude and batch size entirely.
	assert.Equal(t, []float64{-0.1, 0.1, 0}, deltas[0].Weight.Data())
	assert.Equal(t, []float64{0.1}, deltas[0].Bias.Data())
}

func TestRPropGrowsAndShrinks(t *testing.T) {
	opt, err := NewRProp(RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5, DeltaZero: 0.1})
	require.NoError(t, err)

	// Step 1: all steps at deltaZero.
	opt.Deltas(gradsOf([]float64{1, 1, 1}, []float64{1}), 1)

	// Step 2: same sign grows, flipped sign shrinks, zero keeps.
	deltas := opt.Deltas(gradsOf([]float64{2, -2, 0}, []float64{1}), 1)
	w := deltas[0].Weight.Data()
	assert.InDelta(t, -0.12, w[0], 1e-12) // 0.1 * 1.2, same sign
	assert.InDelta(t, 0.05, w[1], 1e-12)  // 0.1 * 0.5, sign change
	assert.InDelta(t, 0, w[2], 1e-12)     // zero gradient, no move

	// Step 3.
	deltas = opt.Deltas(gradsOf([]float64{2, -2, 1}, []float64{1}), 1)
	w = deltas[0].Weight.Data()
	assert.InDelta(t, -0.144, w[0], 1e-12) // grown again
	assert.InDelta(t, 0.06, w[1], 1e-12)   // -2 repeated: the shrunk step grows
	assert.InDelta(t, -0.1, w[2], 1e-12)   // previous gradient was zero, step kept
}

func TestRPropClampsStepSize(t *testing.T) {
	opt, err := NewRProp(RPropConfig{
		EtaPlus: 2, EtaMinus: 0.5,
		DeltaZero: 1, DeltaMin: 0.4, DeltaMax: 3,
	})
	require.NoError(t, err)

	grow := gradsOf([]float64{1}, []float64{0})
	opt.Deltas(grow, 1) // delta = 1
	opt.Deltas(grow, 1) // delta = 2
	opt.Deltas(grow, 1) // delta = 3 (capped from 4)
	deltas := opt.Deltas(grow, 1)
	assert.Equal(t, []float64{-3.0}, deltas[0].Weight.Data())

	flip := gradsOf([]float64{-1}, []float64{0})
	opt.Deltas(flip, 1) // delta = 1.5
	opt.Deltas(grow, 1) // delta = 0.75
	deltas = opt.Deltas(flip, 1)
	// delta = 0.4 (floored from 0.375)
	assert.Equal(t, []float64{0.4}, deltas[0].Weight.Data())
}

func TestRPropClearResetsState(t *testing.T) {
	opt, err := NewRProp(RPropConfig{EtaPlus: 1.2, EtaMinus: 0.5, DeltaZero: 0.1})
	require.NoError(t, err)

	g := gradsOf([]float64{1}, []float64{1})
	opt.Deltas(g, 1)
	opt.Deltas(g, 1)
	opt.Clear()

	deltas := opt.Deltas(g, 1)
	assert.Equal(t, []float64{-0.1}, deltas[0].Weight.Data())
}
