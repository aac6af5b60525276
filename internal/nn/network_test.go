package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propnet-ml/propnet/internal/tensor"
)

func TestNewNetworkValidatesChain(t *testing.T) {
	a, err := NewDense(4, 3, nil, testRand())
	require.NoError(t, err)
	b, err := NewDense(2, 1, nil, testRand())
	require.NoError(t, err)

	_, err = NewNetwork(NewSumSquares(), a, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNetworkRequiresErrorFunc(t *testing.T) {
	_, err := NewNetwork(nil)
	assert.Error(t, err)
}

func TestNetworkInsertAndRemove(t *testing.T) {
	first, err := NewDense(4, 3, nil, testRand())
	require.NoError(t, err)
	last, err := NewDense(3, 2, nil, testRand())
	require.NoError(t, err)
	net, err := NewNetwork(NewSumSquares(), first, last)
	require.NoError(t, err)

	middle, err := NewDense(3, 3, NewReLU(), testRand())
	require.NoError(t, err)
	require.NoError(t, net.Insert(1, middle))
	assert.Equal(t, 3, net.Len())

	// Removing the middle layer re-joins 3 -> 3.
	require.NoError(t, net.Remove(1))
	assert.Equal(t, 2, net.Len())

	wrong, err := NewDense(5, 5, nil, testRand())
	require.NoError(t, err)
	assert.ErrorIs(t, net.Insert(1, wrong), ErrShapeMismatch)

	require.NoError(t, net.Insert(1, middle))
	assert.Equal(t, 3, net.Len())
}

func TestNetworkRemoveIncompatibleNeighbours(t *testing.T) {
	a, err := NewDense(4, 3, nil, testRand())
	require.NoError(t, err)
	b, err := NewDense(3, 5, nil, testRand())
	require.NoError(t, err)
	c, err := NewDense(5, 2, nil, testRand())
	require.NoError(t, err)
	net, err := NewNetwork(NewSumSquares(), a, b, c)
	require.NoError(t, err)

	assert.ErrorIs(t, net.Remove(1), ErrShapeMismatch)
}

func TestNetworkPredictMatchesForward(t *testing.T) {
	rng := testRand()
	hidden, err := NewDense(3, 4, NewSigmoid(), rng)
	require.NoError(t, err)
	out, err := NewDense(4, 2, NewSoftmax(), rng)
	require.NoError(t, err)
	net, err := NewNetwork(NewCrossEntropy(), hidden, out)
	require.NoError(t, err)

	x := tensor.Uniform(rng, -1, 1, tensor.Shape{5, 3})
	assert.Equal(t, net.Forward(x).Data(), net.Predict(x).Data())
}

func TestFusedOutputDelta(t *testing.T) {
	z := vec(t, []float64{0.8, 0.2}, tensor.Shape{1, 2})
	target := vec(t, []float64{1, 0}, tensor.Shape{1, 2})

	d := fusedOutputDelta(NewCrossEntropy(), NewSoftmax(), z, target)
	require.NotNil(t, d)
	assert.InDeltaSlice(t, []float64{-0.2, 0.2}, d.Data(), 1e-15)

	d = fusedOutputDelta(NewCrossEntropy(), NewSigmoid(), z, target)
	assert.NotNil(t, d)

	// No shortcut for other pairings.
	assert.Nil(t, fusedOutputDelta(NewSumSquares(), NewSoftmax(), z, target))
	assert.Nil(t, fusedOutputDelta(NewCrossEntropy(), NewIdentity(), z, target))
}

func TestBackpropagateSingleLayerUsesFusedDelta(t *testing.T) {
	l := fixedDense(t, 2, 2, NewSoftmax(), []float64{1, 0, 0, 1}, []float64{0, 0})
	net, err := NewNetwork(NewCrossEntropy(), l)
	require.NoError(t, err)

	x := vec(t, []float64{1, 2}, tensor.Shape{1, 2})
	target := vec(t, []float64{1, 0}, tensor.Shape{1, 2})
	z := net.Forward(x)

	grads := net.Backpropagate(x, target)
	require.Len(t, grads, 1)

	// dW = (Z - T)^T @ X, exactly.
	delta := z.Sub(target)
	assert.Equal(t, delta.Transpose().MatMul(x).Data(), grads[0].Weight.Data())
	assert.Equal(t, delta.ColSum().Data(), grads[0].Bias.Data())
}

func TestBackpropagateEmptyNetworkPanics(t *testing.T) {
	net, err := NewNetwork(NewSumSquares())
	require.NoError(t, err)
	assert.Panics(t, func() {
		net.Backpropagate(tensor.Ones(tensor.Shape{1, 1}), tensor.Ones(tensor.Shape{1, 1}))
	})
}

// TestNetworkGradientMatchesFiniteDifference checks the full chain:
// convolution, flatten and two dense layers under cross-entropy.
func TestNetworkGradientMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	conv, err := NewConv2D(tensor.Shape{1, 5, 5},
		Conv2DConfig{Filters: 2, KernelH: 3, KernelW: 3}, NewSigmoid(), rng)
	require.NoError(t, err)
	flat, err := NewFlatten(conv.OutputShape())
	require.NoError(t, err)
	hidden, err := NewDense(flat.OutputShape()[0], 4, NewSigmoid(), rng)
	require.NoError(t, err)
	out, err := NewDense(4, 3, NewSoftmax(), rng)
	require.NoError(t, err)
	net, err := NewNetwork(NewCrossEntropy(), conv, flat, hidden, out)
	require.NoError(t, err)

	x := tensor.Uniform(rng, -1, 1, tensor.Shape{2, 1, 5, 5})
	target := vec(t, []float64{1, 0, 0, 0, 0, 1}, tensor.Shape{2, 3})

	net.Forward(x)
	grads := net.Backpropagate(x, target)
	require.Len(t, grads, 4)
	assert.Nil(t, grads[1].Weight) // flatten

	const eps = 1e-6
	for _, layer := range []int{0, 2, 3} {
		w, _ := net.Layer(layer).Parameters()
		for _, idx := range []int{0, len(w.Data()) / 2} {
			orig := w.Data()[idx]
			w.Data()[idx] = orig + eps
			plus := net.Loss(x, target)
			w.Data()[idx] = orig - eps
			minus := net.Loss(x, target)
			w.Data()[idx] = orig

			assert.InDelta(t, (plus-minus)/(2*eps), grads[layer].Weight.Data()[idx], 1e-4,
				"layer %d weight %d", layer, idx)
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	rng := testRand()
	hidden, err := NewDense(2, 3, NewSigmoid(), rng)
	require.NoError(t, err)
	out, err := NewDense(3, 2, NewSoftmax(), rng)
	require.NoError(t, err)
	net, err := NewNetwork(NewCrossEntropy(), hidden, out)
	require.NoError(t, err)

	x := tensor.Uniform(rng, -1, 1, tensor.Shape{4, 2})
	before := net.Predict(x)
	saved := net.Snapshot()

	// Snapshot is a deep copy: trashing the network does not touch it.
	w, b := hidden.Parameters()
	for i := range w.Data() {
		w.Data()[i] = 99
	}
	for i := range b.Data() {
		b.Data()[i] = -99
	}

	require.NoError(t, net.Restore(saved))
	assert.Equal(t, before.Data(), net.Predict(x).Data())
}

func TestRestoreRejectsMismatch(t *testing.T) {
	l, err := NewDense(2, 2, nil, testRand())
	require.NoError(t, err)
	net, err := NewNetwork(NewSumSquares(), l)
	require.NoError(t, err)

	assert.ErrorIs(t, net.Restore(nil), ErrShapeMismatch)
	assert.ErrorIs(t, net.Restore([]LayerParams{{
		Weight: tensor.Zeros(tensor.Shape{3, 3}),
		Bias:   tensor.Zeros(tensor.Shape{3}),
	}}), ErrShapeMismatch)
}

func TestSnapshotSkipsParameterFreeLayers(t *testing.T) {
	flat, err := NewFlatten(tensor.Shape{2, 2})
	require.NoError(t, err)
	dense, err := NewDense(4, 2, nil, testRand())
	require.NoError(t, err)
	net, err := NewNetwork(NewSumSquares(), flat, dense)
	require.NoError(t, err)

	saved := net.Snapshot()
	require.Len(t, saved, 2)
	assert.Nil(t, saved[0].Weight)
	require.NoError(t, net.Restore(saved))
}
