package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propnet-ml/propnet/internal/tensor"
)

func testRand() *rand.Rand { return rand.New(rand.NewSource(42)) }

// fixedDense builds a dense layer with known parameters.
func fixedDense(t *testing.T, in, out int, act Activation, weight, bias []float64) *Dense {
	t.Helper()
	l, err := NewDense(in, out, act, testRand())
	require.NoError(t, err)
	w := vec(t, weight, tensor.Shape{out, in})
	b := vec(t, bias, tensor.Shape{out})
	require.NoError(t, l.SetParameters(w, b))
	return l
}

func TestNewDenseRejectsBadSizes(t *testing.T) {
	_, err := NewDense(0, 3, nil, testRand())
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewDense(3, -1, nil, testRand())
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestDenseShapes(t *testing.T) {
	l, err := NewDense(4, 3, nil, testRand())
	require.NoError(t, err)
	assert.True(t, l.InputShape().Equal(tensor.Shape{4}))
	assert.True(t, l.OutputShape().Equal(tensor.Shape{3}))
}

func TestDenseForward(t *testing.T) {
	// y = x @ W^T + b with W = [[1, 2], [3, 4]], b = [10, 20]
	l := fixedDense(t, 2, 2, nil, []float64{1, 2, 3, 4}, []float64{10, 20})

	out := l.Predict(vec(t, []float64{1, 1, 2, 0}, tensor.Shape{2, 2}))
	assert.Equal(t, []float64{13, 27, 12, 26}, out.Data())
}

func TestDensePredictDoesNotCache(t *testing.T) {
	l := fixedDense(t, 2, 2, nil, []float64{1, 2, 3, 4}, []float64{0, 0})
	l.Predict(vec(t, []float64{1, 1}, tensor.Shape{1, 2}))
	assert.Nil(t, l.cache.A)
	assert.Nil(t, l.cache.Z)
}

func TestDenseForwardCaches(t *testing.T) {
	l := fixedDense(t, 2, 2, NewSigmoid(), []float64{1, 2, 3, 4}, []float64{0, 0})
	x := vec(t, []float64{1, 1}, tensor.Shape{1, 2})
	z := l.Forward(x)

	require.NotNil(t, l.cache.A)
	require.NotNil(t, l.cache.Z)
	assert.Equal(t, []float64{3, 7}, l.cache.A.Data())
	assert.Equal(t, z.Data(), l.cache.Z.Data())
}

func TestDenseBackwardIdentity(t *testing.T) {
	l := fixedDense(t, 2, 2, nil, []float64{1, 2, 3, 4}, []float64{0, 0})
	x := vec(t, []float64{1, 2}, tensor.Shape{1, 2})
	l.Forward(x)

	grad := vec(t, []float64{1, 1}, tensor.Shape{1, 2})
	dX, g := l.Backward(grad, x)

	// dW = grad^T @ x, db = column sums, dX = grad @ W
	assert.Equal(t, []float64{1, 2, 1, 2}, g.Weight.Data())
	assert.Equal(t, []float64{1, 1}, g.Bias.Data())
	assert.Equal(t, []float64{4, 6}, dX.Data())
}

func TestDenseGradientMatchesFiniteDifference(t *testing.T) {
	l, err := NewDense(3, 2, NewSigmoid(), testRand())
	require.NoError(t, err)
	x := vec(t, []float64{0.3, -0.1, 0.7, 0.2, 0.5, -0.4}, tensor.Shape{2, 3})
	target := vec(t, []float64{1, 0, 0, 1}, tensor.Shape{2, 2})
	fn := NewSumSquares()

	l.Forward(x)
	_, g := l.OutputBackward(fn, x, target)

	const eps = 1e-6
	w, _ := l.Parameters()
	for _, idx := range []int{0, 2, 5} {
		orig := w.Data()[idx]
		w.Data()[idx] = orig + eps
		plus := fn.Loss(l.Predict(x), target)
		w.Data()[idx] = orig - eps
		minus := fn.Loss(l.Predict(x), target)
		w.Data()[idx] = orig

		assert.InDelta(t, (plus-minus)/(2*eps), g.Weight.Data()[idx], 1e-6)
	}
}

func TestDenseSetParametersRejectsWrongShapes(t *testing.T) {
	l, err := NewDense(2, 3, nil, testRand())
	require.NoError(t, err)

	err = l.SetParameters(tensor.Zeros(tensor.Shape{2, 3}), tensor.Zeros(tensor.Shape{3}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = l.SetParameters(tensor.Zeros(tensor.Shape{3, 2}), tensor.Zeros(tensor.Shape{2}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = l.SetParameters(nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDenseUpdateParameters(t *testing.T) {
	l := fixedDense(t, 1, 1, nil, []float64{2}, []float64{1})
	l.UpdateParameters(vec(t, []float64{-0.5}, tensor.Shape{1, 1}), vec(t, []float64{0.25}, tensor.Shape{1}))

	w, b := l.Parameters()
	assert.Equal(t, []float64{1.5}, w.Data())
	assert.Equal(t, []float64{1.25}, b.Data())
}

func TestDenseRejectsWrongInputWidth(t *testing.T) {
	l, err := NewDense(3, 2, nil, testRand())
	require.NoError(t, err)
	assert.Panics(t, func() { l.Predict(tensor.Ones(tensor.Shape{1, 4})) })
}
