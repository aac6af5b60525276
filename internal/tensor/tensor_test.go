package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 5, Shape{5}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	// The empty shape is a scalar: valid, one element.
	assert.NoError(t, Shape{}.Validate())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShapeBatchHelpers(t *testing.T) {
	s := Shape{8, 3, 28, 28}
	assert.True(t, s.Sample().Equal(Shape{3, 28, 28}))
	assert.True(t, s.Sample().WithBatch(4).Equal(Shape{4, 3, 28, 28}))
}

func TestFromSlice(t *testing.T) {
	tt, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, tt.At(0, 0))
	assert.Equal(t, 6.0, tt.At(1, 2))

	_, err = FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.Error(t, err)
}

func TestSetAndAt(t *testing.T) {
	tt := Zeros(Shape{2, 2})
	tt.Set(7, 1, 0)
	assert.Equal(t, 7.0, tt.At(1, 0))
	assert.Equal(t, 0.0, tt.At(0, 1))
}

func TestCloneIsIndependent(t *testing.T) {
	a, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	b := a.Clone()
	b.Set(9, 0)
	assert.Equal(t, 1.0, a.At(0))
}

func TestUniformSeededAndBounded(t *testing.T) {
	a := Uniform(rand.New(rand.NewSource(3)), -1, 1, Shape{100})
	b := Uniform(rand.New(rand.NewSource(3)), -1, 1, Shape{100})
	assert.Equal(t, a.Data(), b.Data())
	for _, v := range a.Data() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}

func TestReshape(t *testing.T) {
	tt, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	r := tt.Reshape(3, 2)
	assert.True(t, r.Shape().Equal(Shape{3, 2}))
	assert.Equal(t, 4.0, r.At(1, 1))

	assert.Panics(t, func() { tt.Reshape(4, 2) })
}

func TestTranspose(t *testing.T) {
	tt, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	tr := tt.Transpose()
	assert.True(t, tr.Shape().Equal(Shape{3, 2}))
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Data())
}

func TestRows(t *testing.T) {
	tt, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{3, 2})
	require.NoError(t, err)
	r := tt.Rows(1, 3)
	assert.True(t, r.Shape().Equal(Shape{2, 2}))
	assert.Equal(t, []float64{3, 4, 5, 6}, r.Data())

	// Rows copies: mutating the slice leaves the source alone.
	r.Set(0, 0, 0)
	assert.Equal(t, 3.0, tt.At(1, 0))
}

func TestElementwiseMath(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{4, 3, 2, 1}, Shape{2, 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 5, 5, 5}, a.Add(b).Data())
	assert.Equal(t, []float64{-3, -1, 1, 3}, a.Sub(b).Data())
	assert.Equal(t, []float64{4, 6, 6, 4}, a.MulElem(b).Data())
	assert.Equal(t, []float64{2, 4, 6, 8}, a.Scale(2).Data())
	assert.Equal(t, 10.0, a.Sum())
}

func TestAddInPlace(t *testing.T) {
	a, err := FromSlice([]float64{1, 2}, Shape{2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{10, 20}, Shape{2})
	require.NoError(t, err)
	a.AddInPlace(b)
	assert.Equal(t, []float64{11, 22}, a.Data())
}

func TestAddRowVector(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	v, err := FromSlice([]float64{10, 20, 30}, Shape{3})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, a.AddRowVector(v).Data())
}

func TestColSum(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, a.ColSum().Data())
}

func TestArgMaxRows(t *testing.T) {
	a, err := FromSlice([]float64{0.1, 0.9, 0.5, 0.2}, Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, a.ArgMaxRows())
}

func TestMatMul(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	b, err := FromSlice([]float64{7, 8, 9, 10, 11, 12}, Shape{3, 2})
	require.NoError(t, err)

	c := a.MatMul(b)
	assert.True(t, c.Shape().Equal(Shape{2, 2}))
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	assert.Panics(t, func() { b.MatMul(b) })
}
