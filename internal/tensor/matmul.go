package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatMul returns the matrix product of two 2-D tensors.
//
// [m, k] x [k, n] -> [m, n]. The multiplication is delegated to gonum,
// wrapping both operands without copying.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic(fmt.Sprintf("tensor: MatMul expects 2D tensors, got %v and %v", t.shape, other.shape))
	}
	m, k := t.shape[0], t.shape[1]
	k2, n := other.shape[0], other.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("tensor: MatMul inner dimensions disagree: %v x %v", t.shape, other.shape))
	}

	out := New(Shape{m, n})
	dst := mat.NewDense(m, n, out.data)
	dst.Mul(mat.NewDense(m, k, t.data), mat.NewDense(k2, n, other.data))
	return out
}
