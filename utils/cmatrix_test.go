package utils

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestInvertCDense(t *testing.T) {
	a := mat.NewCDense(3, 3, []complex128{
		4 - 12i, -2 + 6i, 0,
		-2 + 6i, 5 - 15i, -3 + 9i,
		0, -3 + 9i, 3.5 - 10i,
	})
	inv, err := InvertCDense(a)
	require.NoError(t, err)

	// A·A⁻¹ must be the identity
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum complex128
			for k := 0; k < 3; k++ {
				sum += a.At(i, k) * inv.At(k, j)
			}
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(sum-want), 1e-12, "(%d,%d)", i, j)
		}
	}
}

func TestInvertCDenseSingular(t *testing.T) {
	// Lossless two-bus network with no path to ground: rows sum to zero.
	y := 1 / complex(0.01, 0.1)
	a := mat.NewCDense(2, 2, []complex128{y, -y, -y, y})
	_, err := InvertCDense(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSingular))
}

func TestInvertCDenseConditioning(t *testing.T) {
	// κ₁ = 1e9: the inverse is usable but flagged
	a := mat.NewCDense(2, 2, []complex128{1, 0, 0, 1e-9})
	inv, err := InvertCDense(a)
	var cond mat.Condition
	require.True(t, errors.As(err, &cond))
	assert.InDelta(t, 1e9, float64(cond), 1)
	require.NotNil(t, inv)
	assert.InDelta(t, 1e9, real(inv.At(1, 1)), 1e-3)

	// κ₁ = 1e13 is past the singular threshold
	a = mat.NewCDense(2, 2, []complex128{1, 0, 0, 1e-13})
	_, err = InvertCDense(a)
	assert.True(t, errors.Is(err, ErrSingular))
}

func TestMulCVecAndHelpers(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{1, 1i, 1i, 2})
	y := MulCVec(a, []complex128{1, 1})
	assert.Equal(t, []complex128{1 + 1i, 2 + 1i}, y)
	assert.True(t, IsSymmetric(a, 0))
	assert.Equal(t, 2+1i, RowSum(a, 1))

	AddAt(a, 0, 1, 1)
	assert.False(t, IsSymmetric(a, 1e-12))
	assert.Contains(t, FormatCDense(a, []string{"B1", "B2"}), "B2")
}
