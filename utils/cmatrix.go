package utils

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a complex matrix cannot be inverted
var ErrSingular = errors.New("utils: matrix is singular")

// NewSquareCDense allocates a zeroed n×n complex matrix
func NewSquareCDense(n int) *mat.CDense {
	return mat.NewCDense(n, n, nil)
}

// AddAt accumulates v into m[i,j]
func AddAt(m *mat.CDense, i, j int, v complex128) {
	m.Set(i, j, m.At(i, j)+v)
}

// realEmbedding maps A = G + jB onto the real 2n×2n block matrix
//
//	[ G  -B ]
//	[ B   G ]
//
// whose inverse carries the real and imaginary parts of A⁻¹ in the same layout.
func realEmbedding(a mat.CMatrix) *mat.Dense {
	n, _ := a.Dims()
	e := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			e.Set(i, j, real(v))
			e.Set(i, j+n, -imag(v))
			e.Set(i+n, j, imag(v))
			e.Set(i+n, j+n, real(v))
		}
	}
	return e
}

// Condition number thresholds, 1-norm, of the real embedding. Above
// SingularCondition the computed inverse is rounding noise; above
// IllConditioned it is still returned alongside a mat.Condition error.
const (
	SingularCondition = 1e12
	IllConditioned    = 1e8
)

// InvertCDense returns A⁻¹ for a square complex matrix. Singular or
// numerically singular matrices return ErrSingular. An ill-conditioned but
// usable inverse is returned together with a mat.Condition error.
func InvertCDense(a mat.CMatrix) (*mat.CDense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("utils: cannot invert %d×%d matrix: %w", n, c, mat.ErrShape)
	}
	e := realEmbedding(a)
	var inv mat.Dense
	if err := inv.Inverse(e); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	cond := mat.Norm(e, 1) * mat.Norm(&inv, 1)
	if math.IsNaN(cond) || cond > SingularCondition {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingular, cond)
	}
	out := NewSquareCDense(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := complex(inv.At(i, j), inv.At(i+n, j))
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return nil, ErrSingular
			}
			out.Set(i, j, v)
		}
	}
	if cond > IllConditioned {
		return out, mat.Condition(cond)
	}
	return out, nil
}

// MulCVec returns A·x
func MulCVec(a mat.CMatrix, x []complex128) []complex128 {
	r, c := a.Dims()
	if c != len(x) {
		panic(fmt.Sprintf("utils: dimension mismatch %d×%d · %d", r, c, len(x)))
	}
	y := make([]complex128, r)
	for i := 0; i < r; i++ {
		var sum complex128
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * x[j]
		}
		y[i] = sum
	}
	return y
}

// IsSymmetric reports whether |A[i,j]-A[j,i]| <= tol for every pair
func IsSymmetric(a mat.CMatrix, tol float64) bool {
	r, c := a.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if cmplx.Abs(a.At(i, j)-a.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// RowSum returns Σ_j A[i,j]
func RowSum(a mat.CMatrix, i int) complex128 {
	_, c := a.Dims()
	var sum complex128
	for j := 0; j < c; j++ {
		sum += a.At(i, j)
	}
	return sum
}

// FormatCDense renders a complex matrix row by row, for logs and reports
func FormatCDense(a mat.CMatrix, labels []string) string {
	r, c := a.Dims()
	var sb strings.Builder
	for i := 0; i < r; i++ {
		if i < len(labels) {
			fmt.Fprintf(&sb, "%-8s", labels[i])
		}
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			fmt.Fprintf(&sb, " %10.4f%+10.4fj", real(v), imag(v))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
