package fault

import (
	"math"
	"math/cmplx"
)

// a is the 120° rotation operator
var a = cmplx.Rect(1, 2*math.Pi/3)

// SequenceToPhase returns [a b c] = A·[0 1 2] with
//
//	A = [1  1  1 ]
//	    [1  a² a ]
//	    [1  a  a²]
func SequenceToPhase(s [3]complex128) [3]complex128 {
	a2 := a * a
	return [3]complex128{
		s[0] + s[1] + s[2],
		s[0] + a2*s[1] + a*s[2],
		s[0] + a*s[1] + a2*s[2],
	}
}

// PhaseToSequence is the inverse transform, A⁻¹ = ⅓·[1 1 1; 1 a a²; 1 a² a]
func PhaseToSequence(p [3]complex128) [3]complex128 {
	a2 := a * a
	third := complex(1.0/3, 0)
	return [3]complex128{
		third * (p[0] + p[1] + p[2]),
		third * (p[0] + a*p[1] + a2*p[2]),
		third * (p[0] + a2*p[1] + a*p[2]),
	}
}
