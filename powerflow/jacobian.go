package powerflow

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/ybus"
)

// Jacobian returns the real block matrix
//
//	[ ∂P/∂δ  ∂P/∂V ]   [ J1 J2 ]
//	[ ∂Q/∂δ  ∂Q/∂V ] = [ J3 J4 ]
//
// with P rows and δ columns over the non-slack buses and Q rows and V columns
// over the PQ buses.
func Jacobian(y *ybus.Admittance, buses []*network.Bus, o Ordering) *mat.Dense {
	np, nq := len(o.NonSlack), len(o.PQ)
	if np+nq == 0 {
		return nil
	}
	j := mat.NewDense(np+nq, np+nq, nil)
	for r, i := range o.NonSlack {
		for c, k := range o.NonSlack {
			j.Set(r, c, dPdDelta(y, buses, i, k))
		}
		for c, k := range o.PQ {
			j.Set(r, np+c, dPdV(y, buses, i, k))
		}
	}
	for r, i := range o.PQ {
		for c, k := range o.NonSlack {
			j.Set(np+r, c, dQdDelta(y, buses, i, k))
		}
		for c, k := range o.PQ {
			j.Set(np+r, np+c, dQdV(y, buses, i, k))
		}
	}
	return j
}

// term returns |Y_ik| and the sine and cosine of δ_i − δ_k − θ_ik
func term(y *ybus.Admittance, buses []*network.Bus, i, k int) (mag, sin, cos float64) {
	mag, theta := y.Polar(i, k)
	sin, cos = math.Sincos(buses[i].Delta - buses[k].Delta - theta)
	return mag, sin, cos
}

// J1
func dPdDelta(y *ybus.Admittance, buses []*network.Bus, i, k int) float64 {
	vi := buses[i].V
	if i != k {
		mag, s, _ := term(y, buses, i, k)
		return vi * buses[k].V * mag * s
	}
	var sum float64
	for m := range buses {
		if m == i {
			continue
		}
		mag, s, _ := term(y, buses, i, m)
		sum += vi * buses[m].V * mag * s
	}
	return -sum
}

// J2
func dPdV(y *ybus.Admittance, buses []*network.Bus, i, k int) float64 {
	vi := buses[i].V
	if i != k {
		mag, _, c := term(y, buses, i, k)
		return vi * mag * c
	}
	sum := 2 * vi * real(y.At(i, i))
	for m := range buses {
		if m == i {
			continue
		}
		mag, _, c := term(y, buses, i, m)
		sum += buses[m].V * mag * c
	}
	return sum
}

// J3
func dQdDelta(y *ybus.Admittance, buses []*network.Bus, i, k int) float64 {
	vi := buses[i].V
	if i != k {
		mag, _, c := term(y, buses, i, k)
		return -vi * buses[k].V * mag * c
	}
	var sum float64
	for m := range buses {
		if m == i {
			continue
		}
		mag, _, c := term(y, buses, i, m)
		sum += vi * buses[m].V * mag * c
	}
	return sum
}

// J4
func dQdV(y *ybus.Admittance, buses []*network.Bus, i, k int) float64 {
	vi := buses[i].V
	if i != k {
		mag, s, _ := term(y, buses, i, k)
		return vi * mag * s
	}
	sum := -2 * vi * imag(y.At(i, i))
	for m := range buses {
		if m == i {
			continue
		}
		mag, s, _ := term(y, buses, i, m)
		sum += buses[m].V * mag * s
	}
	return sum
}
