// Package powerflow solves the steady-state bus voltages of a network with the
// Newton-Raphson method in polar coordinates.
package powerflow

import (
	"math"

	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/ybus"
)

// Ordering lists the buses that own a row of the mismatch vector. ΔP rows
// follow NonSlack, ΔQ rows follow PQ, both in bus index order.
type Ordering struct {
	NonSlack []int
	PQ       []int
}

// NewOrdering classifies buses by type
func NewOrdering(buses []*network.Bus) Ordering {
	var o Ordering
	for i, b := range buses {
		if b.Type == network.Slack {
			continue
		}
		o.NonSlack = append(o.NonSlack, i)
		if b.Type == network.PQ {
			o.PQ = append(o.PQ, i)
		}
	}
	return o
}

// Size returns the length of the mismatch vector
func (o Ordering) Size() int { return len(o.NonSlack) + len(o.PQ) }

// Injections returns the real and reactive power, per-unit, flowing from each
// bus into the network at the current bus state:
//
//	P_k = Σ_n V_k V_n |Y_kn| cos(δ_k − δ_n − θ_kn)
//	Q_k = Σ_n V_k V_n |Y_kn| sin(δ_k − δ_n − θ_kn)
func Injections(y *ybus.Admittance, buses []*network.Bus) (p, q []float64) {
	n := len(buses)
	p = make([]float64, n)
	q = make([]float64, n)
	for k := 0; k < n; k++ {
		vk, dk := buses[k].V, buses[k].Delta
		for m := 0; m < n; m++ {
			mag, theta := y.Polar(k, m)
			if mag == 0 {
				continue
			}
			s, c := math.Sincos(dk - buses[m].Delta - theta)
			f := vk * buses[m].V * mag
			p[k] += f * c
			q[k] += f * s
		}
	}
	return p, q
}

// Mismatch returns scheduled minus computed injection, ΔP over the
// non-slack buses followed by ΔQ over the PQ buses
func Mismatch(y *ybus.Admittance, buses []*network.Bus, o Ordering, baseMVA float64) []float64 {
	p, q := Injections(y, buses)
	out := make([]float64, 0, o.Size())
	for _, k := range o.NonSlack {
		out = append(out, buses[k].ScheduledP(baseMVA)-p[k])
	}
	for _, k := range o.PQ {
		out = append(out, buses[k].ScheduledQ(baseMVA)-q[k])
	}
	return out
}
