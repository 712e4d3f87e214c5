package powerflow

import (
	"math/cmplx"

	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/utils"
	"github.com/notargets/PowerFlow/ybus"
)

// Flow is the complex power through one branch in MVA, measured leaving each
// terminal
type Flow struct {
	Name     string
	From, To string
	Sij, Sji complex128
}

// Loss returns the series loss of the branch, including its charging
func (f Flow) Loss() complex128 { return f.Sij + f.Sji }

// BranchFlows evaluates every branch's operating primitive at the current bus
// voltages
func BranchFlows(net *network.Network) []Flow {
	base := complex(net.System.BaseMVA, 0)
	out := make([]Flow, 0, len(net.Branches()))
	for _, br := range net.Branches() {
		i, j := br.Terminals()
		bi, bj := net.Bus(i), net.Bus(j)
		vi, vj := bi.Phasor(), bj.Phasor()
		p := br.Primitive(network.Operating)
		iij := p[0][0]*vi + p[0][1]*vj
		iji := p[1][0]*vi + p[1][1]*vj
		out = append(out, Flow{
			Name: br.Name(),
			From: bi.Name,
			To:   bj.Name,
			Sij:  vi * cmplx.Conj(iij) * base,
			Sji:  vj * cmplx.Conj(iji) * base,
		})
	}
	return out
}

// TotalLoss sums the losses of every branch in MVA
func TotalLoss(flows []Flow) complex128 {
	var sum complex128
	for _, f := range flows {
		sum += f.Loss()
	}
	return sum
}

// BusPower is the net injection at a bus and the generation implied by it
type BusPower struct {
	Name       string
	Type       network.BusType
	P, Q       float64 // net injection, MW / MVAr
	PGen, QGen float64 // injection plus load
}

// BusPowers back-calculates the net injection S_k = V_k·conj(Σ Y_kn V_n) at
// every bus, which gives the slack generation and the PV reactive output
func BusPowers(net *network.Network, y *ybus.Admittance) []BusPower {
	buses := net.Buses()
	v := make([]complex128, len(buses))
	for k, b := range buses {
		v[k] = b.Phasor()
	}
	current := utils.MulCVec(y.Y, v)
	base := net.System.BaseMVA
	out := make([]BusPower, len(buses))
	for k, b := range buses {
		s := v[k] * cmplx.Conj(current[k]) * complex(base, 0)
		out[k] = BusPower{
			Name: b.Name,
			Type: b.Type,
			P:    real(s),
			Q:    imag(s),
			PGen: real(s) + b.PLoad,
			QGen: imag(s) + b.QLoad,
		}
	}
	return out
}
