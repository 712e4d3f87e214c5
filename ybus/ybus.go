// Package ybus assembles the nodal admittance matrix of a network for each
// symmetrical-component sequence.
package ybus

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/utils"
)

// ErrSingular is returned when a diagonal entry of the assembled matrix is
// exactly zero, i.e. some bus has no admittance path at all.
var ErrSingular = errors.New("ybus: singular admittance matrix")

// Admittance is a bus admittance matrix with the bus ordering that labels its
// rows and columns
type Admittance struct {
	Sequence network.Sequence
	Index    *network.BusIndex
	Y        *mat.CDense
}

// Size returns the number of buses
func (a *Admittance) Size() int {
	n, _ := a.Y.Dims()
	return n
}

// At returns Y[i,j]
func (a *Admittance) At(i, j int) complex128 {
	return a.Y.At(i, j)
}

// Polar returns |Y[i,j]| and its angle in radians
func (a *Admittance) Polar(i, j int) (mag, theta float64) {
	return cmplx.Polar(a.Y.At(i, j))
}

func (a *Admittance) String() string {
	return fmt.Sprintf("Ybus (%s)\n%s", a.Sequence, utils.FormatCDense(a.Y, a.Index.Names()))
}

// Assemble builds the admittance matrix of one sequence network. Every branch
// stamps its 2×2 primitive into the rows and columns of its terminals, and
// every ground element adds to its bus diagonal; stamping order does not
// matter. Generators only appear in the fault sequences.
func Assemble(net *network.Network, seq network.Sequence) (*Admittance, error) {
	n := net.NumBuses()
	if n == 0 {
		return nil, fmt.Errorf("%w: network %s has no buses", ErrSingular, net.Name)
	}
	y := utils.NewSquareCDense(n)

	for _, br := range net.Branches() {
		stamp(y, br, seq)
	}
	for _, g := range net.GroundElements() {
		k := int(g.Bus())
		utils.AddAt(y, k, k, g.Admittance(seq))
	}

	if seq == network.Zero {
		correctZeroDiagonals(y)
	}
	for k := 0; k < n; k++ {
		if y.At(k, k) == 0 {
			return nil, fmt.Errorf("%w: %s sequence diagonal at bus %s is zero",
				ErrSingular, seq, net.Index().Name(network.BusID(k)))
		}
	}
	return &Admittance{Sequence: seq, Index: net.Index(), Y: y}, nil
}

func stamp(y *mat.CDense, br network.Branch, seq network.Sequence) {
	from, to := br.Terminals()
	i, j := int(from), int(to)
	p := br.Primitive(seq)
	utils.AddAt(y, i, i, p[0][0])
	utils.AddAt(y, i, j, p[0][1])
	utils.AddAt(y, j, i, p[1][0])
	utils.AddAt(y, j, j, p[1][1])
}

// correctZeroDiagonals replaces a zero diagonal whose row still has mutual
// terms with the negated sum of those terms
func correctZeroDiagonals(y *mat.CDense) {
	n, _ := y.Dims()
	for k := 0; k < n; k++ {
		if y.At(k, k) != 0 {
			continue
		}
		var off complex128
		for j := 0; j < n; j++ {
			if j != k {
				off += y.At(k, j)
			}
		}
		if off != 0 {
			y.Set(k, k, -off)
		}
	}
}

// All assembles the Positive, Negative and Zero networks used by fault studies
func All(net *network.Network) (pos, neg, zero *Admittance, err error) {
	if pos, err = Assemble(net, network.Positive); err != nil {
		return nil, nil, nil, err
	}
	if neg, err = Assemble(net, network.Negative); err != nil {
		return nil, nil, nil, err
	}
	if zero, err = Assemble(net, network.Zero); err != nil {
		return nil, nil, nil, err
	}
	return pos, neg, zero, nil
}
