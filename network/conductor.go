package network

import (
	"fmt"
	"math"

	"github.com/notargets/PowerFlow/config"
)

const (
	epsilon0      = 8.854e-12 // F/m
	metersPerMile = 1609.34
)

// Conductor holds the manufacturer data of a single conductor
type Conductor struct {
	Name       string
	Diameter   float64 // inches
	GMR        float64 // feet
	Resistance float64 // Ω/mile
	Ampacity   float64 // A
}

// Radius returns the conductor radius in feet
func (c Conductor) Radius() float64 { return c.Diameter / 24 }

// Bundle groups 1–4 identical sub-conductors on a regular spacing
type Bundle struct {
	Name      string
	Count     int
	Spacing   float64 // feet
	Conductor Conductor
	DSL, DSC  float64 // equivalent GMR for inductance / capacitance, feet
}

// NewBundle computes the bundle's self geometric mean distances
func NewBundle(name string, count int, spacing float64, c Conductor) (*Bundle, error) {
	b := &Bundle{Name: name, Count: count, Spacing: spacing, Conductor: c}
	r, gmr, d := c.Radius(), c.GMR, spacing
	switch count {
	case 1:
		b.DSL, b.DSC = gmr, r
	case 2:
		b.DSL, b.DSC = math.Sqrt(gmr*d), math.Sqrt(r*d)
	case 3:
		b.DSL, b.DSC = math.Cbrt(gmr*d*d), math.Cbrt(r*d*d)
	case 4:
		b.DSL = 1.091 * math.Pow(gmr*d*d*d, 0.25)
		b.DSC = 1.091 * math.Pow(r*d*d*d, 0.25)
	default:
		return nil, fmt.Errorf("%w: bundle %s has %d conductors", ErrUnsupportedBundle, name, count)
	}
	return b, nil
}

// Geometry is the phase layout of a three-phase line, coordinates in feet
type Geometry struct {
	Name           string
	Xa, Ya, Xb, Yb float64
	Xc, Yc         float64
}

// Deq returns the geometric mean of the three phase spacings
func (g Geometry) Deq() float64 {
	dab := math.Hypot(g.Xa-g.Xb, g.Ya-g.Yb)
	dbc := math.Hypot(g.Xb-g.Xc, g.Yb-g.Yc)
	dca := math.Hypot(g.Xc-g.Xa, g.Yc-g.Ya)
	return math.Cbrt(dab * dbc * dca)
}

// LineParameters returns the series impedance (Ω) and shunt charging
// admittance (S) of a transposed line of the given length in miles
func LineParameters(b *Bundle, g Geometry, length float64, sys config.System) (z, y complex128, err error) {
	deq := g.Deq()
	if deq <= 0 || b.DSL <= 0 || b.DSC <= 0 || length <= 0 {
		return 0, 0, fmt.Errorf("%w: degenerate line geometry (Deq=%g, DSL=%g, DSC=%g, length=%g)",
			ErrInvalidParameter, deq, b.DSL, b.DSC, length)
	}
	omega := 2 * math.Pi * sys.Frequency
	r := b.Conductor.Resistance / float64(b.Count)
	// per-meter inductance (H/m) and capacitance (F/m)
	l := 2e-7 * math.Log(deq/b.DSL)
	c := 2 * math.Pi * epsilon0 / math.Log(deq/b.DSC)
	z = complex(r, omega*l*metersPerMile) * complex(length, 0)
	y = complex(0, omega*c*metersPerMile*length)
	return z, y, nil
}

// BaseImpedance returns kV²/MVA in ohms
func BaseImpedance(baseKV float64, sys config.System) float64 {
	return baseKV * baseKV / sys.BaseMVA
}
