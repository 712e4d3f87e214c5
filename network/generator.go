package network

// GeneratorSpec carries the data for AddGenerator
type GeneratorSpec struct {
	Name    string
	Bus     string
	MW      float64 // real power setpoint
	Voltage float64 // per-unit voltage setpoint, 0 keeps the bus value

	// Sequence reactances in per-unit on the system base
	X1, X2, X0 float64
	Grounded   bool
	Neutral    complex128 // per-unit grounding impedance
}

// Generator is a synchronous machine attached to one bus
type Generator struct {
	name    string
	bus     BusID
	MW      float64
	Voltage float64

	X1, X2, X0 float64
	Grounded   bool
	Neutral    complex128
}

func (g *Generator) Name() string { return g.name }
func (g *Generator) Bus() BusID   { return g.bus }

// Admittance returns the machine's contribution to the fault networks. The
// operating network carries no generator stamp since the power-flow equations
// model the machine as a scheduled injection.
func (g *Generator) Admittance(seq Sequence) complex128 {
	switch seq {
	case Positive:
		return reactanceAdmittance(g.X1)
	case Negative:
		return reactanceAdmittance(g.X2)
	case Zero:
		if !g.Grounded {
			return 0
		}
		z := complex(0, g.X0) + 3*g.Neutral
		if z == 0 {
			return 0
		}
		return 1 / z
	}
	return 0
}

func reactanceAdmittance(x float64) complex128 {
	if x == 0 {
		return 0
	}
	return 1 / complex(0, x)
}

// Load is a constant-power demand attached to one bus
type Load struct {
	name string
	bus  BusID
	MW   float64
	MVAr float64
}

func (l *Load) Name() string { return l.name }
func (l *Load) Bus() BusID   { return l.bus }
