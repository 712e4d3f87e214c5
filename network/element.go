package network

import "fmt"

// Sequence selects which network an admittance contribution belongs to
type Sequence uint8

const (
	Operating Sequence = iota // balanced power-flow network
	Positive                  // fault positive-sequence network (adds generator reactance)
	Negative
	Zero
)

func (s Sequence) String() string {
	switch s {
	case Operating:
		return "operating"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Zero:
		return "zero"
	}
	return fmt.Sprintf("Sequence(%d)", uint8(s))
}

// Primitive is the 2×2 admittance contribution of a two-terminal element,
// indexed [from, to] × [from, to]
type Primitive [2][2]complex128

// Branch is a two-terminal element stamped into Ybus
type Branch interface {
	Name() string
	Terminals() (from, to BusID)
	Primitive(seq Sequence) Primitive
}

// GroundElement is a single-terminal element whose second terminal is ground.
// It contributes only to the diagonal entry of its bus.
type GroundElement interface {
	Name() string
	Bus() BusID
	Admittance(seq Sequence) complex128
}

// seriesPrimitive is the primitive of a series admittance y with optional
// shunt admittance split equally between the terminals
func seriesPrimitive(y, shunt complex128) Primitive {
	return Primitive{
		{y + shunt/2, -y},
		{-y, y + shunt/2},
	}
}
