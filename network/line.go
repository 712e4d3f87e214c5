package network

// DefaultZeroSequenceFactor scales the positive-sequence series impedance of a
// grounded line to obtain its zero-sequence impedance
const DefaultZeroSequenceFactor = 2.5

// Line is a transmission line modeled as a nominal-π section
type Line struct {
	name     string
	from, to BusID

	Z     complex128 // series impedance, per-unit
	Shunt complex128 // total charging admittance, per-unit

	// Grounded lines carry zero-sequence current with impedance
	// ZeroFactor·Z; ungrounded lines have no zero-sequence path.
	Grounded   bool
	ZeroFactor float64
}

func (l *Line) Name() string                { return l.name }
func (l *Line) Terminals() (from, to BusID) { return l.from, l.to }

// SeriesAdmittance returns 1/Z
func (l *Line) SeriesAdmittance() complex128 { return 1 / l.Z }

// Primitive returns the π-model admittance of the line. Positive and negative
// sequence are identical for a transposed line; the zero-sequence network
// omits line charging.
func (l *Line) Primitive(seq Sequence) Primitive {
	switch seq {
	case Zero:
		if !l.Grounded {
			return Primitive{}
		}
		return seriesPrimitive(1/(complex(l.ZeroFactor, 0)*l.Z), 0)
	default:
		return seriesPrimitive(l.SeriesAdmittance(), l.Shunt)
	}
}
