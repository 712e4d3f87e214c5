package network

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Connection is the winding arrangement of a two-winding transformer,
// named from-side first
type Connection uint8

const (
	WyeWye Connection = iota
	WyeDelta
	DeltaWye
	DeltaDelta
)

func (c Connection) String() string {
	switch c {
	case WyeWye:
		return "y-y"
	case WyeDelta:
		return "y-delta"
	case DeltaWye:
		return "delta-y"
	case DeltaDelta:
		return "delta-delta"
	}
	return fmt.Sprintf("Connection(%d)", uint8(c))
}

// ParseConnection accepts forms such as "y-y", "Y-Delta", "delta_y", "d-y"
func ParseConnection(s string) (Connection, error) {
	norm := strings.NewReplacer("_", "-", " ", "", "Δ", "delta").Replace(strings.ToLower(strings.TrimSpace(s)))
	parts := strings.Split(norm, "-")
	if len(parts) == 2 {
		from, okFrom := windingIsWye(parts[0])
		to, okTo := windingIsWye(parts[1])
		if okFrom && okTo {
			switch {
			case from && to:
				return WyeWye, nil
			case from:
				return WyeDelta, nil
			case to:
				return DeltaWye, nil
			default:
				return DeltaDelta, nil
			}
		}
	}
	return WyeWye, fmt.Errorf("%w: %q", ErrInvalidConnection, s)
}

func windingIsWye(s string) (wye, ok bool) {
	switch s {
	case "y", "wye", "yg", "star":
		return true, true
	case "d", "delta":
		return false, true
	}
	return false, false
}

// Neutral describes how a wye winding's neutral is tied to ground
type Neutral struct {
	Grounded bool
	Z        complex128 // per-unit grounding impedance
}

// TransformerSpec carries nameplate data for AddTransformer
type TransformerSpec struct {
	Name             string
	From, To         string
	RatingMVA        float64
	ImpedancePercent float64
	XOverR           float64
	Connection       Connection
	FromNeutral      Neutral // ignored on a delta winding
	ToNeutral        Neutral
}

// Transformer is a two-winding transformer modeled by its series impedance
type Transformer struct {
	name        string
	from, to    BusID
	Z           complex128 // per-unit on the system base
	Connection  Connection
	FromNeutral Neutral
	ToNeutral   Neutral
}

// TransformerImpedance converts nameplate percent impedance on the rating to
// per-unit on the system base
func TransformerImpedance(impedancePercent, xOverR, ratingMVA, baseMVA float64) complex128 {
	return cmplx.Rect(impedancePercent/100, math.Atan(xOverR)) * complex(baseMVA/ratingMVA, 0)
}

func (t *Transformer) Name() string                { return t.name }
func (t *Transformer) Terminals() (from, to BusID) { return t.from, t.to }

// SeriesAdmittance returns 1/Z
func (t *Transformer) SeriesAdmittance() complex128 { return 1 / t.Z }

// Primitive returns the admittance contribution per sequence. The
// zero-sequence path depends on the winding connection: current passes
// between windings only for grounded wye on both sides; a grounded wye facing
// a delta stamps only its own diagonal, with the neutral impedance applied on
// that wye side.
func (t *Transformer) Primitive(seq Sequence) Primitive {
	if seq != Zero {
		return seriesPrimitive(t.SeriesAdmittance(), 0)
	}
	three := complex(3, 0)
	switch t.Connection {
	case WyeWye:
		if t.FromNeutral.Grounded && t.ToNeutral.Grounded {
			y0 := 1 / (t.Z + three*t.FromNeutral.Z + three*t.ToNeutral.Z)
			return seriesPrimitive(y0, 0)
		}
	case WyeDelta:
		if t.FromNeutral.Grounded {
			return Primitive{{1 / (t.Z + three*t.FromNeutral.Z), 0}, {0, 0}}
		}
	case DeltaWye:
		if t.ToNeutral.Grounded {
			return Primitive{{0, 0}, {0, 1 / (t.Z + three*t.ToNeutral.Z)}}
		}
	}
	return Primitive{}
}
