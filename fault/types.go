// Package fault computes short-circuit currents and bus voltages from the
// positive, negative and zero sequence bus impedance matrices.
package fault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/PowerFlow/config"
)

var (
	ErrUnsupportedType = errors.New("fault: unsupported fault type")
	ErrUnknownDLGModel = errors.New("fault: unknown double line-to-ground model")
)

// Type is the kind of shunt fault applied at a bus
type Type uint8

const (
	ThreePhase Type = iota
	SingleLineToGround
	LineToLine
	DoubleLineToGround
)

// Types lists every supported fault in the order studies report them
var Types = []Type{ThreePhase, SingleLineToGround, LineToLine, DoubleLineToGround}

func (t Type) String() string {
	switch t {
	case ThreePhase:
		return "3phase"
	case SingleLineToGround:
		return "slg"
	case LineToLine:
		return "ll"
	case DoubleLineToGround:
		return "dlg"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType accepts the short tags "3phase", "slg", "ll" and "dlg" along with
// a few common spellings
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3phase", "3ph", "three-phase", "abc":
		return ThreePhase, nil
	case "slg", "single-line-to-ground", "lg":
		return SingleLineToGround, nil
	case "ll", "line-to-line":
		return LineToLine, nil
	case "dlg", "double-line-to-ground", "llg":
		return DoubleLineToGround, nil
	}
	return ThreePhase, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// DLGModel selects the double line-to-ground current formula
type DLGModel uint8

const (
	// Combined sets I0 = I1 = I2 = V(Z1+Z2+Zf)/(Z0(Z1+Z2+Zf) + Z1Z2 + Zf(Z1+Z2))
	Combined DLGModel = iota
	// Network connects the negative and zero (plus 3Zf) networks in parallel
	// behind the positive network
	Network
)

func (m DLGModel) String() string {
	if m == Network {
		return "network"
	}
	return "combined"
}

// ParseDLGModel accepts "combined" (also "") or "network"
func ParseDLGModel(s string) (DLGModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "combined", "":
		return Combined, nil
	case "network", "textbook":
		return Network, nil
	}
	return Combined, fmt.Errorf("%w: %q", ErrUnknownDLGModel, s)
}

// Options control a fault study
type Options struct {
	PrefaultVoltage complex128
	DLG             DLGModel
}

// OptionsFrom converts loaded settings
func OptionsFrom(c config.Fault) (Options, error) {
	m, err := ParseDLGModel(c.DLGModel)
	if err != nil {
		return Options{}, err
	}
	v := c.PrefaultVoltage
	if v == 0 {
		v = 1
	}
	return Options{PrefaultVoltage: complex(v, 0), DLG: m}, nil
}

// DefaultOptions returns a 1.0 pu prefault voltage and the combined DLG model
func DefaultOptions() Options {
	return Options{PrefaultVoltage: 1, DLG: Combined}
}
