package network

import (
	"fmt"
	"strings"
)

// ShuntKind distinguishes capacitor banks from reactors
type ShuntKind uint8

const (
	Capacitor ShuntKind = iota
	Inductor
)

func (k ShuntKind) String() string {
	if k == Inductor {
		return "inductor"
	}
	return "capacitor"
}

// ParseShuntKind accepts "capacitor" or "inductor" (also "reactor")
func ParseShuntKind(s string) (ShuntKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "capacitor", "cap", "c":
		return Capacitor, nil
	case "inductor", "reactor", "l":
		return Inductor, nil
	}
	return Capacitor, fmt.Errorf("%w: unknown shunt kind %q", ErrInvalidParameter, s)
}

// Shunt is a fixed ungrounded-neutral shunt bank at one bus
type Shunt struct {
	name string
	bus  BusID
	Kind ShuntKind
	Y    complex128 // per-unit admittance
}

func (s *Shunt) Name() string { return s.name }
func (s *Shunt) Bus() BusID   { return s.bus }

// Admittance returns Y for the balanced networks; the bank's floating neutral
// blocks zero-sequence current.
func (s *Shunt) Admittance(seq Sequence) complex128 {
	if seq == Zero {
		return 0
	}
	return s.Y
}
