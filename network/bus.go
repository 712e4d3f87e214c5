package network

import (
	"fmt"
	"math/cmplx"
	"strings"
)

// BusID is the handle of a bus: its position in the network's bus arena
type BusID int

// BusType selects which power-flow equations apply at a bus
type BusType uint8

const (
	PQ    BusType = iota // load bus: P and Q scheduled, V and δ unknown
	PV                   // voltage-controlled bus: P and V scheduled
	Slack                // reference bus: V and δ fixed
)

func (t BusType) String() string {
	switch t {
	case PQ:
		return "PQ"
	case PV:
		return "PV"
	case Slack:
		return "Slack"
	}
	return fmt.Sprintf("BusType(%d)", uint8(t))
}

// ParseBusType accepts "slack", "pv" or "pq" in any case
func ParseBusType(s string) (BusType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slack", "swing":
		return Slack, nil
	case "pv":
		return PV, nil
	case "pq", "":
		return PQ, nil
	}
	return PQ, fmt.Errorf("%w: %q", ErrInvalidBusType, s)
}

// Bus is a node of the network. V and Delta are only written by the
// power-flow solver once the network is built.
type Bus struct {
	Name   string
	Index  BusID
	BaseKV float64

	V     float64 // per-unit magnitude
	Delta float64 // radians
	Type  BusType

	// Scheduled injections in MW / MVAr
	PGen, QGen   float64
	PLoad, QLoad float64
}

// ScheduledP is the net scheduled real power in per-unit on baseMVA
func (b *Bus) ScheduledP(baseMVA float64) float64 {
	return (b.PGen - b.PLoad) / baseMVA
}

// ScheduledQ is the net scheduled reactive power in per-unit on baseMVA
func (b *Bus) ScheduledQ(baseMVA float64) float64 {
	return (b.QGen - b.QLoad) / baseMVA
}

// Phasor returns V∠δ
func (b *Bus) Phasor() complex128 {
	return cmplx.Rect(b.V, b.Delta)
}

// BusIndex is the ordered bus-name → index mapping used to label matrix rows
type BusIndex struct {
	names  []string
	lookup map[string]BusID
}

func newBusIndex() *BusIndex {
	return &BusIndex{lookup: make(map[string]BusID)}
}

func (x *BusIndex) add(name string) BusID {
	id := BusID(len(x.names))
	x.names = append(x.names, name)
	x.lookup[name] = id
	return id
}

// Len returns the number of buses
func (x *BusIndex) Len() int { return len(x.names) }

// Name returns the bus name at id
func (x *BusIndex) Name(id BusID) string { return x.names[id] }

// Lookup returns the index of the named bus
func (x *BusIndex) Lookup(name string) (BusID, bool) {
	id, ok := x.lookup[name]
	return id, ok
}

// Names returns the bus names in index order
func (x *BusIndex) Names() []string {
	out := make([]string, len(x.names))
	copy(out, x.names)
	return out
}
