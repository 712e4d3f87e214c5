package network

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/notargets/PowerFlow/config"
)

// Network owns every bus and element of one study. Buses live in an arena
// indexed by BusID; elements hold BusIDs rather than pointers.
type Network struct {
	Name   string
	System config.System

	buses []*Bus
	index *BusIndex
	slack BusID

	branches     []Branch
	lines        []*Line
	transformers []*Transformer
	generators   []*Generator
	loads        []*Load
	shunts       []*Shunt

	conductors map[string]Conductor
	bundles    map[string]*Bundle
	geometries map[string]Geometry

	names map[string]map[string]struct{}
}

// New returns an empty network on the given system base
func New(name string, sys config.System) *Network {
	return &Network{
		Name:       name,
		System:     sys,
		index:      newBusIndex(),
		slack:      -1,
		conductors: make(map[string]Conductor),
		bundles:    make(map[string]*Bundle),
		geometries: make(map[string]Geometry),
		names:      make(map[string]map[string]struct{}),
	}
}

// claim reserves name within kind's namespace
func (n *Network) claim(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s requires a name", ErrInvalidParameter, kind)
	}
	set, ok := n.names[kind]
	if !ok {
		set = make(map[string]struct{})
		n.names[kind] = set
	}
	if _, dup := set[name]; dup {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, kind, name)
	}
	set[name] = struct{}{}
	return nil
}

// AddBus appends a PQ bus at 1.0∠0 pu
func (n *Network) AddBus(name string, baseKV float64) (*Bus, error) {
	if baseKV <= 0 {
		return nil, fmt.Errorf("%w: bus %s base kV %g", ErrInvalidParameter, name, baseKV)
	}
	if err := n.claim("bus", name); err != nil {
		return nil, err
	}
	b := &Bus{Name: name, BaseKV: baseKV, V: 1, Type: PQ}
	b.Index = n.index.add(name)
	n.buses = append(n.buses, b)
	return b, nil
}

// Bus returns the bus at id
func (n *Network) Bus(id BusID) *Bus { return n.buses[id] }

// BusByName resolves a bus name
func (n *Network) BusByName(name string) (*Bus, error) {
	id, ok := n.index.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBus, name)
	}
	return n.buses[id], nil
}

// Buses returns the buses in index order. The slice is shared; callers other
// than the power-flow solver must treat the buses as read-only.
func (n *Network) Buses() []*Bus { return n.buses }

// NumBuses returns the bus count
func (n *Network) NumBuses() int { return len(n.buses) }

// Index returns the ordered bus-name mapping
func (n *Network) Index() *BusIndex { return n.index }

// Slack returns the slack bus, if one has been designated
func (n *Network) Slack() (BusID, bool) { return n.slack, n.slack >= 0 }

// DesignateRole sets the power-flow type of a bus. At most one bus may be
// Slack at any time; demoting the current slack frees the role.
func (n *Network) DesignateRole(id BusID, t BusType) error {
	if int(id) < 0 || int(id) >= len(n.buses) {
		return fmt.Errorf("%w: index %d", ErrUnknownBus, id)
	}
	if t > Slack {
		return fmt.Errorf("%w: %v", ErrInvalidBusType, t)
	}
	if t == Slack && n.slack >= 0 && n.slack != id {
		return fmt.Errorf("%w: %s is slack, cannot designate %s",
			ErrSecondSlack, n.buses[n.slack].Name, n.buses[id].Name)
	}
	b := n.buses[id]
	switch {
	case t == Slack:
		n.slack = id
	case n.slack == id:
		n.slack = -1
	}
	b.Type = t
	return nil
}

// FlatStart resets every angle to zero and every PQ magnitude to 1.0 pu.
// Slack and PV magnitudes keep their setpoints.
func (n *Network) FlatStart() {
	for _, b := range n.buses {
		b.Delta = 0
		if b.Type == PQ {
			b.V = 1
		}
	}
}

// AddConductor registers conductor data for later bundles
func (n *Network) AddConductor(c Conductor) error {
	if c.Diameter <= 0 || c.GMR <= 0 || c.Resistance < 0 {
		return fmt.Errorf("%w: conductor %s", ErrInvalidParameter, c.Name)
	}
	if err := n.claim("conductor", c.Name); err != nil {
		return err
	}
	n.conductors[c.Name] = c
	return nil
}

// AddBundle builds a bundle from a registered conductor
func (n *Network) AddBundle(name string, count int, spacing float64, conductor string) (*Bundle, error) {
	c, ok := n.conductors[conductor]
	if !ok {
		return nil, fmt.Errorf("%w: conductor %q", ErrUnknownElement, conductor)
	}
	b, err := NewBundle(name, count, spacing, c)
	if err != nil {
		return nil, err
	}
	if err = n.claim("bundle", name); err != nil {
		return nil, err
	}
	n.bundles[name] = b
	return b, nil
}

// AddGeometry registers a phase layout
func (n *Network) AddGeometry(g Geometry) error {
	if err := n.claim("geometry", g.Name); err != nil {
		return err
	}
	n.geometries[g.Name] = g
	return nil
}

// LineSpec describes a line built from a registered bundle and geometry
type LineSpec struct {
	Name     string
	From, To string
	Bundle   string
	Geometry string
	Length   float64 // miles
	Grounded bool
}

// AddLine computes the line parameters from its bundle and geometry and
// converts them to per-unit on the from-bus impedance base
func (n *Network) AddLine(spec LineSpec) (*Line, error) {
	b, ok := n.bundles[spec.Bundle]
	if !ok {
		return nil, fmt.Errorf("%w: bundle %q", ErrUnknownElement, spec.Bundle)
	}
	g, ok := n.geometries[spec.Geometry]
	if !ok {
		return nil, fmt.Errorf("%w: geometry %q", ErrUnknownElement, spec.Geometry)
	}
	from, err := n.BusByName(spec.From)
	if err != nil {
		return nil, err
	}
	z, y, err := LineParameters(b, g, spec.Length, n.System)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", spec.Name, err)
	}
	zbase := complex(BaseImpedance(from.BaseKV, n.System), 0)
	return n.AddLineImpedance(spec.Name, spec.From, spec.To, z/zbase, y*zbase, spec.Grounded)
}

// AddLineImpedance adds a line whose series impedance and total charging
// admittance are already in per-unit
func (n *Network) AddLineImpedance(name, from, to string, z, shunt complex128, grounded bool) (*Line, error) {
	if z == 0 {
		return nil, fmt.Errorf("%w: line %s has zero series impedance", ErrInvalidParameter, name)
	}
	if !finite(z) || !finite(shunt) {
		return nil, fmt.Errorf("%w: line %s impedance %v, charging %v", ErrInvalidParameter, name, z, shunt)
	}
	i, j, err := n.terminals(from, to)
	if err != nil {
		return nil, err
	}
	if err = n.claim("line", name); err != nil {
		return nil, err
	}
	l := &Line{
		name: name, from: i, to: j,
		Z: z, Shunt: shunt,
		Grounded: grounded, ZeroFactor: DefaultZeroSequenceFactor,
	}
	n.lines = append(n.lines, l)
	n.branches = append(n.branches, l)
	return l, nil
}

// AddTransformer adds a two-winding transformer from nameplate data
func (n *Network) AddTransformer(spec TransformerSpec) (*Transformer, error) {
	if spec.RatingMVA <= 0 || spec.ImpedancePercent <= 0 {
		return nil, fmt.Errorf("%w: transformer %s rating %g MVA, impedance %g%%",
			ErrInvalidParameter, spec.Name, spec.RatingMVA, spec.ImpedancePercent)
	}
	if spec.Connection > DeltaDelta {
		return nil, fmt.Errorf("%w: transformer %s", ErrInvalidConnection, spec.Name)
	}
	i, j, err := n.terminals(spec.From, spec.To)
	if err != nil {
		return nil, err
	}
	if err = n.claim("transformer", spec.Name); err != nil {
		return nil, err
	}
	t := &Transformer{
		name:        spec.Name,
		from:        i,
		to:          j,
		Z:           TransformerImpedance(spec.ImpedancePercent, spec.XOverR, spec.RatingMVA, n.System.BaseMVA),
		Connection:  spec.Connection,
		FromNeutral: spec.FromNeutral,
		ToNeutral:   spec.ToNeutral,
	}
	// a delta winding has no neutral
	if t.Connection == DeltaWye || t.Connection == DeltaDelta {
		t.FromNeutral = Neutral{}
	}
	if t.Connection == WyeDelta || t.Connection == DeltaDelta {
		t.ToNeutral = Neutral{}
	}
	n.transformers = append(n.transformers, t)
	n.branches = append(n.branches, t)
	return t, nil
}

// AddGenerator attaches a machine to its bus. The first generator added makes
// its bus Slack unless a slack is already designated; later generator buses
// become PV.
func (n *Network) AddGenerator(spec GeneratorSpec) (*Generator, error) {
	b, err := n.BusByName(spec.Bus)
	if err != nil {
		return nil, err
	}
	if spec.X1 < 0 || spec.X2 < 0 || spec.X0 < 0 || spec.Voltage < 0 {
		return nil, fmt.Errorf("%w: generator %s", ErrInvalidParameter, spec.Name)
	}
	if err = n.claim("generator", spec.Name); err != nil {
		return nil, err
	}
	role := PV
	if s, ok := n.Slack(); !ok || s == b.Index {
		role = Slack
	}
	if err = n.DesignateRole(b.Index, role); err != nil {
		return nil, err
	}
	g := &Generator{
		name: spec.Name, bus: b.Index,
		MW: spec.MW, Voltage: spec.Voltage,
		X1: spec.X1, X2: spec.X2, X0: spec.X0,
		Grounded: spec.Grounded, Neutral: spec.Neutral,
	}
	b.PGen += spec.MW
	if spec.Voltage > 0 {
		b.V = spec.Voltage
	}
	n.generators = append(n.generators, g)
	return g, nil
}

// AddLoad attaches a constant-power load
func (n *Network) AddLoad(name, bus string, mw, mvar float64) (*Load, error) {
	b, err := n.BusByName(bus)
	if err != nil {
		return nil, err
	}
	if err = n.claim("load", name); err != nil {
		return nil, err
	}
	l := &Load{name: name, bus: b.Index, MW: mw, MVAr: mvar}
	b.PLoad += mw
	b.QLoad += mvar
	n.loads = append(n.loads, l)
	return l, nil
}

// AddShunt attaches a capacitor (value in farads) or inductor (henries),
// converted to per-unit on the bus impedance base
func (n *Network) AddShunt(name, bus string, kind ShuntKind, value float64) (*Shunt, error) {
	if value <= 0 || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: shunt %s value %g", ErrInvalidParameter, name, value)
	}
	b, err := n.BusByName(bus)
	if err != nil {
		return nil, err
	}
	if err = n.claim("shunt", name); err != nil {
		return nil, err
	}
	omega := 2 * math.Pi * n.System.Frequency
	zbase := BaseImpedance(b.BaseKV, n.System)
	var y complex128
	switch kind {
	case Capacitor:
		y = complex(0, omega*value*zbase)
	case Inductor:
		y = complex(0, -zbase/(omega*value))
	default:
		return nil, fmt.Errorf("%w: shunt %s kind %v", ErrInvalidParameter, name, kind)
	}
	s := &Shunt{name: name, bus: b.Index, Kind: kind, Y: y}
	n.shunts = append(n.shunts, s)
	return s, nil
}

func (n *Network) terminals(from, to string) (i, j BusID, err error) {
	if from == to {
		return 0, 0, fmt.Errorf("%w: element connects %s to itself", ErrInvalidParameter, from)
	}
	f, err := n.BusByName(from)
	if err != nil {
		return 0, 0, err
	}
	t, err := n.BusByName(to)
	if err != nil {
		return 0, 0, err
	}
	return f.Index, t.Index, nil
}

// Branches returns every two-terminal element in insertion order
func (n *Network) Branches() []Branch { return n.branches }

// GroundElements returns generators followed by shunts
func (n *Network) GroundElements() []GroundElement {
	out := make([]GroundElement, 0, len(n.generators)+len(n.shunts))
	for _, g := range n.generators {
		out = append(out, g)
	}
	for _, s := range n.shunts {
		out = append(out, s)
	}
	return out
}

func (n *Network) Lines() []*Line                { return n.lines }
func (n *Network) Transformers() []*Transformer  { return n.transformers }
func (n *Network) Generators() []*Generator      { return n.generators }
func (n *Network) Loads() []*Load                { return n.loads }
func (n *Network) Shunts() []*Shunt              { return n.shunts }
func (n *Network) Bundle(name string) *Bundle    { return n.bundles[name] }
func (n *Network) Geometry(name string) Geometry { return n.geometries[name] }

func finite(v complex128) bool {
	return !cmplx.IsNaN(v) && !cmplx.IsInf(v)
}
