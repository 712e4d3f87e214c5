package fault

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/utils"
	"github.com/notargets/PowerFlow/ybus"
)

// BusVoltage holds the post-fault voltages at one bus, per-unit
type BusVoltage struct {
	Name     string
	Sequence [3]complex128 // V0, V1, V2
	Phase    [3]complex128 // Va, Vb, Vc
}

// Result is the outcome of one fault
type Result struct {
	Bus       string
	Type      Type
	Impedance complex128

	Sequence [3]complex128 // I0, I1, I2 at the fault, per-unit
	Phase    [3]complex128 // Ia, Ib, Ic at the fault, per-unit
	BaseKA   float64       // current base at the faulted bus

	Voltages []BusVoltage
}

// PhaseKA returns the fault phase current magnitudes in kA
func (r *Result) PhaseKA() [3]float64 {
	var out [3]float64
	for i, v := range r.Phase {
		out[i] = cmplx.Abs(v) * r.BaseKA
	}
	return out
}

// Solver holds the inverted sequence networks of one network. Build a new
// solver after any topology change.
type Solver struct {
	net  *network.Network
	opts Options
	log  *logrus.Logger

	// Zbus indexed by sequence: 0 zero, 1 positive, 2 negative
	z [3]*mat.CDense
}

// NewSolver assembles the positive, negative and zero sequence admittance
// matrices and inverts each one
func NewSolver(net *network.Network, opts Options, logger *logrus.Logger) (*Solver, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	pos, neg, zero, err := ybus.All(net)
	if err != nil {
		return nil, err
	}
	s := &Solver{net: net, opts: opts, log: logger}
	for i, y := range []*ybus.Admittance{zero, pos, neg} {
		z, err := utils.InvertCDense(y.Y)
		if err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, fmt.Errorf("fault: inverting %s sequence Ybus: %w", y.Sequence, err)
			}
			s.log.WithFields(logrus.Fields{
				"sequence":  y.Sequence.String(),
				"condition": float64(cond),
			}).Warn("ill-conditioned Ybus")
		}
		s.z[i] = z
	}
	return s, nil
}

// Impedance returns the Zbus entry [i,j] of the given sequence network
func (s *Solver) Impedance(seq network.Sequence, i, j network.BusID) complex128 {
	switch seq {
	case network.Zero:
		return s.z[0].At(int(i), int(j))
	case network.Negative:
		return s.z[2].At(int(i), int(j))
	}
	return s.z[1].At(int(i), int(j))
}

// Fault applies a fault of type t through impedance zf (per-unit) at the
// named bus and returns the fault currents and every bus voltage
func (s *Solver) Fault(bus string, t Type, zf complex128) (*Result, error) {
	b, err := s.net.BusByName(bus)
	if err != nil {
		return nil, err
	}
	f := int(b.Index)
	z0, z1, z2 := s.z[0].At(f, f), s.z[1].At(f, f), s.z[2].At(f, f)

	seq, err := s.sequenceCurrents(t, z0, z1, z2, zf)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Bus:       b.Name,
		Type:      t,
		Impedance: zf,
		Sequence:  seq,
		Phase:     SequenceToPhase(seq),
		BaseKA:    s.net.System.BaseMVA / (math.Sqrt(3) * b.BaseKV),
	}
	vpre := s.opts.PrefaultVoltage
	for k, bk := range s.net.Buses() {
		v := [3]complex128{
			-s.z[0].At(k, f) * seq[0],
			vpre - s.z[1].At(k, f)*seq[1],
			-s.z[2].At(k, f) * seq[2],
		}
		res.Voltages = append(res.Voltages, BusVoltage{Name: bk.Name, Sequence: v, Phase: SequenceToPhase(v)})
	}

	s.log.WithFields(logrus.Fields{
		"bus":  b.Name,
		"type": t.String(),
		"Ia":   cmplx.Abs(res.Phase[0]),
	}).Info("fault solved")
	return res, nil
}

// sequenceCurrents returns [I0, I1, I2] at the fault from the Thevenin
// impedances z0, z1, z2 of the faulted bus
func (s *Solver) sequenceCurrents(t Type, z0, z1, z2, zf complex128) ([3]complex128, error) {
	v := s.opts.PrefaultVoltage
	switch t {
	case ThreePhase:
		return [3]complex128{0, v / (z1 + zf), 0}, nil
	case SingleLineToGround:
		i := v / (z0 + z1 + z2 + 3*zf)
		return [3]complex128{i, i, i}, nil
	case LineToLine:
		i := v / (z1 + z2 + zf)
		return [3]complex128{0, i, -i}, nil
	case DoubleLineToGround:
		if s.opts.DLG == Network {
			zg := z0 + 3*zf
			i1 := v / (z1 + z2*zg/(z2+zg))
			return [3]complex128{-i1 * z2 / (zg + z2), i1, -i1 * zg / (zg + z2)}, nil
		}
		i := v * (z1 + z2 + zf) / (z0*(z1+z2+zf) + z1*z2 + zf*(z1+z2))
		return [3]complex128{i, i, i}, nil
	}
	return [3]complex128{}, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
}

// Study runs every fault type at one bus
func (s *Solver) Study(bus string, zf complex128) ([]*Result, error) {
	out := make([]*Result, 0, len(Types))
	for _, t := range Types {
		r, err := s.Fault(bus, t, zf)
		if err != nil {
			return nil, fmt.Errorf("%v fault at %s: %w", t, bus, err)
		}
		out = append(out, r)
	}
	return out, nil
}
