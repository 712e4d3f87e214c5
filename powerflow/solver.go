package powerflow

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/PowerFlow/config"
	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/ybus"
)

var (
	ErrDiverged         = errors.New("powerflow: solution diverged")
	ErrSingularJacobian = errors.New("powerflow: singular Jacobian")
	ErrNoSlack          = errors.New("powerflow: no slack bus designated")
	ErrSizeMismatch     = errors.New("powerflow: admittance matrix does not match network")
)

// DivergenceReason records why the iteration was abandoned
type DivergenceReason uint8

const (
	IterationLimit DivergenceReason = iota
	NaNState
)

func (r DivergenceReason) String() string {
	if r == NaNState {
		return "NaN in bus state"
	}
	return "iteration limit reached"
}

// DivergenceError is returned with the last valid bus state in the Result.
// Iteration counts the accepted updates, matching Result.Iterations.
type DivergenceError struct {
	Reason    DivergenceReason
	Iteration int
	Mismatch  float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%v after %d iterations (%v, max mismatch %.3e)",
		ErrDiverged, e.Iteration, e.Reason, e.Mismatch)
}

func (e *DivergenceError) Unwrap() error { return ErrDiverged }

// Status is the terminal state of a solve
type Status uint8

const (
	Iterating Status = iota
	Converged
	Diverged
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case Diverged:
		return "diverged"
	}
	return "iterating"
}

// Options control the Newton-Raphson iteration
type Options struct {
	Tolerance     float64
	MaxIterations int

	// For the first DampingIterations updates the angle and magnitude
	// corrections are scaled by AngleDamping and VoltageDamping.
	DampingIterations int
	AngleDamping      float64
	VoltageDamping    float64

	VoltageMin, VoltageMax float64
}

// OptionsFrom converts loaded settings
func OptionsFrom(c config.PowerFlow) Options {
	return Options{
		Tolerance:         c.Tolerance,
		MaxIterations:     c.MaxIterations,
		DampingIterations: c.DampingIterations,
		AngleDamping:      c.AngleDamping,
		VoltageDamping:    c.VoltageDamping,
		VoltageMin:        c.VoltageMin,
		VoltageMax:        c.VoltageMax,
	}
}

// DefaultOptions returns tolerance 1e-9, 50 iterations, no damping and a
// [0.5, 1.5] pu voltage band
func DefaultOptions() Options {
	return OptionsFrom(config.Default().PowerFlow)
}

// BusState is a snapshot of one bus after a solve
type BusState struct {
	Name  string
	Type  network.BusType
	V     float64
	Delta float64 // radians
}

// Result reports the outcome of a solve. On divergence Buses holds the last
// valid state.
type Result struct {
	Status      Status
	Iterations  int
	MaxMismatch float64
	History     []float64 // max |mismatch| before each update
	Buses       []BusState
}

// Solver runs Newton-Raphson power flow
type Solver struct {
	opts Options
	log  *logrus.Logger
}

// NewSolver returns a solver; a nil logger logs warnings only
func NewSolver(opts Options, logger *logrus.Logger) *Solver {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Solver{opts: opts, log: logger}
}

// Solve iterates from the network's current bus state until the largest
// mismatch falls below tolerance. Bus V and δ are updated in place.
func (s *Solver) Solve(net *network.Network, y *ybus.Admittance) (*Result, error) {
	buses := net.Buses()
	if y.Size() != len(buses) {
		return nil, fmt.Errorf("%w: %d buses, %d×%d Ybus", ErrSizeMismatch, len(buses), y.Size(), y.Size())
	}
	if _, ok := net.Slack(); !ok {
		return nil, fmt.Errorf("%w: network %s", ErrNoSlack, net.Name)
	}
	order := NewOrdering(buses)
	base := net.System.BaseMVA
	res := &Result{Status: Iterating}
	np := len(order.NonSlack)

	for iter := 0; ; iter++ {
		mis := Mismatch(y, buses, order, base)
		norm := floats.Norm(mis, math.Inf(1))
		res.History = append(res.History, norm)
		res.MaxMismatch = norm
		res.Iterations = iter

		s.log.WithFields(logrus.Fields{
			"iteration": iter,
			"mismatch":  norm,
		}).Debug("power flow iteration")

		if norm < s.opts.Tolerance {
			res.Status = Converged
			res.Buses = snapshot(buses)
			s.log.WithFields(logrus.Fields{
				"network":    net.Name,
				"iterations": iter,
			}).Info("power flow converged")
			return res, nil
		}
		if iter >= s.opts.MaxIterations {
			return s.diverge(res, buses, &DivergenceError{Reason: IterationLimit, Iteration: iter, Mismatch: norm})
		}

		dx, err := s.step(y, buses, order, mis)
		if err != nil {
			res.Status = Diverged
			res.Buses = snapshot(buses)
			return res, fmt.Errorf("iteration %d: %w", iter, err)
		}
		if iter < s.opts.DampingIterations {
			for r := range dx {
				if r < np {
					dx[r] *= s.opts.AngleDamping
				} else {
					dx[r] *= s.opts.VoltageDamping
				}
			}
		}

		prev := snapshot(buses)
		for r, k := range order.NonSlack {
			buses[k].Delta += dx[r]
		}
		for r, k := range order.PQ {
			buses[k].V = clamp(buses[k].V+dx[np+r], s.opts.VoltageMin, s.opts.VoltageMax)
		}
		if hasNaN(buses) {
			restore(buses, prev)
			return s.diverge(res, buses, &DivergenceError{Reason: NaNState, Iteration: iter, Mismatch: norm})
		}
	}
}

// step solves J·Δx = mismatch
func (s *Solver) step(y *ybus.Admittance, buses []*network.Bus, order Ordering, mis []float64) ([]float64, error) {
	j := Jacobian(y, buses, order)
	var dx mat.VecDense
	if err := dx.SolveVec(j, mat.NewVecDense(len(mis), mis)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingularJacobian, err)
		}
		s.log.WithField("condition", float64(cond)).Warn("ill-conditioned Jacobian")
	}
	return dx.RawVector().Data, nil
}

func (s *Solver) diverge(res *Result, buses []*network.Bus, err *DivergenceError) (*Result, error) {
	res.Status = Diverged
	res.Buses = snapshot(buses)
	s.log.WithFields(logrus.Fields{
		"iteration": err.Iteration,
		"mismatch":  err.Mismatch,
	}).Warn(err.Reason.String())
	return res, err
}

func snapshot(buses []*network.Bus) []BusState {
	out := make([]BusState, len(buses))
	for i, b := range buses {
		out[i] = BusState{Name: b.Name, Type: b.Type, V: b.V, Delta: b.Delta}
	}
	return out
}

func restore(buses []*network.Bus, states []BusState) {
	for i, st := range states {
		buses[i].V, buses[i].Delta = st.V, st.Delta
	}
}

func hasNaN(buses []*network.Bus) bool {
	for _, b := range buses {
		if math.IsNaN(b.V) || math.IsNaN(b.Delta) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	// NaN falls through so the caller can detect it
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
