package fault

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/PowerFlow/config"
	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/utils"
	"github.com/notargets/PowerFlow/ybus"
)

const tol = 1e-10

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	return l
}

// twoBus is a grounded generator at G feeding bus F over a grounded line
func twoBus(t *testing.T) *network.Network {
	t.Helper()
	net := network.New("fault", config.DefaultSystem())
	for _, name := range []string{"G", "F"} {
		_, err := net.AddBus(name, 230)
		require.NoError(t, err)
	}
	_, err := net.AddLineImpedance("GF", "G", "F", complex(0.01, 0.1), 0, true)
	require.NoError(t, err)
	_, err = net.AddGenerator(network.GeneratorSpec{
		Name: "Gen", Bus: "G", X1: 0.2, X2: 0.25, X0: 0.1, Grounded: true, Neutral: complex(0.02, 0),
	})
	require.NoError(t, err)
	return net
}

func near(t *testing.T, want, got complex128, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, 0, cmplx.Abs(want-got), tol, msgAndArgs...)
}

func TestTransformRoundTrip(t *testing.T) {
	x := [3]complex128{complex(0.3, -0.1), complex(1.2, 0.4), complex(-0.2, 0.7)}
	back := PhaseToSequence(SequenceToPhase(x))
	for i := range x {
		near(t, x[i], back[i])
	}

	// a balanced positive-sequence set lags by 120° from a to b to c
	p := SequenceToPhase([3]complex128{0, 1, 0})
	near(t, 1, p[0])
	near(t, cmplx.Rect(1, -2*math.Pi/3), p[1])
	near(t, cmplx.Rect(1, 2*math.Pi/3), p[2])
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{
		"3phase": ThreePhase, "SLG": SingleLineToGround, "ll": LineToLine, "dlg": DoubleLineToGround,
	} {
		got, err := ParseType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		back, err := ParseType(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, back)
	}
	_, err := ParseType("arc-flash")
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = ParseDLGModel("other")
	assert.True(t, errors.Is(err, ErrUnknownDLGModel))
}

func TestOptionsFrom(t *testing.T) {
	o, err := OptionsFrom(config.Default().Fault)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), o)

	o, err = OptionsFrom(config.Fault{PrefaultVoltage: 1.05, DLGModel: "network"})
	require.NoError(t, err)
	assert.Equal(t, Network, o.DLG)
	assert.Equal(t, complex(1.05, 0), o.PrefaultVoltage)
}

func TestBoltedThreePhase(t *testing.T) {
	net := twoBus(t)
	s, err := NewSolver(net, DefaultOptions(), quietLogger())
	require.NoError(t, err)

	// independent 2×2 inverse of the positive-sequence Ybus
	y, err := ybus.Assemble(net, network.Positive)
	require.NoError(t, err)
	y00, y01, y10, y11 := y.At(0, 0), y.At(0, 1), y.At(1, 0), y.At(1, 1)
	det := y00*y11 - y01*y10
	zff := y00 / det
	zgf := -y01 / det
	near(t, zff, s.Impedance(network.Positive, 1, 1))

	res, err := s.Fault("F", ThreePhase, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1/cmplx.Abs(zff), cmplx.Abs(res.Phase[0]), tol)
	assert.InDelta(t, 1/cmplx.Abs(zff), cmplx.Abs(res.Phase[1]), tol)
	near(t, 0, res.Sequence[0])
	near(t, 0, res.Sequence[2])

	// bolted fault collapses the faulted bus; the source bus sags by Zgf·I
	near(t, 0, res.Voltages[1].Sequence[1])
	near(t, 1-zgf*res.Sequence[1], res.Voltages[0].Sequence[1])

	base := 100 / (math.Sqrt(3) * 230)
	assert.InDelta(t, base, res.BaseKA, 1e-12)
	assert.InDelta(t, base/cmplx.Abs(zff), res.PhaseKA()[0], 1e-9)
}

func TestSingleLineToGround(t *testing.T) {
	s, err := NewSolver(twoBus(t), DefaultOptions(), quietLogger())
	require.NoError(t, err)
	zf := complex(0.01, 0)
	res, err := s.Fault("F", SingleLineToGround, zf)
	require.NoError(t, err)

	z0 := s.Impedance(network.Zero, 1, 1)
	z1 := s.Impedance(network.Positive, 1, 1)
	z2 := s.Impedance(network.Negative, 1, 1)
	want := 1 / (z0 + z1 + z2 + 3*zf)
	for i := range res.Sequence {
		near(t, want, res.Sequence[i])
	}
	near(t, 3*want, res.Phase[0])
	near(t, 0, res.Phase[1])
	near(t, 0, res.Phase[2])
	// Va at the fault equals Ia·Zf
	near(t, res.Phase[0]*zf, res.Voltages[1].Phase[0])
}

func TestLineToLine(t *testing.T) {
	s, err := NewSolver(twoBus(t), DefaultOptions(), quietLogger())
	require.NoError(t, err)
	res, err := s.Fault("F", LineToLine, 0)
	require.NoError(t, err)

	z1 := s.Impedance(network.Positive, 1, 1)
	z2 := s.Impedance(network.Negative, 1, 1)
	near(t, 1/(z1+z2), res.Sequence[1])
	near(t, -res.Sequence[1], res.Sequence[2])
	near(t, 0, res.Sequence[0])
	near(t, 0, res.Phase[0])
	near(t, -res.Phase[1], res.Phase[2])
	assert.InDelta(t, math.Sqrt(3)*cmplx.Abs(res.Sequence[1]), cmplx.Abs(res.Phase[1]), tol)
}

func TestDoubleLineToGround(t *testing.T) {
	net := twoBus(t)
	zf := complex(0.02, 0)

	combined, err := NewSolver(net, DefaultOptions(), quietLogger())
	require.NoError(t, err)
	res, err := combined.Fault("F", DoubleLineToGround, zf)
	require.NoError(t, err)
	z0 := combined.Impedance(network.Zero, 1, 1)
	z1 := combined.Impedance(network.Positive, 1, 1)
	z2 := combined.Impedance(network.Negative, 1, 1)
	want := (z1 + z2 + zf) / (z0*(z1+z2+zf) + z1*z2 + zf*(z1+z2))
	for i := range res.Sequence {
		near(t, want, res.Sequence[i])
	}

	opts := DefaultOptions()
	opts.DLG = Network
	textbook, err := NewSolver(net, opts, quietLogger())
	require.NoError(t, err)
	res, err = textbook.Fault("F", DoubleLineToGround, zf)
	require.NoError(t, err)
	zg := z0 + 3*zf
	i1 := 1 / (z1 + z2*zg/(z2+zg))
	near(t, i1, res.Sequence[1])
	near(t, 0, res.Phase[0])
	// Vb = Vc = V0 − V1 = 3·I0·Zf
	near(t, 3*res.Sequence[0]*zf, res.Voltages[1].Phase[1])
	near(t, 3*res.Sequence[0]*zf, res.Voltages[1].Phase[2])
}

func TestStudy(t *testing.T) {
	s, err := NewSolver(twoBus(t), DefaultOptions(), quietLogger())
	require.NoError(t, err)
	results, err := s.Study("G", 0)
	require.NoError(t, err)
	require.Len(t, results, len(Types))
	for i, r := range results {
		assert.Equal(t, Types[i], r.Type)
		assert.Len(t, r.Voltages, 2)
	}

	_, err = s.Fault("Nowhere", ThreePhase, 0)
	assert.True(t, errors.Is(err, network.ErrUnknownBus))
	_, err = s.Fault("G", Type(9), 0)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestSolverSingularZeroSequence(t *testing.T) {
	net := twoBus(t)
	_, err := net.AddBus("D", 20)
	require.NoError(t, err)
	_, err = net.AddTransformer(network.TransformerSpec{
		Name: "T", From: "F", To: "D", RatingMVA: 100, ImpedancePercent: 8, XOverR: 10,
		Connection: network.WyeDelta, FromNeutral: network.Neutral{Grounded: true},
	})
	require.NoError(t, err)
	_, err = NewSolver(net, DefaultOptions(), quietLogger())
	assert.True(t, errors.Is(err, ybus.ErrSingular))
}

func TestSolverFloatingNetwork(t *testing.T) {
	// a ring of lines with no generator or shunt has no path to ground
	net := network.New("ring", config.DefaultSystem())
	for _, name := range []string{"A", "B", "C"} {
		_, err := net.AddBus(name, 230)
		require.NoError(t, err)
	}
	for _, l := range []struct {
		name, from, to string
		z              complex128
	}{
		{"AB", "A", "B", complex(0.013, 0.117)},
		{"BC", "B", "C", complex(0.021, 0.193)},
		{"CA", "C", "A", complex(0.017, 0.151)},
	} {
		_, err := net.AddLineImpedance(l.name, l.from, l.to, l.z, 0, true)
		require.NoError(t, err)
	}
	_, err := NewSolver(net, DefaultOptions(), quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrSingular))
}
