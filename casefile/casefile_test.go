package casefile

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/PowerFlow/config"
	"github.com/notargets/PowerFlow/network"
	"github.com/notargets/PowerFlow/ybus"
)

const twoBusYAML = `
name: two-bus
buses:
  - {name: One, base_kv: 230}
  - {name: Two, base_kv: 230}
lines:
  - {name: L12, from: One, to: Two, r: 0.01, x: 0.1, b: 0.02, grounded: false, zero_factor: 3}
generators:
  - {name: G, bus: One, voltage: 1.05, x1: 0.2, x2: 0.2, x0: 0.05, grounded: true}
loads:
  - {name: D, bus: Two, mw: 100, mvar: 50}
shunts:
  - {name: C, bus: Two, kind: capacitor, value: 1.0e-6}
`

func TestReadPerUnitCase(t *testing.T) {
	c, err := Read(strings.NewReader(twoBusYAML))
	require.NoError(t, err)
	assert.Equal(t, "two-bus", c.Name)
	require.Len(t, c.Lines, 1)
	require.NotNil(t, c.Lines[0].Grounded)
	assert.False(t, *c.Lines[0].Grounded)

	net, err := c.Build(config.DefaultSystem())
	require.NoError(t, err)
	assert.Equal(t, 2, net.NumBuses())

	l := net.Lines()[0]
	assert.Equal(t, complex(0.01, 0.1), l.Z)
	assert.Equal(t, complex(0, 0.02), l.Shunt)
	assert.False(t, l.Grounded)
	assert.Equal(t, 3.0, l.ZeroFactor)

	one, err := net.BusByName("One")
	require.NoError(t, err)
	assert.Equal(t, network.Slack, one.Type)
	assert.Equal(t, 1.05, one.V)

	two, err := net.BusByName("Two")
	require.NoError(t, err)
	assert.Equal(t, network.PQ, two.Type)
	assert.Equal(t, 100.0, two.PLoad)
	assert.Equal(t, 50.0, two.QLoad)
	require.Len(t, net.Shunts(), 1)
	assert.Equal(t, network.Capacitor, net.Shunts()[0].Kind)
}

func TestBuildErrors(t *testing.T) {
	_, err := Read(strings.NewReader("name: empty\n"))
	assert.True(t, errors.Is(err, ErrEmptyCase))

	c, err := Read(strings.NewReader(twoBusYAML))
	require.NoError(t, err)
	c.Loads[0].Bus = "Three"
	_, err = c.Build(config.DefaultSystem())
	assert.True(t, errors.Is(err, network.ErrUnknownBus))

	c, err = Read(strings.NewReader(twoBusYAML))
	require.NoError(t, err)
	c.Buses = append(c.Buses, BusRecord{Name: "One", BaseKV: 20})
	_, err = c.Build(config.DefaultSystem())
	assert.True(t, errors.Is(err, network.ErrDuplicateName))

	c, err = Read(strings.NewReader(twoBusYAML))
	require.NoError(t, err)
	c.Shunts[0].Kind = "battery"
	_, err = c.Build(config.DefaultSystem())
	assert.True(t, errors.Is(err, network.ErrInvalidParameter))
}

func TestLoadSevenBus(t *testing.T) {
	net, err := LoadNetwork("../examples/sevenbus/seven_bus.yaml", config.DefaultSystem())
	require.NoError(t, err)
	assert.Equal(t, "seven-bus", net.Name)
	assert.Equal(t, 7, net.NumBuses())
	assert.Len(t, net.Lines(), 6)
	assert.Len(t, net.Transformers(), 2)
	assert.Len(t, net.Generators(), 2)

	slack, ok := net.Slack()
	require.True(t, ok)
	assert.Equal(t, "Bus1", net.Bus(slack).Name)
	b7, err := net.BusByName("Bus7")
	require.NoError(t, err)
	assert.Equal(t, network.PV, b7.Type)

	// lines default to grounded
	for _, l := range net.Lines() {
		assert.True(t, l.Grounded, l.Name())
		assert.Equal(t, network.DefaultZeroSequenceFactor, l.ZeroFactor)
	}

	t1 := net.Transformers()[0]
	assert.Equal(t, network.DeltaWye, t1.Connection)
	assert.True(t, t1.ToNeutral.Grounded)
	assert.InDelta(t, 0.085*100/125, math.Hypot(real(t1.Z), imag(t1.Z)), 1e-12)

	// every sequence network is non-singular
	for _, seq := range []network.Sequence{network.Operating, network.Positive, network.Negative, network.Zero} {
		_, err := ybus.Assemble(net, seq)
		assert.NoError(t, err, seq.String())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
