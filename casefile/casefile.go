// Package casefile reads network cases from YAML and builds them into a
// network.Network.
package casefile

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/notargets/PowerFlow/config"
	"github.com/notargets/PowerFlow/network"
)

var ErrEmptyCase = errors.New("casefile: case defines no buses")

type BusRecord struct {
	Name   string  `mapstructure:"name"`
	BaseKV float64 `mapstructure:"base_kv"`
}

type ConductorRecord struct {
	Name       string  `mapstructure:"name"`
	Diameter   float64 `mapstructure:"diameter"`
	GMR        float64 `mapstructure:"gmr"`
	Resistance float64 `mapstructure:"resistance"`
	Ampacity   float64 `mapstructure:"ampacity"`
}

type BundleRecord struct {
	Name      string  `mapstructure:"name"`
	Count     int     `mapstructure:"count"`
	Spacing   float64 `mapstructure:"spacing"`
	Conductor string  `mapstructure:"conductor"`
}

type GeometryRecord struct {
	Name string  `mapstructure:"name"`
	Xa   float64 `mapstructure:"xa"`
	Ya   float64 `mapstructure:"ya"`
	Xb   float64 `mapstructure:"xb"`
	Yb   float64 `mapstructure:"yb"`
	Xc   float64 `mapstructure:"xc"`
	Yc   float64 `mapstructure:"yc"`
}

// LineRecord describes a line either by bundle, geometry and length or
// directly by per-unit R, X and total charging B
type LineRecord struct {
	Name     string  `mapstructure:"name"`
	From     string  `mapstructure:"from"`
	To       string  `mapstructure:"to"`
	Bundle   string  `mapstructure:"bundle"`
	Geometry string  `mapstructure:"geometry"`
	Length   float64 `mapstructure:"length"`
	Grounded *bool   `mapstructure:"grounded"` // defaults to true
	R        float64 `mapstructure:"r"`
	X        float64 `mapstructure:"x"`
	B        float64 `mapstructure:"b"`

	// ZeroFactor overrides the Z0/Z1 ratio of a grounded line
	ZeroFactor float64 `mapstructure:"zero_factor"`
}

type NeutralRecord struct {
	Grounded bool    `mapstructure:"grounded"`
	R        float64 `mapstructure:"r"`
	X        float64 `mapstructure:"x"`
}

type TransformerRecord struct {
	Name             string        `mapstructure:"name"`
	From             string        `mapstructure:"from"`
	To               string        `mapstructure:"to"`
	RatingMVA        float64       `mapstructure:"rating_mva"`
	ImpedancePercent float64       `mapstructure:"impedance_percent"`
	XOverR           float64       `mapstructure:"x_over_r"`
	Connection       string        `mapstructure:"connection"`
	FromNeutral      NeutralRecord `mapstructure:"from_neutral"`
	ToNeutral        NeutralRecord `mapstructure:"to_neutral"`
}

type GeneratorRecord struct {
	Name     string  `mapstructure:"name"`
	Bus      string  `mapstructure:"bus"`
	MW       float64 `mapstructure:"mw"`
	Voltage  float64 `mapstructure:"voltage"`
	X1       float64 `mapstructure:"x1"`
	X2       float64 `mapstructure:"x2"`
	X0       float64 `mapstructure:"x0"`
	Grounded bool    `mapstructure:"grounded"`
	NeutralR float64 `mapstructure:"neutral_r"`
	NeutralX float64 `mapstructure:"neutral_x"`
}

type LoadRecord struct {
	Name string  `mapstructure:"name"`
	Bus  string  `mapstructure:"bus"`
	MW   float64 `mapstructure:"mw"`
	MVAr float64 `mapstructure:"mvar"`
}

type ShuntRecord struct {
	Name  string  `mapstructure:"name"`
	Bus   string  `mapstructure:"bus"`
	Kind  string  `mapstructure:"kind"`
	Value float64 `mapstructure:"value"` // farads or henries
}

// Case is the decoded content of a case file
type Case struct {
	Name         string              `mapstructure:"name"`
	Buses        []BusRecord         `mapstructure:"buses"`
	Conductors   []ConductorRecord   `mapstructure:"conductors"`
	Bundles      []BundleRecord      `mapstructure:"bundles"`
	Geometries   []GeometryRecord    `mapstructure:"geometries"`
	Lines        []LineRecord        `mapstructure:"lines"`
	Transformers []TransformerRecord `mapstructure:"transformers"`
	Generators   []GeneratorRecord   `mapstructure:"generators"`
	Loads        []LoadRecord        `mapstructure:"loads"`
	Shunts       []ShuntRecord       `mapstructure:"shunts"`
}

// Load decodes the case file at path; the format follows the extension
func Load(path string) (*Case, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("casefile: reading %s: %w", path, err)
	}
	return decode(v)
}

// Read decodes a YAML case from r
func Read(r io.Reader) (*Case, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("casefile: reading case: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Case, error) {
	var c Case
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("casefile: decoding case: %w", err)
	}
	if len(c.Buses) == 0 {
		return nil, ErrEmptyCase
	}
	return &c, nil
}

// Build creates the network. Elements are added as buses, conductors,
// bundles, geometries, transformers, lines, generators, loads, shunts, so the
// first generator listed owns the slack bus.
func (c *Case) Build(sys config.System) (*network.Network, error) {
	net := network.New(c.Name, sys)
	for _, b := range c.Buses {
		if _, err := net.AddBus(b.Name, b.BaseKV); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Conductors {
		err := net.AddConductor(network.Conductor{
			Name: r.Name, Diameter: r.Diameter, GMR: r.GMR, Resistance: r.Resistance, Ampacity: r.Ampacity,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, r := range c.Bundles {
		if _, err := net.AddBundle(r.Name, r.Count, r.Spacing, r.Conductor); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Geometries {
		err := net.AddGeometry(network.Geometry{Name: r.Name, Xa: r.Xa, Ya: r.Ya, Xb: r.Xb, Yb: r.Yb, Xc: r.Xc, Yc: r.Yc})
		if err != nil {
			return nil, err
		}
	}
	for _, r := range c.Transformers {
		conn, err := network.ParseConnection(r.Connection)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", r.Name, err)
		}
		_, err = net.AddTransformer(network.TransformerSpec{
			Name:             r.Name,
			From:             r.From,
			To:               r.To,
			RatingMVA:        r.RatingMVA,
			ImpedancePercent: r.ImpedancePercent,
			XOverR:           r.XOverR,
			Connection:       conn,
			FromNeutral:      r.FromNeutral.neutral(),
			ToNeutral:        r.ToNeutral.neutral(),
		})
		if err != nil {
			return nil, err
		}
	}
	for _, r := range c.Lines {
		if err := addLine(net, r); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Generators {
		_, err := net.AddGenerator(network.GeneratorSpec{
			Name:     r.Name,
			Bus:      r.Bus,
			MW:       r.MW,
			Voltage:  r.Voltage,
			X1:       r.X1,
			X2:       r.X2,
			X0:       r.X0,
			Grounded: r.Grounded,
			Neutral:  complex(r.NeutralR, r.NeutralX),
		})
		if err != nil {
			return nil, err
		}
	}
	for _, r := range c.Loads {
		if _, err := net.AddLoad(r.Name, r.Bus, r.MW, r.MVAr); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Shunts {
		kind, err := network.ParseShuntKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("shunt %s: %w", r.Name, err)
		}
		if _, err = net.AddShunt(r.Name, r.Bus, kind, r.Value); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func addLine(net *network.Network, r LineRecord) error {
	grounded := r.Grounded == nil || *r.Grounded
	var (
		l   *network.Line
		err error
	)
	if r.Bundle != "" {
		l, err = net.AddLine(network.LineSpec{
			Name:     r.Name,
			From:     r.From,
			To:       r.To,
			Bundle:   r.Bundle,
			Geometry: r.Geometry,
			Length:   r.Length,
			Grounded: grounded,
		})
	} else {
		l, err = net.AddLineImpedance(r.Name, r.From, r.To, complex(r.R, r.X), complex(0, r.B), grounded)
	}
	if err != nil {
		return err
	}
	if r.ZeroFactor > 0 {
		l.ZeroFactor = r.ZeroFactor
	}
	return nil
}

func (n NeutralRecord) neutral() network.Neutral {
	return network.Neutral{Grounded: n.Grounded, Z: complex(n.R, n.X)}
}

// LoadNetwork reads and builds the case at path
func LoadNetwork(path string, sys config.System) (*network.Network, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return c.Build(sys)
}
