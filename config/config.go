package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Settings is the complete runtime configuration for a study
type Settings struct {
	System    System    `mapstructure:"system"`
	PowerFlow PowerFlow `mapstructure:"powerflow"`
	Fault     Fault     `mapstructure:"fault"`
	LogLevel  string    `mapstructure:"log_level"`
}

// System holds the fixed per-unit bases shared by every element
type System struct {
	Frequency float64 `mapstructure:"frequency"` // Hz
	BaseMVA   float64 `mapstructure:"base_mva"`  // three-phase power base
}

// PowerFlow holds the Newton-Raphson iteration controls
type PowerFlow struct {
	Tolerance         float64 `mapstructure:"tolerance"`
	MaxIterations     int     `mapstructure:"max_iterations"`
	DampingIterations int     `mapstructure:"damping_iterations"` // 0 disables damping
	AngleDamping      float64 `mapstructure:"angle_damping"`
	VoltageDamping    float64 `mapstructure:"voltage_damping"`
	VoltageMin        float64 `mapstructure:"voltage_min"`
	VoltageMax        float64 `mapstructure:"voltage_max"`
}

// Fault holds the short-circuit study controls
type Fault struct {
	PrefaultVoltage float64 `mapstructure:"prefault_voltage"`
	DLGModel        string  `mapstructure:"dlg_model"` // "combined" or "network"
}

// DefaultSystem returns the 60 Hz, 100 MVA system base
func DefaultSystem() System {
	return System{Frequency: 60, BaseMVA: 100}
}

// Default returns the settings used when no configuration file is present
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	// Defaults alone always decode.
	_ = v.Unmarshal(&s)
	return &s
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("system.frequency", 60.0)
	v.SetDefault("system.base_mva", 100.0)
	v.SetDefault("powerflow.tolerance", 1e-9)
	v.SetDefault("powerflow.max_iterations", 50)
	v.SetDefault("powerflow.damping_iterations", 0)
	v.SetDefault("powerflow.angle_damping", 0.3)
	v.SetDefault("powerflow.voltage_damping", 0.5)
	v.SetDefault("powerflow.voltage_min", 0.5)
	v.SetDefault("powerflow.voltage_max", 1.5)
	v.SetDefault("fault.prefault_voltage", 1.0)
	v.SetDefault("fault.dlg_model", "combined")
	v.SetDefault("log_level", "info")
}

// Load reads settings from path (YAML) layered over defaults and POWERFLOW_*
// environment variables. An empty path searches ./powerflow.yaml and
// ./config/powerflow.yaml; a missing file falls back to defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("powerflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("powerflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings that cannot drive a solve
func (s *Settings) Validate() error {
	switch {
	case s.System.BaseMVA <= 0:
		return fmt.Errorf("config: base_mva must be positive, got %g", s.System.BaseMVA)
	case s.System.Frequency <= 0:
		return fmt.Errorf("config: frequency must be positive, got %g", s.System.Frequency)
	case s.PowerFlow.Tolerance <= 0:
		return fmt.Errorf("config: tolerance must be positive, got %g", s.PowerFlow.Tolerance)
	case s.PowerFlow.MaxIterations <= 0:
		return fmt.Errorf("config: max_iterations must be positive, got %d", s.PowerFlow.MaxIterations)
	case s.PowerFlow.VoltageMin >= s.PowerFlow.VoltageMax:
		return fmt.Errorf("config: voltage band [%g, %g] is empty",
			s.PowerFlow.VoltageMin, s.PowerFlow.VoltageMax)
	}
	return nil
}

// Logger builds a logrus logger at the configured level
func (s *Settings) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", s.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
