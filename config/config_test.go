package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, 60.0, s.System.Frequency)
	assert.Equal(t, 100.0, s.System.BaseMVA)
	assert.Equal(t, 1e-9, s.PowerFlow.Tolerance)
	assert.Equal(t, 50, s.PowerFlow.MaxIterations)
	assert.Equal(t, 0, s.PowerFlow.DampingIterations)
	assert.Equal(t, 0.3, s.PowerFlow.AngleDamping)
	assert.Equal(t, 0.5, s.PowerFlow.VoltageDamping)
	assert.Equal(t, 0.5, s.PowerFlow.VoltageMin)
	assert.Equal(t, 1.5, s.PowerFlow.VoltageMax)
	assert.Equal(t, "combined", s.Fault.DLGModel)
	assert.NoError(t, s.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study.yaml")
	content := `
system:
  base_mva: 250
powerflow:
  tolerance: 1.0e-7
  damping_iterations: 10
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250.0, s.System.BaseMVA)
	assert.Equal(t, 60.0, s.System.Frequency)
	assert.Equal(t, 1e-7, s.PowerFlow.Tolerance)
	assert.Equal(t, 10, s.PowerFlow.DampingIterations)
	assert.Equal(t, logrus.DebugLevel, s.Logger().GetLevel())
}

func TestLoadMissingSearchPathUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.System.BaseMVA)
}

func TestLoadRejectsBadBand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "powerflow:\n  voltage_min: 1.2\n  voltage_max: 0.8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
