package inmhealth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inmhealth.toml")

	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.ContextBits)
	assert.Equal(t, 1.82, cfg.Gain)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, uint64(DefaultHealthWindow), cfg.HealthWindow)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
context_bits = 10
gain = 1.7
debug = true
max_entropy = 512
report_interval = 4096
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.ContextBits)
	assert.Equal(t, 1.7, cfg.Gain)
	assert.True(t, cfg.Debug)
	assert.Equal(t, uint32(512), cfg.MaxEntropy)
	assert.Equal(t, uint64(4096), cfg.ReportInterval)

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, uint64(DefaultHealthWindow), cfg.HealthWindow)

	m, err := cfg.NewMonitor(nil)
	require.NoError(t, err)

	defer m.Close()

	assert.Equal(t, 10, m.ContextBits())
	assert.True(t, m.opts.debug)
	assert.Equal(t, uint32(512), m.opts.maxEntropy)
	assert.Equal(t, uint64(4096), m.opts.reportInterval)
	assert.NotNil(t, m.logger)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "context_bits = 31\n"))
	assert.ErrorIs(t, err, ErrContextWidth)

	_, err = LoadConfig(writeConfig(t, "gain = 0.9\n"))
	assert.ErrorIs(t, err, ErrGain)

	_, err = LoadConfig(writeConfig(t, "tolerance = 0.5\n"))
	assert.ErrorIs(t, err, ErrTolerance)

	_, err = LoadConfig(writeConfig(t, "context_bits = \"wide\"\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigMemoryLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryLimit = 1024

	_, err := cfg.NewMonitor(nil)
	assert.ErrorIs(t, err, ErrAlloc)
}
