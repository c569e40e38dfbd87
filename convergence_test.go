package inmhealth_test

import (
	"testing"

	"github.com/coalaura/inmhealth"
	"github.com/coalaura/inmhealth/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simClocks = 200000

func TestConvergesToGain(t *testing.T) {
	m, err := inmhealth.New(8, 1.82)
	require.NoError(t, err)

	defer m.Close()

	g := sim.New(1.82, sim.DefaultNoise, []byte("converge"))

	var (
		level uint32
		wasOK bool
	)

	for i := range simClocks {
		require.NoError(t, m.AddBit(g.Clock()))

		if uint64(i+1) < inmhealth.DefaultHealthWindow {
			require.False(t, m.OkToUseData(), "clock %d", i)
		}

		next := m.EntropyLevel()
		require.GreaterOrEqual(t, next, level, "entropy level dropped at clock %d", i)
		require.LessOrEqual(t, next, uint32(inmhealth.DefaultMaxEntropy))

		level = next
		wasOK = wasOK || m.OkToUseData()
	}

	assert.True(t, wasOK)
	assert.True(t, m.OkToUseData())
	assert.InEpsilon(t, 1.82, m.EstimateK(), 0.02)
	assert.InEpsilon(t, m.ExpectedEntropyPerBit(), m.EstimateEntropyPerBit(), 0.02)
	assert.Equal(t, uint32(inmhealth.DefaultMaxEntropy), m.EntropyLevel())

	m.ClearEntropyLevel()

	assert.Zero(t, m.EntropyLevel())

	r := m.Report()

	assert.Equal(t, uint64(simClocks), r.TotalBits)
	assert.True(t, r.OK)
	assert.InDelta(t, 50, r.OnesPercent, 10)
	assert.Greater(t, r.Probability, 0.5)
}

func TestWrongGainWithholdsEntropy(t *testing.T) {
	m, err := inmhealth.New(8, 1.82)
	require.NoError(t, err)

	defer m.Close()

	g := sim.New(1.5, sim.DefaultNoise, []byte("degraded"))

	require.NoError(t, g.Feed(m, simClocks))

	assert.False(t, m.OkToUseData())
	assert.Zero(t, m.EntropyLevel())
	assert.InEpsilon(t, 1.5, m.EstimateK(), 0.03)
	assert.NoError(t, m.Err())
}

func TestEntropyLevelCap(t *testing.T) {
	m, err := inmhealth.New(8, 1.82, inmhealth.WithMaxEntropy(64))
	require.NoError(t, err)

	defer m.Close()

	g := sim.New(1.82, sim.DefaultNoise, []byte("cap"))

	require.NoError(t, g.Feed(m, 100000))

	assert.Equal(t, uint32(64), m.EntropyLevel())
}

func TestPredictionProfileOfSimulation(t *testing.T) {
	m, err := inmhealth.New(8, 1.82)
	require.NoError(t, err)

	defer m.Close()

	require.NoError(t, sim.New(1.82, sim.DefaultNoise, []byte("profile")).Feed(m, 50000))

	profile, err := m.PredictionProfile()
	require.NoError(t, err)
	require.Len(t, profile, 8)

	for _, acc := range profile {
		assert.GreaterOrEqual(t, acc, 0.5)
		assert.LessOrEqual(t, acc, 1.0)
	}
}

func TestEntropyOnTargetBlock(t *testing.T) {
	m, err := inmhealth.New(8, 1.82)
	require.NoError(t, err)

	defer m.Close()

	require.NoError(t, sim.New(1.82, sim.DefaultNoise, []byte("block")).Feed(m, simClocks))

	r := m.Report()

	claimed := uint32(r.EntropyPerBit * 4096)

	assert.True(t, m.EntropyOnTarget(claimed, 4096))
	assert.False(t, m.EntropyOnTarget(claimed/2, 4096))
}
