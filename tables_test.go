package inmhealth

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextTablesSize(t *testing.T) {
	for _, n := range []uint8{1, 4, 12} {
		tables, err := newContextTables(n, 0)
		require.NoError(t, err)

		assert.Equal(t, 1<<n, tables.size())
		assert.Len(t, tables.even.zeros, 1<<n)
		assert.Len(t, tables.odd.ones, 1<<n)
		assert.Len(t, tables.odd.zeros, 1<<n)
	}
}

func TestContextTablesMemoryLimit(t *testing.T) {
	_, err := newContextTables(10, 16*1024-1)
	require.ErrorIs(t, err, ErrAlloc)

	_, err = newContextTables(10, 16*1024)
	require.NoError(t, err)
}

func TestLaneObserveCeiling(t *testing.T) {
	tables, err := newContextTables(2, 0)
	require.NoError(t, err)

	l := tables.lane(false)
	l.ones[3] = MaxCount - 2

	assert.False(t, l.observe(3, true))
	assert.True(t, l.observe(3, true))
	assert.False(t, l.observe(3, false))

	assert.Equal(t, uint32(1), tables.odd.zeros[3])
	assert.Zero(t, tables.even.ones[3])
}

func TestScaleHalvesAllTables(t *testing.T) {
	tables, err := newContextTables(6, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))

	all := []*[]uint32{&tables.even.ones, &tables.even.zeros, &tables.odd.ones, &tables.odd.zeros}

	for _, table := range all {
		for i := range *table {
			(*table)[i] = rng.Uint32N(MaxCount)
		}
	}

	before := make([][]uint32, len(all))
	for i, table := range all {
		before[i] = append([]uint32(nil), (*table)...)
	}

	tables.scale()

	for i, table := range all {
		for j, v := range *table {
			require.Equal(t, before[i][j]>>1, v, "table %d cell %d", i, j)
		}
	}
}
