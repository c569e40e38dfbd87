package inmhealth

import (
	"fmt"
)

// MaxCount is the ceiling of a single occurrence cell. Reaching it halves every table.
const MaxCount = 1 << 14

// lane holds the occurrence counts for one comparator lane.
type lane struct {
	ones  []uint32
	zeros []uint32
}

// contextTables is the prediction store: one lane per comparator, each indexed by the shared context window.
type contextTables struct {
	even lane
	odd  lane
}

func newContextTables(n uint8, limit uint64) (*contextTables, error) {
	size := uint64(1) << n

	need := 4 * size * 4
	if limit > 0 && need > limit {
		return nil, fmt.Errorf("%w: %d bytes needed, limit is %d", ErrAlloc, need, limit)
	}

	var t contextTables

	for _, dst := range []*[]uint32{&t.even.ones, &t.even.zeros, &t.odd.ones, &t.odd.zeros} {
		table, err := allocTable(size)
		if err != nil {
			return nil, err
		}

		*dst = table
	}

	return &t, nil
}

// allocTable turns a refused allocation into ErrAlloc instead of a panic.
func allocTable(size uint64) (table []uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fmt.Errorf("%w: %v", ErrAlloc, r)
		}
	}()

	return make([]uint32, size), nil
}

func (t *contextTables) lane(even bool) *lane {
	if even {
		return &t.even
	}

	return &t.odd
}

// observe increments the cell for bit at ctx and reports whether it hit MaxCount.
func (l *lane) observe(ctx uint32, bit bool) bool {
	if bit {
		l.ones[ctx]++

		return l.ones[ctx] >= MaxCount
	}

	l.zeros[ctx]++

	return l.zeros[ctx] >= MaxCount
}

// scale halves all four tables together so every cell keeps its zeros:ones ratio.
func (t *contextTables) scale() {
	for i := range t.even.ones {
		t.even.ones[i] >>= 1
		t.even.zeros[i] >>= 1
		t.odd.ones[i] >>= 1
		t.odd.zeros[i] >>= 1
	}
}

func (t *contextTables) size() int {
	return len(t.even.ones)
}
