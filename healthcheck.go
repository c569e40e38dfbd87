package inmhealth

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	MinContextBits = 1
	MaxContextBits = 30

	// ScaleCeiling is where the sample, entropy, misfire and ones/zeros counters are halved.
	ScaleCeiling = 80000
)

// Monitor implements the Infinite Noise health check for a single channel.
//
// The next bit is predicted from the previous N bits by counting how often a 0 or 1 followed
// that context. Every observed bit multiplies the running probability of the whole sequence
// by its predicted probability, and every halving of that probability is one bit of entropy.
// An INM with gain K produces log2(K) bits of entropy per clock, so a measured rate that
// drifts away from that value means the multiplier is not working.
//
// A Monitor is not safe for concurrent use; wrap it in a Channel to share it.
type Monitor struct {
	opts   options
	logger *slog.Logger

	n              uint8
	mask           uint32
	k              float64
	expectedPerBit float64
	tables         *contextTables
	window         uint32
	probability    float64
	entropyBits    uint32
	sampledBits    uint32
	totalBits      uint64
	level          uint32
	guard          guard
	err            error
}

// New starts a health check predicting each bit from the previous n bits of a multiplier with gain k.
func New(n int, k float64, opts ...option) (*Monitor, error) {
	if n < MinContextBits || n > MaxContextBits {
		return nil, fmt.Errorf("%w: got %d", ErrContextWidth, n)
	}

	if math.IsNaN(k) || math.IsInf(k, 0) || k <= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrGain, k)
	}

	o := defaultOptions()

	for _, opt := range opts {
		opt(&o)
	}

	if math.IsNaN(o.tolerance) || math.IsInf(o.tolerance, 0) || o.tolerance <= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrTolerance, o.tolerance)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	tables, err := newContextTables(uint8(n), o.memoryLimit)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		opts:           o,
		logger:         o.logger,
		n:              uint8(n),
		mask:           uint32(1)<<n - 1,
		k:              k,
		expectedPerBit: math.Log2(k),
		tables:         tables,
		probability:    1,
	}, nil
}

// Close releases the context tables. It is safe to call more than once.
func (m *Monitor) Close() {
	m.tables = nil

	if m.err == nil {
		m.err = ErrStopped
	}
}

// AddBit processes one multiplier clock. evenBit and oddBit are the latest outputs of both
// comparators and even selects which of them is the current bit.
//
// A returned *AnomalyError is fatal: the source must no longer be trusted and every later
// call returns the same error.
func (m *Monitor) AddBit(evenBit, oddBit, even bool) error {
	if m.err != nil {
		return m.err
	}

	bit := oddBit
	if even {
		bit = evenBit
	}

	m.guard.misfire(evenBit, oddBit, even)

	m.totalBits++

	if m.opts.debug && m.totalBits%m.opts.reportInterval == 0 {
		m.logReport()
	}

	if m.sampledBits >= WarmUpBits {
		if run, stuck := m.guard.run(bit); stuck {
			m.err = &AnomalyError{
				Bit:    bit,
				Run:    run,
				Offset: m.totalBits,
			}

			m.logger.Error("health check failed", "error", m.err)

			return m.err
		}
	}

	table := m.tables.lane(even)

	zeros := table.zeros[m.window]
	ones := table.ones[m.window]
	total := float64(zeros) + float64(ones)

	if bit {
		if ones != 0 {
			m.probability *= float64(ones) / total
		}
	} else if zeros != 0 {
		m.probability *= float64(zeros) / total
	}

	for m.probability <= 0.5 {
		m.probability *= 2
		m.entropyBits++

		if m.level < m.opts.maxEntropy && m.OkToUseData() {
			m.level++
		}
	}

	m.sampledBits++

	if table.observe(m.window, bit) {
		m.tables.scale()
	}

	m.window <<= 1
	if bit {
		m.window |= 1
	}

	m.window &= m.mask

	m.scaleEntropy()
	m.guard.scaleTotals(ScaleCeiling)

	return nil
}

// scaleEntropy keeps the sample counters from overflowing when running continuously.
func (m *Monitor) scaleEntropy() {
	if m.sampledBits < ScaleCeiling {
		return
	}

	m.entropyBits >>= 1
	m.sampledBits >>= 1
	m.guard.halveMisfires()
}

// EstimateEntropyPerBit returns the measured entropy per bit.
func (m *Monitor) EstimateEntropyPerBit() float64 {
	if m.sampledBits == 0 {
		return 0
	}

	return float64(m.entropyBits) / float64(m.sampledBits)
}

// EstimateK returns the gain implied by the measured entropy, since entropyPerBit = log2(K).
func (m *Monitor) EstimateK() float64 {
	return math.Exp2(m.EstimateEntropyPerBit())
}

// ExpectedEntropyPerBit returns log2(K) for the configured gain.
func (m *Monitor) ExpectedEntropyPerBit() float64 {
	return m.expectedPerBit
}

// OkToUseData reports whether enough bits were seen and the measured entropy matches theory.
func (m *Monitor) OkToUseData() bool {
	if m.err != nil {
		return false
	}

	entropy := m.EstimateEntropyPerBit()
	tol := m.opts.tolerance

	return m.totalBits >= m.opts.window &&
		entropy*tol >= m.expectedPerBit &&
		entropy/tol <= m.expectedPerBit
}

// EntropyLevel returns the validated entropy units accumulated since the last clear.
func (m *Monitor) EntropyLevel() uint32 {
	return m.level
}

// ClearEntropyLevel resets the entropy level after the consumer took it.
func (m *Monitor) ClearEntropyLevel() {
	m.level = 0
}

// EntropyOnTarget checks that entropy measured over a block of numBits is high enough for use.
func (m *Monitor) EntropyOnTarget(entropy, numBits uint32) bool {
	expected := math.Trunc(float64(numBits) * m.expectedPerBit)

	return expected < float64(entropy)*m.opts.tolerance
}

// Err returns the fatal error latched by the monitor, if any.
func (m *Monitor) Err() error {
	return m.err
}

// ContextBits returns N.
func (m *Monitor) ContextBits() int {
	return int(m.n)
}

// TotalBits returns the number of bits processed since start.
func (m *Monitor) TotalBits() uint64 {
	return m.totalBits
}
