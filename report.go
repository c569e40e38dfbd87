package inmhealth

import (
	"bufio"
	"fmt"
	"io"
)

// Report is a snapshot of the health check state.
type Report struct {
	TotalBits     uint64
	OK            bool
	EntropyPerBit float64
	Expected      float64
	K             float64
	EntropyLevel  uint32
	Probability   float64

	OnesPercent        float64
	EvenMisfirePercent float64
	OddMisfirePercent  float64
}

// Report returns the current statistics of the monitor.
func (m *Monitor) Report() Report {
	r := Report{
		TotalBits:     m.totalBits,
		OK:            m.OkToUseData(),
		EntropyPerBit: m.EstimateEntropyPerBit(),
		Expected:      m.expectedPerBit,
		K:             m.EstimateK(),
		EntropyLevel:  m.level,
		Probability:   m.probability,
		OnesPercent:   m.guard.onesPercent(),
	}

	if m.sampledBits > 0 {
		r.EvenMisfirePercent = float64(m.guard.evenMisfires) * 100 / float64(m.sampledBits)
		r.OddMisfirePercent = float64(m.guard.oddMisfires) * 100 / float64(m.sampledBits)
	}

	return r
}

func (m *Monitor) logReport() {
	r := m.Report()

	m.logger.Info("health report",
		"bits", r.TotalBits,
		"ok", r.OK,
		"entropy_per_bit", r.EntropyPerBit,
		"k", r.K,
		"ones_pct", r.OnesPercent,
		"even_misfire_pct", r.EvenMisfirePercent,
		"odd_misfire_pct", r.OddMisfirePercent,
	)
}

// PredictionAccuracy returns the probability of guessing the next even-lane bit correctly
// when only the low bits of the context are known. Comparing widths shows how many bits
// of history still carry information.
func (m *Monitor) PredictionAccuracy(bits int) (float64, error) {
	if m.tables == nil {
		return 0, ErrStopped
	}

	if bits < MinContextBits || bits > int(m.n) {
		return 0, fmt.Errorf("%w: got %d, monitor uses %d", ErrContextWidth, bits, m.n)
	}

	var guesses, right uint64

	low := 1 << bits
	size := m.tables.size()

	for i := range low {
		var zeros, ones uint64

		for pos := i; pos < size; pos += low {
			zeros += uint64(m.tables.even.zeros[pos])
			ones += uint64(m.tables.even.ones[pos])
		}

		right += max(zeros, ones)
		guesses += zeros + ones
	}

	if guesses == 0 {
		return 0, nil
	}

	return float64(right) / float64(guesses), nil
}

// PredictionProfile returns PredictionAccuracy for every width from 1 to N.
func (m *Monitor) PredictionProfile() ([]float64, error) {
	profile := make([]float64, 0, m.n)

	for bits := MinContextBits; bits <= int(m.n); bits++ {
		acc, err := m.PredictionAccuracy(bits)
		if err != nil {
			return nil, err
		}

		profile = append(profile, acc)
	}

	return profile, nil
}

// DumpTables writes one line per context: index, onesEven, zerosEven, onesOdd, zerosOdd.
func (m *Monitor) DumpTables(w io.Writer) error {
	if m.tables == nil {
		return ErrStopped
	}

	bw := bufio.NewWriter(w)

	t := m.tables

	for i := range t.size() {
		_, err := fmt.Fprintf(bw, "%x onesEven:%d zerosEven:%d onesOdd:%d zerosOdd:%d\n",
			i, t.even.ones[i], t.even.zeros[i], t.odd.ones[i], t.odd.zeros[i])
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}
