package inmhealth

import (
	"errors"
	"io"
	"sync"
)

const (
	// Comparator output positions in a raw sample byte.
	COMP1 = 1 // odd lane
	COMP2 = 4 // even lane

	// sampleBatch is the most samples pulled from the source per read.
	sampleBatch = 32 * 1024
)

// Channel feeds raw multiplier samples through a Monitor and hands out the resulting bits.
// Each physical noise source needs its own Channel.
type Channel struct {
	mu      sync.Mutex
	src     io.Reader
	monitor *Monitor
	running bool
	err     error

	inBulk  []byte
	pending []byte // samples read past the last full byte
}

// NewChannel wraps src, which yields one raw sample byte per multiplier clock.
func NewChannel(src io.Reader, m *Monitor) *Channel {
	return &Channel{
		src:     src,
		monitor: m,
		running: true,
		inBulk:  make([]byte, sampleBatch),
		pending: make([]byte, 0, 8),
	}
}

// Read fills p with the unwhitened bitstream, eight clocks per byte, checking every bit.
// A fatal anomaly closes the channel and is returned with the bytes assembled before it.
// Samples past the last full byte of a short read are kept and fed first on the next call,
// so a transient source error loses no clocks and keeps the lanes aligned.
func (c *Channel) Read(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		if c.err != nil {
			return 0, c.err
		}

		return 0, ErrClosed
	}

	for n < len(p) {
		needIn := min((len(p)-n)*8, len(c.inBulk))

		have := copy(c.inBulk, c.pending)
		c.pending = c.pending[:0]

		got, rerr := io.ReadFull(c.src, c.inBulk[have:needIn])
		got += have

		outCount := got / 8

		in := c.inBulk[:outCount*8]
		out := p[n : n+outCount]

		for i := range outCount {
			base := i * 8

			var b uint8

			for j := range 8 {
				val := in[base+j]

				evenBit := (val>>COMP2)&1 == 1
				oddBit := (val>>COMP1)&1 == 1
				even := j&1 == 0

				aerr := c.monitor.AddBit(evenBit, oddBit, even)
				if aerr != nil {
					c.running = false
					c.err = aerr

					return n + i, aerr
				}

				bit := oddBit
				if even {
					bit = evenBit
				}

				b <<= 1
				if bit {
					b |= 1
				}
			}

			out[i] = b
		}

		n += outCount

		c.pending = append(c.pending, c.inBulk[outCount*8:got]...)

		if rerr != nil {
			if errors.Is(rerr, io.ErrUnexpectedEOF) {
				rerr = io.EOF
			}

			return n, rerr
		}
	}

	return n, nil
}

// EntropyLevel returns the validated entropy available to the consumer.
func (c *Channel) EntropyLevel() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.monitor.EntropyLevel()
}

// Drain returns the entropy level and resets it, handing the entropy to the consumer.
func (c *Channel) Drain() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	level := c.monitor.EntropyLevel()

	c.monitor.ClearEntropyLevel()

	return level
}

// OkToUseData reports the monitor's verdict.
func (c *Channel) OkToUseData() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.monitor.OkToUseData()
}

// Report returns a snapshot of the monitor statistics.
func (c *Channel) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.monitor.Report()
}

// Close stops the channel, closes the source if it can be closed, and frees the monitor tables.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false

	c.monitor.Close()

	if closer, ok := c.src.(io.Closer); ok {
		err := closer.Close()

		c.src = nil

		return err
	}

	return nil
}
