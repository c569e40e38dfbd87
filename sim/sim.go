// Package sim models an Infinite Noise Multiplier in software.
//
// The model is the one the health check was designed against: a value A in [0, 1] is
// compared with 0.5 on every clock, then multiplied by the gain K, with a little noise
// added before each step. Its output carries log2(K) bits of entropy per clock, which
// makes it a reference source for testing the health check without hardware.
package sim

import (
	"encoding/binary"

	"github.com/coalaura/inmhealth"
	"golang.org/x/crypto/sha3"
)

// DefaultNoise is the noise amplitude of the reference simulation.
const DefaultNoise = 1.0 / (1 << 10)

// Generator is a deterministic multiplier driven by a seeded SHAKE256 noise stream.
type Generator struct {
	k     float64
	noise float64
	a     float64

	shake sha3.ShakeHash
	buf   [8]byte

	clock   uint64
	evenBit bool
	oddBit  bool
}

// New returns a multiplier with gain k and noise amplitude noise. The same seed always
// yields the same bitstream.
func New(k, noise float64, seed []byte) *Generator {
	shake := sha3.NewShake256()

	shake.Write([]byte("inmhealth/sim"))
	shake.Write(seed)

	g := &Generator{
		k:     k,
		noise: noise,
		shake: shake,
	}

	g.a = g.uniform()

	// Throw away some initial bits.
	for range 32 {
		g.Next()
	}

	return g
}

func (g *Generator) uniform() float64 {
	g.shake.Read(g.buf[:])

	return float64(binary.BigEndian.Uint64(g.buf[:])>>11) / (1 << 53)
}

// Next advances the multiplier by one step and returns the comparator output.
func (g *Generator) Next() bool {
	noise := g.noise * (g.uniform() - 0.5)

	if g.a > 1 {
		g.a = 1
	} else if g.a < 0 {
		g.a = 0
	}

	g.a += noise

	if g.a > 0.5 {
		g.a = g.k*g.a - (g.k - 1)

		return true
	}

	g.a += noise
	g.a = g.k * g.a

	return false
}

// Clock produces one clock of both comparators. Even clocks drive the even comparator,
// odd clocks the odd one; the other keeps its previous output.
func (g *Generator) Clock() (evenBit, oddBit, even bool) {
	bit := g.Next()

	even = g.clock&1 == 0
	if even {
		g.evenBit = bit
	} else {
		g.oddBit = bit
	}

	g.clock++

	return g.evenBit, g.oddBit, even
}

// Read fills p with raw samples in the layout read by inmhealth.Channel.
func (g *Generator) Read(p []byte) (int, error) {
	for i := range p {
		evenBit, oddBit, _ := g.Clock()

		var sample byte

		if evenBit {
			sample |= 1 << inmhealth.COMP2
		}

		if oddBit {
			sample |= 1 << inmhealth.COMP1
		}

		p[i] = sample
	}

	return len(p), nil
}

// Feed runs clocks steps of the multiplier straight into m.
func (g *Generator) Feed(m *inmhealth.Monitor, clocks int) error {
	for range clocks {
		err := m.AddBit(g.Clock())
		if err != nil {
			return err
		}
	}

	return nil
}
