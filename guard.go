package inmhealth

const (
	// MaxSequence is the longest run of identical bits a working multiplier may emit.
	MaxSequence = 20

	// WarmUpBits is the number of sampled bits before the run guard starts counting.
	WarmUpBits = 100
)

// guard tracks run lengths and lane misfires.
type guard struct {
	prevEven bool
	prevOdd  bool

	evenMisfires uint32
	oddMisfires  uint32

	seqOnes  uint32
	seqZeros uint32

	totalOnes  uint32
	totalZeros uint32
}

// misfire records whether the current lane's raw bit changed, then remembers both lanes.
func (g *guard) misfire(evenBit, oddBit, even bool) {
	if even {
		if evenBit != g.prevEven {
			g.evenMisfires++
		}
	} else if oddBit != g.prevOdd {
		g.oddMisfires++
	}

	g.prevEven = evenBit
	g.prevOdd = oddBit
}

// run extends the current run with bit and returns its length if it exceeds MaxSequence.
func (g *guard) run(bit bool) (uint32, bool) {
	if bit {
		g.totalOnes++
		g.seqOnes++
		g.seqZeros = 0

		return g.seqOnes, g.seqOnes > MaxSequence
	}

	g.totalZeros++
	g.seqZeros++
	g.seqOnes = 0

	return g.seqZeros, g.seqZeros > MaxSequence
}

func (g *guard) halveMisfires() {
	g.evenMisfires >>= 1
	g.oddMisfires >>= 1
}

// scaleTotals halves the ones and zeros totals once the larger reaches ceiling.
func (g *guard) scaleTotals(ceiling uint32) {
	if max(g.totalOnes, g.totalZeros) >= ceiling {
		g.totalOnes >>= 1
		g.totalZeros >>= 1
	}
}

func (g *guard) onesPercent() float64 {
	total := g.totalOnes + g.totalZeros
	if total == 0 {
		return 0
	}

	return float64(g.totalOnes) * 100 / float64(total)
}
