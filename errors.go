package inmhealth

import (
	"errors"
	"fmt"
)

var (
	ErrContextWidth = errors.New("context width must be between 1 and 30 bits")
	ErrGain         = errors.New("gain must be a finite value greater than 1")
	ErrTolerance    = errors.New("tolerance must be a finite factor greater than 1")
	ErrAlloc        = errors.New("unable to allocate context tables")
	ErrStuckSource  = errors.New("maximum sequence of identical bits exceeded")
	ErrStopped      = errors.New("health check stopped")
	ErrClosed       = errors.New("channel closed")
)

// AnomalyError reports a run of identical bits that the noise source should never produce.
// It wraps ErrStuckSource.
type AnomalyError struct {
	Bit    bool
	Run    uint32
	Offset uint64
}

func (e *AnomalyError) Error() string {
	bit := 0
	if e.Bit {
		bit = 1
	}

	return fmt.Sprintf("maximum sequence of %d %d's exceeded at bit %d (run of %d)", MaxSequence, bit, e.Offset, e.Run)
}

func (e *AnomalyError) Unwrap() error {
	return ErrStuckSource
}
