package scheduler

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultDwell is how long every node of a layer stays Running.
	DefaultDwell = 2 * time.Second
	// DefaultStagger is the gap between the starts of consecutive layers.
	DefaultStagger = 3 * time.Second
)

// ErrInvalidTiming is returned by New for timings that would let layers
// overlap or never advance.
var ErrInvalidTiming = errors.New("invalid scheduler timing")

// Config holds the layer timing.
type Config struct {
	Dwell   time.Duration
	Stagger time.Duration
}

// DefaultConfig returns the stock timing.
func DefaultConfig() Config {
	return Config{Dwell: DefaultDwell, Stagger: DefaultStagger}
}

// Validate rejects non-positive durations and a dwell longer than the stagger.
func (c Config) Validate() error {
	if c.Dwell <= 0 {
		return fmt.Errorf("%w: dwell must be positive, got %s", ErrInvalidTiming, c.Dwell)
	}
	if c.Stagger <= 0 {
		return fmt.Errorf("%w: stagger must be positive, got %s", ErrInvalidTiming, c.Stagger)
	}
	if c.Dwell > c.Stagger {
		return fmt.Errorf("%w: dwell %s exceeds stagger %s", ErrInvalidTiming, c.Dwell, c.Stagger)
	}
	return nil
}
