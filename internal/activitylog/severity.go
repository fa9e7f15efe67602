package activitylog

import (
	"errors"
	"math/rand/v2"

	"github.com/specialistvlad/flowsim/internal/node"
)

// Weights sets the relative odds of each generated severity. Success is
// never generated by a tick.
type Weights struct {
	Info    int
	Warning int
	Error   int
}

// DefaultWeights gives 80% info and splits the rest between warning and
// error.
var DefaultWeights = Weights{Info: 80, Warning: 12, Error: 8}

func (w Weights) validate() error {
	if w.Info < 0 || w.Warning < 0 || w.Error < 0 {
		return errors.New("severity weights must not be negative")
	}
	if w.Info+w.Warning+w.Error == 0 {
		return errors.New("severity weights must not all be zero")
	}
	return nil
}

func (w Weights) draw(r *rand.Rand) node.Severity {
	n := r.IntN(w.Info + w.Warning + w.Error)
	switch {
	case n < w.Info:
		return node.SeverityInfo
	case n < w.Info+w.Warning:
		return node.SeverityWarning
	default:
		return node.SeverityError
	}
}
