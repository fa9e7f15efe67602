package scheduler

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// RunHandle identifies one run. Done is closed when the run completes or is
// cancelled; Outcome is stable once Done is closed and may be read from any
// goroutine after that.
type RunHandle struct {
	id      string
	done    chan struct{}
	outcome Outcome
}

func newHandle(id string) *RunHandle {
	return &RunHandle{id: id, done: make(chan struct{})}
}

// ID returns the run id.
func (h *RunHandle) ID() string { return h.id }

// Done returns a channel closed when the run ends.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Outcome reports how the run ended. Before Done is closed it is only
// meaningful on the loop goroutine.
func (h *RunHandle) Outcome() Outcome { return h.outcome }

func (h *RunHandle) finish(o Outcome) {
	if h.outcome != OutcomeRunning {
		return
	}
	h.outcome = o
	close(h.done)
}
