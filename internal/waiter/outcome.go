package waiter

// Outcome is how a wait ended.
type Outcome int

const (
	// OutcomeUnknown is returned together with a remote error.
	OutcomeUnknown Outcome = iota
	// Converged means the done condition was observed.
	Converged
	// Vanished means the resource disappeared while being waited on.
	// It counts as success: there is nothing left to wait for.
	Vanished
	// Failed means the failure condition was observed.
	Failed
	// TimedOut means the attempt budget ran out.
	TimedOut
	// Canceled means the context was canceled.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Vanished:
		return "vanished"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Succeeded reports whether the outcome lets the caller proceed.
func (o Outcome) Succeeded() bool {
	return o == Converged || o == Vanished
}
