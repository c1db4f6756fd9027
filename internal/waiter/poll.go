package waiter

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/metrics"
)

// Poll repeatedly fetches a snapshot until Done or Failed holds for it.
type Poll[T any] struct {
	// Kind labels metrics, e.g. "stack" or "provision_state".
	Kind string
	// Fetch returns the current snapshot. An error stops the poll.
	Fetch func(ctx context.Context) (T, error)
	// Done and Failed are evaluated in that order. Either may be nil.
	Done   func(T) bool
	Failed func(T) bool
	// Interval is slept between attempts that matched neither predicate.
	Interval time.Duration
	// MaxAttempts bounds the number of fetches. Zero means unbounded.
	MaxAttempts int
}

// Run polls until an outcome is reached and returns the last snapshot.
func (p Poll[T]) Run(ctx context.Context) (Outcome, T, error) {
	start := time.Now()

	var (
		last    T
		outcome Outcome
	)
	cond := func(ctx context.Context) (bool, error) {
		metrics.RecordWaitAttempt(p.Kind)
		v, err := p.Fetch(ctx)
		if err != nil {
			return false, err
		}
		last = v
		switch {
		case p.Done != nil && p.Done(v):
			outcome = Converged
			return true, nil
		case p.Failed != nil && p.Failed(v):
			outcome = Failed
			return true, nil
		}
		return false, nil
	}

	var err error
	if p.MaxAttempts > 0 {
		err = wait.ExponentialBackoffWithContext(ctx, wait.Backoff{
			Duration: p.Interval,
			Factor:   1,
			Steps:    p.MaxAttempts,
		}, cond)
	} else {
		err = wait.PollUntilContextCancel(ctx, p.Interval, true, cond)
	}

	switch {
	case err == nil:
	case ctx.Err() != nil:
		outcome, err = Canceled, deployerr.Canceled(ctx.Err())
	case wait.Interrupted(err):
		outcome, err = TimedOut, nil
	default:
		outcome = OutcomeUnknown
	}

	metrics.RecordWaitOutcome(p.Kind, outcome.String(), time.Since(start).Seconds())
	return outcome, last, err
}

// Sleep pauses for d. It returns false if ctx is done first.
func Sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
