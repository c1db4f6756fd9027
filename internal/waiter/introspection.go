package waiter

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/metrics"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

// IntrospectionAPI reports the introspection state of a node.
type IntrospectionAPI interface {
	GetIntrospectionStatus(ctx context.Context, id string) (openstack.IntrospectionStatus, error)
}

// IntrospectionWaiter waits for a set of nodes to finish introspection.
type IntrospectionWaiter struct {
	API      IntrospectionAPI
	Rounds   int
	Interval time.Duration
}

// IntrospectionResult is one node that finished introspection.
// Status.Error is set if introspection finished unsuccessfully.
type IntrospectionResult struct {
	NodeID string
	Status openstack.IntrospectionStatus
}

// Watch returns an iterator over nodes as they finish introspection.
// No request is made until the first call to Next.
func (w *IntrospectionWaiter) Watch(nodeIDs []string) *IntrospectionIterator {
	rounds := w.Rounds
	if rounds <= 0 {
		rounds = 220
	}
	return &IntrospectionIterator{
		api:         w.API,
		rounds:      rounds,
		interval:    w.Interval,
		outstanding: slices.Clone(nodeIDs),
	}
}

// IntrospectionIterator pulls one round of statuses at a time and hands
// out finished nodes one by one.
//
//	it := w.Watch(ids)
//	for it.Next(ctx) {
//		r := it.Result()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type IntrospectionIterator struct {
	api      IntrospectionAPI
	rounds   int
	interval time.Duration

	outstanding []string
	buf         []IntrospectionResult
	cur         IntrospectionResult
	round       int
	started     time.Time

	done    bool
	outcome Outcome
	err     error
}

// Next advances to the next finished node. It returns false once every
// node finished, the round budget ran out, a remote call failed or ctx was
// canceled; Outcome and Err tell which.
func (it *IntrospectionIterator) Next(ctx context.Context) bool {
	if it.started.IsZero() {
		it.started = time.Now()
	}
	for {
		if len(it.buf) > 0 {
			it.cur, it.buf = it.buf[0], it.buf[1:]
			return true
		}
		if it.done {
			return false
		}
		if len(it.outstanding) == 0 {
			it.finish(Converged, nil)
			return false
		}
		if it.round >= it.rounds {
			logr.FromContextOrDiscard(ctx).Error(nil, "Introspection didn't finish for nodes",
				"nodes", strings.Join(it.outstanding, ","))
			it.finish(TimedOut, nil)
			return false
		}
		if it.round > 0 && !Sleep(ctx, it.interval) {
			it.finish(Canceled, deployerr.Canceled(ctx.Err()))
			return false
		}
		it.poll(ctx)
	}
}

// poll queries every outstanding node once, buffering finished ones.
// On a remote error the nodes fetched so far are still delivered.
func (it *IntrospectionIterator) poll(ctx context.Context) {
	it.round++
	metrics.RecordWaitAttempt("introspection")
	log := logr.FromContextOrDiscard(ctx)

	remaining := make([]string, 0, len(it.outstanding))
	for i, id := range it.outstanding {
		st, err := it.api.GetIntrospectionStatus(ctx, id)
		if err != nil {
			remaining = append(remaining, it.outstanding[i:]...)
			if ctx.Err() != nil {
				it.finish(Canceled, deployerr.Canceled(ctx.Err()))
			} else {
				it.finish(OutcomeUnknown, err)
			}
			break
		}
		if !st.Finished {
			remaining = append(remaining, id)
			continue
		}
		log.V(1).Info("Introspection finished for node", "node", id, "error", st.Error)
		it.buf = append(it.buf, IntrospectionResult{NodeID: id, Status: st})
	}
	it.outstanding = remaining
}

func (it *IntrospectionIterator) finish(outcome Outcome, err error) {
	it.done = true
	it.outcome = outcome
	it.err = err
	metrics.RecordWaitOutcome("introspection", outcome.String(), time.Since(it.started).Seconds())
}

// Result returns the node produced by the last successful call to Next.
func (it *IntrospectionIterator) Result() IntrospectionResult {
	return it.cur
}

// Err returns the remote or cancellation error that ended the iteration.
// Exhausting the round budget is not an error.
func (it *IntrospectionIterator) Err() error {
	return it.err
}

// Outcome reports how the iteration ended. It is OutcomeUnknown while
// nodes remain to be produced.
func (it *IntrospectionIterator) Outcome() Outcome {
	if len(it.buf) > 0 {
		return OutcomeUnknown
	}
	return it.outcome
}

// Unfinished returns the nodes that have not finished introspection.
func (it *IntrospectionIterator) Unfinished() []string {
	return slices.Clone(it.outstanding)
}

// All adapts the iterator to a range-over-func sequence.
func (it *IntrospectionIterator) All(ctx context.Context) iter.Seq2[string, openstack.IntrospectionStatus] {
	return func(yield func(string, openstack.IntrospectionStatus) bool) {
		for it.Next(ctx) {
			r := it.Result()
			if !yield(r.NodeID, r.Status) {
				return
			}
		}
	}
}
