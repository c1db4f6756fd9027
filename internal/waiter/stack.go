package waiter

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/platform/openstack"
)

// StackAPI is the part of the orchestration service the stack waiter needs.
type StackAPI interface {
	GetStack(ctx context.Context, name string) (*openstack.Stack, error)
	ListEvents(ctx context.Context, stack string, opts openstack.EventListOpts) ([]openstack.Event, error)
}

// StackWaiter waits for a stack action to complete by following its events.
type StackWaiter struct {
	API      StackAPI
	Interval time.Duration
	// NestedDepth includes events of nested stacks. Defaults to 2.
	NestedDepth int
	// OnEvents, if set, receives every batch of new events.
	OnEvents func([]openstack.Event)
}

// StackResult is the end state of a stack wait.
type StackResult struct {
	Outcome Outcome
	// Marker is the ID of the last event consumed.
	Marker string
	// Event is the terminal event of the stack, if one was seen.
	Event *openstack.Event
}

type stackRound struct {
	terminal *openstack.Event
}

// Wait follows the events of stack name newer than marker until the stack
// itself reports <action>_COMPLETE or <action>_FAILED. There is no attempt
// limit; cancel ctx to stop waiting. A stack that does not exist yields
// Failed immediately.
func (w *StackWaiter) Wait(ctx context.Context, name, marker, action string) (StackResult, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("stack", name, "action", action)

	stack, err := w.API.GetStack(ctx, name)
	if err != nil {
		return StackResult{Marker: marker}, err
	}
	if stack == nil {
		log.Info("stack not found, nothing to wait for")
		return StackResult{Outcome: Failed, Marker: marker}, nil
	}
	name = stack.Name

	depth := w.NestedDepth
	if depth == 0 {
		depth = 2
	}
	complete, failed := action+"_COMPLETE", action+"_FAILED"

	poll := Poll[stackRound]{
		Kind:     "stack",
		Interval: w.Interval,
		Fetch: func(ctx context.Context) (stackRound, error) {
			events, err := w.API.ListEvents(ctx, name, openstack.EventListOpts{
				Marker:      marker,
				NestedDepth: depth,
				SortDir:     openstack.SortAsc,
			})
			if err != nil {
				return stackRound{}, err
			}
			if len(events) == 0 {
				return stackRound{}, nil
			}
			// The marker moves past every delivered event, matching or not,
			// so no event is delivered twice.
			marker = events[len(events)-1].ID
			if w.OnEvents != nil {
				w.OnEvents(events)
			}
			for i := range events {
				ev := &events[i]
				if ev.ResourceName == name && (ev.Status == complete || ev.Status == failed) {
					return stackRound{terminal: ev}, nil
				}
			}
			return stackRound{}, nil
		},
		Done: func(r stackRound) bool {
			return r.terminal != nil && r.terminal.Status == complete
		},
		Failed: func(r stackRound) bool {
			return r.terminal != nil && r.terminal.Status == failed
		},
	}

	outcome, round, err := poll.Run(ctx)
	log.V(1).Info("stack wait finished", "outcome", outcome.String(), "marker", marker)
	return StackResult{Outcome: outcome, Marker: marker, Event: round.terminal}, err
}
