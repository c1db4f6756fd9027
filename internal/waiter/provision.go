package waiter

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/platform/openstack"
)

// NodeGetter fetches a bare metal node, returning nil if it does not exist.
type NodeGetter interface {
	GetNode(ctx context.Context, id string) (*openstack.Node, error)
}

// ProvisionStateWaiter waits for a node to reach a provision state.
type ProvisionStateWaiter struct {
	API      NodeGetter
	Attempts int
	Interval time.Duration
}

// Wait polls node id until its provision state equals target. A node that
// disappears yields Vanished. Running out of attempts yields TimedOut.
func (w *ProvisionStateWaiter) Wait(ctx context.Context, id, target string) (Outcome, error) {
	attempts := w.Attempts
	if attempts <= 0 {
		attempts = 10
	}

	poll := Poll[*openstack.Node]{
		Kind:        "provision_state",
		Interval:    w.Interval,
		MaxAttempts: attempts,
		Fetch: func(ctx context.Context) (*openstack.Node, error) {
			return w.API.GetNode(ctx, id)
		},
		Done: func(n *openstack.Node) bool {
			return n == nil || n.ProvisionState == target
		},
	}

	outcome, node, err := poll.Run(ctx)
	if outcome == Converged && node == nil {
		outcome = Vanished
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("provision state wait finished",
		"node", id, "target", target, "outcome", outcome.String())
	return outcome, err
}
