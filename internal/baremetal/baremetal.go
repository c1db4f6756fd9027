package baremetal

import (
	"context"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/metrics"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/waiter"
)

// API is the part of the bare metal and introspection services used here.
type API interface {
	ListNodes(ctx context.Context, opts openstack.NodeListOpts) ([]openstack.Node, error)
	GetNode(ctx context.Context, id string) (*openstack.Node, error)
	SetProvisionState(ctx context.Context, id, transition string) error
	StartIntrospection(ctx context.Context, id string) error
	GetIntrospectionStatus(ctx context.Context, id string) (openstack.IntrospectionStatus, error)
}

// Manager runs node workflows against API.
type Manager struct {
	api      API
	timeouts *config.Timeouts

	// IntrospectionStagger is the pause between starting introspection of
	// two nodes. PXE on virtual machines misbehaves when many nodes DHCP
	// at the same time.
	IntrospectionStagger time.Duration
}

// NewManager creates a Manager. Nil timeouts load the defaults.
func NewManager(api API, timeouts *config.Timeouts) *Manager {
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	return &Manager{api: api, timeouts: timeouts, IntrospectionStagger: 5 * time.Second}
}

// TransitionResult lists the nodes a bulk transition was applied to.
type TransitionResult struct {
	Succeeded []string
	// Failed nodes did not reach the target state within the attempt budget.
	Failed []string
	// Skipped nodes were already in one of the skipped states.
	Skipped []string
}

// SetNodesState requests transition for every node not in a skipped state
// and waits for each to reach target, one node at a time.
func (m *Manager) SetNodesState(ctx context.Context, nodes []openstack.Node, transition, target string, skipped ...string) (TransitionResult, error) {
	log := logr.FromContextOrDiscard(ctx)
	w := &waiter.ProvisionStateWaiter{
		API:      m.api,
		Attempts: m.timeouts.ProvisionPollAttempts,
		Interval: m.timeouts.ProvisionPollInterval,
	}

	var res TransitionResult
	for _, node := range nodes {
		if slices.Contains(skipped, node.ProvisionState) {
			res.Skipped = append(res.Skipped, node.UUID)
			continue
		}

		log.V(1).Info("setting provision state", "node", node.UUID, "from", node.ProvisionState, "transition", transition)
		if err := m.api.SetProvisionState(ctx, node.UUID, transition); err != nil {
			metrics.RecordNodeTransition(transition, "error")
			return res, err
		}

		outcome, err := w.Wait(ctx, node.UUID, target)
		if err != nil {
			metrics.RecordNodeTransition(transition, "error")
			return res, err
		}
		if !outcome.Succeeded() {
			log.Info("State not updated for node", "node", node.UUID, "target", target)
			metrics.RecordNodeTransition(transition, "failed")
			res.Failed = append(res.Failed, node.UUID)
			continue
		}
		metrics.RecordNodeTransition(transition, "success")
		res.Succeeded = append(res.Succeeded, node.UUID)
	}
	return res, nil
}

// Manage moves every node that is not yet manageable or deployed into the
// manageable state.
func (m *Manager) Manage(ctx context.Context) (TransitionResult, error) {
	nodes, err := m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return TransitionResult{}, err
	}
	return m.SetNodesState(ctx, nodes, openstack.TransitionManage, openstack.StateManageable,
		openstack.StateManageable, openstack.StateActive)
}

// Provide makes every node that is not yet available or deployed
// available for deployment.
func (m *Manager) Provide(ctx context.Context) (TransitionResult, error) {
	nodes, err := m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return TransitionResult{}, err
	}
	return m.SetNodesState(ctx, nodes, openstack.TransitionProvide, openstack.StateAvailable,
		openstack.StateAvailable, openstack.StateActive)
}
