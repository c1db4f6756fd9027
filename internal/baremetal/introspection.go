package baremetal

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/waiter"
)

// IntrospectionReport summarises a bulk introspection run.
type IntrospectionReport struct {
	Started  []string
	Finished []waiter.IntrospectionResult
	// Unfinished nodes ran out of time and were not made available.
	Unfinished []string
	Provided   TransitionResult
}

// HasErrors reports whether any node finished with an error or did not
// finish at all.
func (r *IntrospectionReport) HasErrors() bool {
	if len(r.Unfinished) > 0 {
		return true
	}
	for _, f := range r.Finished {
		if f.Status.Error != "" {
			return true
		}
	}
	return false
}

// IntrospectAll introspects every manageable node. Available nodes are
// made manageable first; afterwards every node whose introspection
// finished is made available again. Nodes still introspecting when the
// polling budget runs out are left alone. onFinished, if set, is called as
// each node finishes.
func (m *Manager) IntrospectAll(ctx context.Context, onFinished func(waiter.IntrospectionResult)) (*IntrospectionReport, error) {
	log := logr.FromContextOrDiscard(ctx)
	report := &IntrospectionReport{}

	nodes, err := m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return nil, err
	}
	var available []openstack.Node
	for _, n := range nodes {
		if n.ProvisionState == openstack.StateAvailable {
			available = append(available, n)
		}
	}
	if _, err := m.SetNodesState(ctx, available, openstack.TransitionManage, openstack.StateManageable); err != nil {
		return nil, fmt.Errorf("failed to make nodes manageable: %w", err)
	}

	nodes, err = m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.ProvisionState != openstack.StateManageable {
			continue
		}
		if len(report.Started) > 0 && !waiter.Sleep(ctx, m.IntrospectionStagger) {
			return report, deployerr.Canceled(ctx.Err())
		}
		log.Info("Starting introspection of node", "node", n.UUID)
		if err := m.api.StartIntrospection(ctx, n.UUID); err != nil {
			return report, err
		}
		report.Started = append(report.Started, n.UUID)
	}

	log.Info("Waiting for introspection to finish", "nodes", len(report.Started))
	w := &waiter.IntrospectionWaiter{
		API:      m.api,
		Rounds:   m.timeouts.IntrospectionPollAttempts,
		Interval: m.timeouts.IntrospectionPollInterval,
	}
	it := w.Watch(report.Started)
	for it.Next(ctx) {
		r := it.Result()
		report.Finished = append(report.Finished, r)
		if onFinished != nil {
			onFinished(r)
		}
	}
	if err := it.Err(); err != nil {
		return report, err
	}
	report.Unfinished = it.Unfinished()

	nodes, err = m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return report, err
	}
	nodes = slices.DeleteFunc(nodes, func(n openstack.Node) bool {
		if slices.Contains(report.Unfinished, n.UUID) {
			log.Info("Introspection did not finish, not making node available", "node", n.UUID)
			return true
		}
		return false
	})
	report.Provided, err = m.SetNodesState(ctx, nodes, openstack.TransitionProvide, openstack.StateAvailable,
		openstack.StateAvailable, openstack.StateActive)
	if err != nil {
		return report, fmt.Errorf("failed to make nodes available: %w", err)
	}
	return report, nil
}

// NodeIntrospection is the introspection state of one node.
type NodeIntrospection struct {
	NodeID string
	openstack.IntrospectionStatus
}

// IntrospectionStatuses returns the introspection state of every node.
func (m *Manager) IntrospectionStatuses(ctx context.Context) ([]NodeIntrospection, error) {
	nodes, err := m.api.ListNodes(ctx, openstack.NodeListOpts{})
	if err != nil {
		return nil, err
	}
	out := make([]NodeIntrospection, 0, len(nodes))
	for _, n := range nodes {
		st, err := m.api.GetIntrospectionStatus(ctx, n.UUID)
		if err != nil {
			return nil, err
		}
		out = append(out, NodeIntrospection{NodeID: n.UUID, IntrospectionStatus: st})
	}
	return out, nil
}
