// Package admission checks that the undercloud has enough capacity for a
// requested overcloud before a stack is created or scaled.
package admission

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

// DefaultCounts are the role counts of a new stack when none are requested.
var DefaultCounts = map[string]int{
	"ControllerCount":    1,
	"ComputeCount":       1,
	"CephStorageCount":   0,
	"BlockStorageCount":  0,
	"ObjectStorageCount": 0,
}

// Inventory lists bare metal nodes.
type Inventory interface {
	ListNodes(ctx context.Context, opts openstack.NodeListOpts) ([]openstack.Node, error)
}

// HypervisorStatsGetter reports aggregated hypervisor capacity.
type HypervisorStatsGetter interface {
	HypervisorStatistics(ctx context.Context) (openstack.HypervisorStats, error)
}

// RequestedNodes sums the node count of every parameter in defaults.
//
// An explicit override wins. Otherwise an existing stack's recorded value
// is used, and a parameter missing from it is a ConfigurationError. With
// no stack the default applies.
func RequestedNodes(stack *openstack.Stack, overrides, defaults map[string]int) (int, error) {
	total := 0
	for _, param := range slices.Sorted(maps.Keys(defaults)) {
		if v, ok := overrides[param]; ok {
			if stack != nil {
				if _, err := stackCount(stack, param); err != nil {
					return 0, err
				}
			}
			total += v
			continue
		}
		if stack == nil {
			total += defaults[param]
			continue
		}
		v, err := stackCount(stack, param)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func stackCount(stack *openstack.Stack, param string) (int, error) {
	raw, ok := stack.Parameters[param]
	if !ok {
		return 0, deployerr.Configf("parameter %q was not found in existing stack", param)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, deployerr.Configf("parameter %q of existing stack is not a number: %q", param, raw)
	}
	return v, nil
}

// AvailableNodes counts nodes that are deployed or free for deployment:
// associated nodes plus unassociated nodes outside maintenance.
func AvailableNodes(ctx context.Context, inv Inventory) (int, error) {
	yes, no := true, false
	associated, err := inv.ListNodes(ctx, openstack.NodeListOpts{Associated: &yes})
	if err != nil {
		return 0, fmt.Errorf("failed to list associated nodes: %w", err)
	}
	free, err := inv.ListNodes(ctx, openstack.NodeListOpts{Associated: &no, Maintenance: &no})
	if err != nil {
		return 0, fmt.Errorf("failed to list available nodes: %w", err)
	}
	return len(associated) + len(free), nil
}

// CheckNodeCount fails with InsufficientResourcesError when the requested
// node count exceeds the available bare metal nodes.
func CheckNodeCount(ctx context.Context, inv Inventory, stack *openstack.Stack, overrides, defaults map[string]int) error {
	requested, err := RequestedNodes(stack, overrides, defaults)
	if err != nil {
		return err
	}
	available, err := AvailableNodes(ctx, inv)
	if err != nil {
		return err
	}

	logr.FromContextOrDiscard(ctx).V(1).Info("checked node count", "available", available, "requested", requested)
	if requested > available {
		return &deployerr.InsufficientResourcesError{Resource: "nodes", Available: available, Requested: requested}
	}
	return nil
}

// Requirements are the minimum hypervisor capacity.
type Requirements struct {
	Nodes    int
	MemoryMB int
	VCPUs    int
}

// CheckHypervisorStats fails with InsufficientResourcesError naming the
// first resource below its minimum.
func CheckHypervisorStats(ctx context.Context, api HypervisorStatsGetter, req Requirements) error {
	stats, err := api.HypervisorStatistics(ctx)
	if err != nil {
		return err
	}

	checks := []struct {
		resource  string
		available int
		requested int
	}{
		{"hypervisors", stats.Count, req.Nodes},
		{"memory_mb", stats.MemoryMB, req.MemoryMB},
		{"vcpus", stats.VCPUs, req.VCPUs},
	}
	for _, c := range checks {
		if c.available < c.requested {
			return &deployerr.InsufficientResourcesError{Resource: c.resource, Available: c.available, Requested: c.requested}
		}
	}
	return nil
}
