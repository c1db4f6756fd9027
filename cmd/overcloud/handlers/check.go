package handlers

import (
	"context"
	"strconv"

	"github.com/imamik/overcloud/internal/admission"
	"github.com/imamik/overcloud/internal/deployerr"
)

// CheckNodes verifies that the requested node count fits the inventory.
func CheckNodes(ctx context.Context, configPath string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	stack, err := s.api.GetStack(ctx, s.cfg.Stack)
	if err != nil {
		return err
	}
	requested, err := admission.RequestedNodes(stack, s.cfg.Scale.Overrides(), admission.DefaultCounts)
	if err != nil {
		return err
	}
	available, err := admission.AvailableNodes(ctx, s.api)
	if err != nil {
		return err
	}

	printRow("Requested nodes:", strconv.Itoa(requested), dimStyle)
	printRow("Available nodes:", strconv.Itoa(available), dimStyle)
	if requested > available {
		return &deployerr.InsufficientResourcesError{Resource: "nodes", Available: available, Requested: requested}
	}
	printf("%s\n", styled(okStyle, "Enough nodes available."))
	return nil
}

// CheckHypervisors verifies aggregated hypervisor capacity.
func CheckHypervisors(ctx context.Context, configPath string, req admission.Requirements) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	if err := admission.CheckHypervisorStats(ctx, s.api, req); err != nil {
		return err
	}
	printf("%s\n", styled(okStyle, "Hypervisor capacity is sufficient."))
	return nil
}
