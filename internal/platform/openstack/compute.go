package openstack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/hypervisors"
)

// HypervisorStats aggregates all hypervisors known to the compute service.
type HypervisorStats struct {
	Count    int
	MemoryMB int
	VCPUs    int
	LocalGB  int
}

// HypervisorStatistics returns the aggregated hypervisor statistics.
func (c *Client) HypervisorStatistics(ctx context.Context) (HypervisorStats, error) {
	var stats HypervisorStats
	err := c.call(ctx, ServiceCompute, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		s, err := hypervisors.GetStatistics(ctx, sc).Extract()
		if err != nil {
			return err
		}
		stats = HypervisorStats{Count: s.Count, MemoryMB: s.MemoryMB, VCPUs: s.VCPUs, LocalGB: s.LocalGB}
		return nil
	})
	if err != nil {
		return HypervisorStats{}, fmt.Errorf("failed to get hypervisor statistics: %w", err)
	}
	return stats, nil
}
