package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
	"github.com/imamik/overcloud/internal/admission"
)

// Check returns the command group for capacity checks.
func Check() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check undercloud capacity before deploying",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "nodes",
		Short: "Check that enough bare metal nodes are available",
		Long: `Compare the node count requested by the configuration, the existing
stack and the defaults against the available bare metal nodes.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CheckNodes(cmd.Context(), global.configPath)
		},
	})

	var req admission.Requirements
	hv := &cobra.Command{
		Use:   "hypervisors",
		Short: "Check aggregated hypervisor capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CheckHypervisors(cmd.Context(), global.configPath, req)
		},
	}
	hv.Flags().IntVar(&req.Nodes, "nodes", 1, "Minimum number of hypervisors")
	hv.Flags().IntVar(&req.MemoryMB, "memory-mb", 0, "Minimum total memory in MB")
	hv.Flags().IntVar(&req.VCPUs, "vcpus", 0, "Minimum total vCPUs")
	cmd.AddCommand(hv)

	return cmd
}
