package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
)

// Deploy returns the command that creates or updates the overcloud stack.
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions
	var control, compute, ceph, block, swift int

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the overcloud stack",
		Long: `Create the overcloud stack, or update it if it already exists.

The deployment:
  - generates missing service passwords
  - checks that enough bare metal nodes and hypervisors are available
  - sends the templates and environment files to the orchestration service
  - waits until the stack action completes or fails
  - writes the overcloud RC file and the tempest deployer input
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			opts.Control = intFlag(f.Changed("control-scale"), control)
			opts.Compute = intFlag(f.Changed("compute-scale"), compute)
			opts.CephStorage = intFlag(f.Changed("ceph-storage-scale"), ceph)
			opts.BlockStorage = intFlag(f.Changed("block-storage-scale"), block)
			opts.SwiftStorage = intFlag(f.Changed("swift-storage-scale"), swift)
			return handlers.Deploy(cmd.Context(), global.configPath, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Stack, "stack", "", "Name of the stack to create or update")
	f.StringVar(&opts.Templates, "templates", "", "Directory containing the orchestration templates")
	f.IntVarP(&opts.TimeoutMinutes, "timeout", "t", 0, "Deployment timeout in minutes")
	f.StringArrayVarP(&opts.EnvironmentFiles, "environment-file", "e", nil, "Environment file passed to the stack (repeatable)")
	f.StringVar(&opts.NTPServer, "ntp-server", "", "NTP server for the overcloud nodes")
	f.IntVar(&control, "control-scale", 0, "New number of control nodes")
	f.IntVar(&compute, "compute-scale", 0, "New number of compute nodes")
	f.IntVar(&ceph, "ceph-storage-scale", 0, "New number of ceph storage nodes")
	f.IntVar(&block, "block-storage-scale", 0, "New number of cinder storage nodes")
	f.IntVar(&swift, "swift-storage-scale", 0, "New number of swift storage nodes")

	return cmd
}

func intFlag(changed bool, v int) *int {
	if !changed {
		return nil
	}
	return &v
}
