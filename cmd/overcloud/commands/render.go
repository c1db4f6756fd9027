package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
	"github.com/imamik/overcloud/internal/render"
)

// Render returns the command group writing deployment files.
func Render() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write environment and RC files",
	}

	counts := render.DefaultRoleCounts()
	env := &cobra.Command{
		Use:   "environment PATH",
		Short: "Write the role count environment file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.RenderEnvironment(cmd.Context(), args[0], counts)
		},
	}
	ef := env.Flags()
	ef.IntVar(&counts.Controller, "control-scale", counts.Controller, "Number of control nodes")
	ef.IntVar(&counts.Compute, "compute-scale", counts.Compute, "Number of compute nodes")
	ef.IntVar(&counts.CephStorage, "ceph-storage-scale", counts.CephStorage, "Number of ceph storage nodes")
	ef.IntVar(&counts.BlockStorage, "block-storage-scale", counts.BlockStorage, "Number of cinder storage nodes")
	ef.IntVar(&counts.ObjectStorage, "swift-storage-scale", counts.ObjectStorage, "Number of swift storage nodes")
	cmd.AddCommand(env)

	var endpoint string
	rc := &cobra.Command{
		Use:   "rc",
		Short: "Write the overcloud RC file",
		Long: `Write the RC file for the overcloud. Without --endpoint the
KeystoneURL output of the deployed stack is used.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RenderRC(cmd.Context(), global.configPath, endpoint)
		},
	}
	rc.Flags().StringVar(&endpoint, "endpoint", "", "Overcloud identity endpoint")
	cmd.AddCommand(rc)

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
