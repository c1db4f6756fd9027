package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
)

// Node returns the command group for bare metal node state.
func Node() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage bare metal nodes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "manage",
		Short: "Move all available nodes to manageable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodeManage(cmd.Context(), global.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "provide",
		Short: "Move all manageable nodes to available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodeProvide(cmd.Context(), global.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "introspect",
		Short: "Introspect the hardware of all nodes",
		Long: `Introspect every node, then make the nodes available again.

Available nodes are moved to manageable first. Nodes still running
introspection when the round budget is exhausted are reported and left
manageable.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodeIntrospect(cmd.Context(), global.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "introspection-status",
		Short: "Show the introspection state of all nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodeIntrospectionStatus(cmd.Context(), global.configPath)
		},
	})

	return cmd
}
