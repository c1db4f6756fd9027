package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
)

// Wait returns the command group that waits for remote state.
func Wait() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for remote resources to converge",
	}

	var marker, action string
	stack := &cobra.Command{
		Use:   "stack [NAME]",
		Short: "Follow stack events until an action completes or fails",
		Long: `Follow the events of a stack until the stack itself reports
<ACTION>_COMPLETE or <ACTION>_FAILED. Waits until interrupted.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.WaitStack(cmd.Context(), global.configPath, name, marker, action)
		},
	}
	stack.Flags().StringVar(&marker, "marker", "", "Only consider events after this event ID")
	stack.Flags().StringVar(&action, "action", "CREATE", "Stack action to wait for (CREATE, UPDATE, DELETE)")
	cmd.AddCommand(stack)

	return cmd
}
