package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
)

// Passwords returns the command group for the service password file.
func Passwords() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwords",
		Short: "Generate or show overcloud service passwords",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Fill in missing passwords in the password file",
		Long: `Generate every missing service password and persist the file.

Existing values are never overwritten, so the command is safe to repeat.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.PasswordsGenerate(cmd.Context(), global.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [NAME]",
		Short: "Print one password, or the names of all passwords",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.PasswordsShow(cmd.Context(), global.configPath, name)
		},
	})

	return cmd
}
