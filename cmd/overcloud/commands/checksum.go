package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
)

// Checksum returns the command printing file digests.
func Checksum() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum FILE...",
		Short: "Print the MD5 digest of files as compared with the image store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Checksum(cmd.Context(), args)
		},
	}
}
