// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/overcloud/cmd/overcloud/handlers"
	"github.com/imamik/overcloud/internal/metrics"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	verbose     int
	logFormat   string
	metricsFile string
}

var global globalOptions

// Root returns the root command for the overcloud CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "overcloud",
		Short:         "Deploy and manage an OpenStack overcloud",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := handlers.NewLogger(cmd.ErrOrStderr(), global.verbose, global.logFormat)
			if err != nil {
				return err
			}
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if global.metricsFile == "" {
				return nil
			}
			return metrics.WriteTextfile(global.metricsFile)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&global.configPath, "config", "c", "", "Path to configuration file (default: overcloud.yaml if present)")
	pf.CountVarP(&global.verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.StringVar(&global.logFormat, "log-format", handlers.LogFormatText, "Log format: text or json")
	pf.StringVar(&global.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Passwords())
	cmd.AddCommand(Wait())
	cmd.AddCommand(Node())
	cmd.AddCommand(Check())
	cmd.AddCommand(Checksum())
	cmd.AddCommand(Image())
	cmd.AddCommand(Render())
	cmd.AddCommand(Version())

	return cmd
}
