package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragdex/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ragdex %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
