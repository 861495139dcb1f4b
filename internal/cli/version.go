package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docsafe %s (%s)\n", info.Version, info.Commit)
		},
	}
}
