package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renatogalera/ai-chat/pkg/version"
)

// NewVersionCmd prints the build version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.UserAgent())
		},
	}
}
