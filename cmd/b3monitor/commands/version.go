package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time: -ldflags "-X github.com/wonny/b3monitor/cmd/b3monitor/commands.version=v1.2.3"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "b3monitor %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
