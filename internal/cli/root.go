package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "querylog",
		Short: "Trino query event logger",
		Long:  "querylog receives Trino query events, filters them by query type and catalog, and writes one JSON line per accepted event.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newReplayCmd(),
		newCheckCmd(),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("querylog %s\n", Version))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
