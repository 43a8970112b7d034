package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the scripthost release version, set via -ldflags at build time
// the same way the teacher sets lib/consts.VERSION (left at "dev" here since
// this repository has no release pipeline).
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the scripthost version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scripthost %s\n", Version)
		},
	}
}
