package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the `todo` command every subcommand hangs off.
var RootCmd = &cobra.Command{
	Use:   "todo",
	Short: "CSV Todo CLI",
	Long:  "Command line interface for the CSV-backed todo API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
