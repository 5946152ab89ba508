// Command inquiry runs the inquiry intake service.
//
//	inquiry serve    HTTP API accepting inquiries
//	inquiry worker   notification worker sending the administrator e-mails
//	inquiry migrate  applies the database schema
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "inquiry",
		Short:         "Inquiry intake API and notification worker",
		SilenceUsage:  true,
	}

	root.AddCommand(
		newServeCommand(),
		newWorkerCommand(),
		newMigrateCommand(),
	)

	return root
}
