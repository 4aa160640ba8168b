package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Incident response command center",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		serveCommand(),
		migrateCommand(),
		languageCommand(),
		notifyCommand(),
	)
	return root
}
