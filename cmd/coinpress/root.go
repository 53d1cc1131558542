package main

import (
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "coinpress",
		Short:         "Content-automation pipeline for a Hugo-based crypto-news blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newPruneCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the coinpress version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("coinpress " + version)
		},
	}
}
