// Package main implements todoctl, a command line client for the todo API.
package main

import (
	"os"

	"github.com/dmehra2102/todo-api/pkg/client"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:          "todoctl",
		Short:        "Manage todos through the todo API",
		SilenceUsage: true,
	}

	defaultAddr := os.Getenv("TODO_API_ADDR")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:3000"
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "API address (env TODO_API_ADDR)")

	newClient := func() *client.Client {
		return client.New(addr, nil)
	}

	root.AddCommand(
		newListCmd(newClient),
		newGetCmd(newClient),
		newCreateCmd(newClient),
		newUpdateCmd(newClient),
		newDeleteCmd(newClient),
	)
	return root
}
