package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/knowhive/knowhive/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "knowhive",
		Short: "multi-tenant knowledge base and assistant backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(service.NewCommand(), service.NewProcessCommand(), service.NewInstallCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
