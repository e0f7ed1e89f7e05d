package main

import (
	"os"

	"github.com/spf13/cobra"

	"adapta/internal/interfaces/cli/migrate"
	"adapta/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adapta",
		Short: "Adapta - identity and entitlement session core",
		Long:  `Adapta serves anonymous and authenticated identity sessions, permission evaluation and usage entitlements over HTTP.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
