package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/subtrack-inc/subtrack/internal/interfaces/cli/migrate"
	"github.com/subtrack-inc/subtrack/internal/interfaces/cli/server"
	"github.com/subtrack-inc/subtrack/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "subtrack",
		Short: "Subtrack - subscription billing backend",
		Long:  `Subtrack is a multi-tenant subscription billing backend with built-in server, workers, and migration tools.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
