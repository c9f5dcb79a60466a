package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
	appName = "quartz"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	serve := serveCmd(&envFile)
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Automated website and code quality auditor",
		Long: `Quartz audits a website URL or a code snippet for security,
conversion and architecture defects using a text-generation model.

Without a subcommand it runs the HTTP server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")

	cmd.AddCommand(serve)
	cmd.AddCommand(auditCmd(&envFile))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}
