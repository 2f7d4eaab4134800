package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ruleout-cli",
	Short: "Ruleout CLI - operator tooling for the Ruleout server",
	Long: `ruleout-cli runs the administrative tasks of the Ruleout server
against the database and environment configured for it.

Examples:
  # Schema migrations
  ruleout-cli migrate up
  ruleout-cli migrate down --steps 1
  ruleout-cli migrate version

  # Blog content
  ruleout-cli blog import posts.yaml
  ruleout-cli blog list
  ruleout-cli blog set-image my-post https://cdn.example.com/hero.png

  # Configuration
  ruleout-cli config validate
  ruleout-cli config show`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		loadEnvFiles(envFile)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(blogCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("env-file", "", "Additional .env file to load")
}
