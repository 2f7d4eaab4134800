package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ruleout-server/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
	Long:  `Apply, roll back and inspect the embedded SQL migrations.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := database.Migrate(cmd.Context(), rt.db, rt.log); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return printVersion(cmd, rt)
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps, _ := cmd.Flags().GetInt("steps")
	if steps <= 0 {
		return fmt.Errorf("--steps must be positive")
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := database.MigrateDown(cmd.Context(), rt.db, steps, rt.log); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return printVersion(cmd, rt)
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	return printVersion(cmd, rt)
}

func printVersion(cmd *cobra.Command, rt *runtimeEnv) error {
	state, err := database.Version(cmd.Context(), rt.db, rt.log)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatMigrationState(state))
	return nil
}

func formatMigrationState(state database.MigrationState) string {
	if !state.Applied {
		return "no migrations applied"
	}
	if state.Dirty {
		return fmt.Sprintf("version %d (dirty)", state.Version)
	}
	return fmt.Sprintf("version %d", state.Version)
}
