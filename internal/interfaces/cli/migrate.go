package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medledger/claimguard/internal/infrastructure/database/postgres"
)

// newMigrateCmd builds the schema migration command group.  Migrations run
// directly against the configured database, not through the API server.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd(), newMigrateVersionCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pg := cliCtx.Config.Database.Postgres
			if err := pg.Validate(); err != nil {
				return err
			}
			if err := postgres.RunMigrations(pg.MigrationDSN(), pg.MigrationsURL()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pg := cliCtx.Config.Database.Postgres
			if err := pg.Validate(); err != nil {
				return err
			}
			if err := postgres.RollbackMigration(pg.MigrationDSN(), pg.MigrationsURL(), steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pg := cliCtx.Config.Database.Postgres
			if err := pg.Validate(); err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(pg.MigrationDSN(), pg.MigrationsURL())
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}
