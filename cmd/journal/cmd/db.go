package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/config"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/db"
)

// DBCmd manages the schema of the SQL goal store shared with the server.
func DBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database migrations for the SQL goal store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: withDB(func(c *cobra.Command, database *sqlx.DB, driver string) error {
			if err := db.RunMigrations(c.Context(), database.DB, driver); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Migrations applied")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withDB(func(c *cobra.Command, database *sqlx.DB, driver string) error {
			if err := db.MigrateDown(c.Context(), database.DB, driver); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Rolled back one migration")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withDB(func(c *cobra.Command, database *sqlx.DB, driver string) error {
			migrations, err := db.MigrationStatus(c.Context(), database.DB, driver)
			if err != nil {
				return err
			}
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), migrations)
			}

			rows := make([][]string, 0, len(migrations))
			for _, m := range migrations {
				applied := "pending"
				if m.Applied {
					applied = m.AppliedAt.Format(time.DateTime)
				}
				rows = append(rows, []string{strconv.FormatInt(m.Version, 10), m.Path, applied})
			}
			return table(c.OutOrStdout(), []string{"VERSION", "FILE", "APPLIED"}, rows)
		}),
	})

	return cmd
}

func withDB(fn func(c *cobra.Command, database *sqlx.DB, driver string) error) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		cfg := config.Load()
		database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return err
		}
		defer database.Close()
		return fn(c, database, cfg.DBDriver)
	}
}
