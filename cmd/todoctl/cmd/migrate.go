package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
)

type migrationRow struct {
	Version   int64  `json:"version"              yaml:"version"`
	Path      string `json:"path"                 yaml:"path"`
	Applied   bool   `json:"applied"              yaml:"applied"`
	AppliedAt string `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(cmd *cobra.Command, fn func(a *app.Application) error) error {
		a, err := openApp(cmd, opts, app.Options{SkipMigrations: true})
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a)
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app.Application) error {
				n, err := a.DB.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app.Application) error {
				if err := a.DB.MigrateDown(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back 1 migration")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *app.Application) error {
				states, err := a.DB.MigrationStatus(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([]migrationRow, 0, len(states))
				for _, s := range states {
					row := migrationRow{Version: s.Version, Path: s.Path, Applied: s.Applied}
					if s.Applied {
						row.AppliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
					}
					rows = append(rows, row)
				}
				return render(cmd.OutOrStdout(), opts.output, rows, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tPATH")
					for _, r := range rows {
						state := "pending"
						if r.Applied {
							state = "applied"
						}
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Version, state, r.AppliedAt, r.Path)
					}
				})
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}
