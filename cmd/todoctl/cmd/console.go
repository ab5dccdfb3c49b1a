package cmd

import (
	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/console"
)

func newConsoleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Browse projects and tasks interactively",
		Long: `Open an interactive terminal view of projects and their tasks.

Keys: up/down move, enter opens a project, esc goes back, r refreshes,
a runs auto-close, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.Application) error {
				return console.Run(cmd.Context(), console.Deps{
					Projects:  a.Projects,
					Tasks:     a.Tasks,
					AutoClose: a.Scheduler,
				})
			})
		},
	}
}
