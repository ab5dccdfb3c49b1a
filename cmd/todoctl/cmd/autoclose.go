package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
)

type autoCloseResult struct {
	RunID    string `json:"run_id"   yaml:"run_id"`
	Closed   int    `json:"closed"   yaml:"closed"`
	Duration string `json:"duration" yaml:"duration"`
}

func newAutoCloseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "autoclose",
		Short: "Mark every overdue task as done, once",
		Long: `Run one auto-close pass: every task whose deadline has passed and
which is not done yet is marked done in a single transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.Application) error {
				result, err := a.Scheduler.RunNow(cmd.Context())
				if err != nil {
					return err
				}
				out := autoCloseResult{
					RunID:    result.RunID.String(),
					Closed:   result.Closed,
					Duration: result.Duration.String(),
				}
				return render(cmd.OutOrStdout(), opts.output, out, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "Closed %d overdue task(s)\t(run %s)\n", out.Closed, out.RunID)
				})
			})
		},
	}
}
