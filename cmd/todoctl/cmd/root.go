// Package cmd contains the CLI commands for todoctl.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	output     string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "todoctl",
		Short: "todoctl - manage projects and tasks",
		Long: `todoctl works directly against the configured todo database.

It reads the same configuration as the server: todo.yaml in the working
directory or $HOME/.todo, overridden by TODO_* environment variables.

Examples:
  # Create a project and add a task with a deadline
  todoctl project create "Launch" --description "Q3 launch"
  todoctl task create 1 "Write copy" --deadline 2025-07-01

  # List tasks as YAML
  todoctl task list 1 -o yaml

  # Close every overdue task now
  todoctl autoclose`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("invalid output format: %s (use table, json or yaml)", opts.output)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (optional)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format (table, json, yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newProjectCmd(opts),
		newTaskCmd(opts),
		newAutoCloseCmd(opts),
		newMigrateCmd(opts),
		newConsoleCmd(opts),
	)
	return root
}

// Execute runs the root command with a context cancelled on SIGINT or
// SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// openApp loads configuration and builds the application. Logs go to
// stderr at warn level unless --verbose is set.
func openApp(cmd *cobra.Command, opts *globalOptions, appOpts app.Options) (*app.Application, error) {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	l := logger.SetupWithWriter(level, cmd.ErrOrStderr())

	return app.New(cmd.Context(), cfg, l, appOpts)
}

// withApp runs fn with a freshly opened application and closes it after.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(a *app.Application) error) error {
	a, err := openApp(cmd, opts, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, raw)
	}
	return id, nil
}

// optionalFlag returns a pointer to the flag value when the user set it,
// so that an explicitly empty value can be told apart from an absent one.
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
