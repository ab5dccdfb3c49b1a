package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/service"
)

func newTaskCmd(opts *globalOptions) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks within a project",
	}

	createCmd := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Add a task to a project",
		Long: `Add a task to a project. Status accepts todo, to-do, doing,
in-progress, done or cancelled and defaults to todo. Deadline accepts a
YYYY-MM-DD date or an ISO-8601 date-time.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString("status")
			input := service.CreateTaskInput{
				Title:       args[1],
				Description: optionalFlag(cmd, "description"),
				Status:      status,
				Deadline:    optionalFlag(cmd, "deadline"),
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				t, err := a.Tasks.CreateTask(cmd.Context(), projectID, input)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, t, taskTable(t))
			})
		},
	}
	createCmd.Flags().StringP("description", "d", "", "task description")
	createCmd.Flags().StringP("status", "s", "", "initial status (default todo)")
	createCmd.Flags().String("deadline", "", "deadline date or date-time")

	editCmd := &cobra.Command{
		Use:   "edit <project-id> <task-id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags given are changed; an empty
--description or --deadline clears the field.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, taskID, err := parseTaskArgs(args)
			if err != nil {
				return err
			}
			input := service.EditTaskInput{
				Title:       optionalFlag(cmd, "title"),
				Description: optionalFlag(cmd, "description"),
				Status:      optionalFlag(cmd, "status"),
				Deadline:    optionalFlag(cmd, "deadline"),
			}
			if input.Title == nil && input.Description == nil && input.Status == nil && input.Deadline == nil {
				return fmt.Errorf("nothing to change: pass --title, --description, --status or --deadline")
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				t, err := a.Tasks.EditTask(cmd.Context(), projectID, taskID, input)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, t, taskTable(t))
			})
		},
	}
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().StringP("description", "d", "", "new description")
	editCmd.Flags().StringP("status", "s", "", "new status")
	editCmd.Flags().String("deadline", "", "new deadline")

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, taskID, err := parseTaskArgs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				if err := a.Tasks.DeleteTask(cmd.Context(), projectID, taskID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", taskID)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's tasks in creation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			var status domain.TaskStatus
			if raw, _ := cmd.Flags().GetString("status"); raw != "" {
				if status, err = validation.ValidateStatus(raw); err != nil {
					return err
				}
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				tasks, err := a.Tasks.ListTasks(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if status != "" {
					filtered := tasks[:0]
					for _, t := range tasks {
						if t.Status == status {
							filtered = append(filtered, t)
						}
					}
					tasks = filtered
				}
				return render(cmd.OutOrStdout(), opts.output, tasks, taskTable(tasks...))
			})
		},
	}
	listCmd.Flags().StringP("status", "s", "", "only show tasks with this status")

	getCmd := &cobra.Command{
		Use:   "get <project-id> <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, taskID, err := parseTaskArgs(args)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				t, found, err := a.Tasks.GetTask(cmd.Context(), projectID, taskID)
				if err != nil {
					return err
				}
				if !found {
					return &domain.NotFoundError{Entity: "Task", ID: taskID, ParentID: projectID}
				}
				return render(cmd.OutOrStdout(), opts.output, t, taskTable(t))
			})
		},
	}

	taskCmd.AddCommand(createCmd, editCmd, deleteCmd, listCmd, getCmd)
	return taskCmd
}

func parseTaskArgs(args []string) (projectID, taskID int64, err error) {
	if projectID, err = parseID("project id", args[0]); err != nil {
		return 0, 0, err
	}
	if taskID, err = parseID("task id", args[1]); err != nil {
		return 0, 0, err
	}
	return projectID, taskID, nil
}
