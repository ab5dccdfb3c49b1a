package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/service"
)

func newProjectCmd(opts *globalOptions) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.Application) error {
				p, err := a.Projects.CreateProject(cmd.Context(), args[0], optionalFlag(cmd, "description"))
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, p, projectTable(p))
			})
		},
	}
	createCmd.Flags().StringP("description", "d", "", "project description")

	editCmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Change a project's name or description",
		Long: `Change a project's name or description. Only the flags given are
changed; an empty --description clears it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			input := service.EditProjectInput{
				Name:        optionalFlag(cmd, "name"),
				Description: optionalFlag(cmd, "description"),
			}
			if input.Name == nil && input.Description == nil {
				return fmt.Errorf("nothing to change: pass --name or --description")
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				p, err := a.Projects.EditProject(cmd.Context(), id, input)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, p, projectTable(p))
			})
		},
	}
	editCmd.Flags().String("name", "", "new project name")
	editCmd.Flags().StringP("description", "d", "", "new project description")

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				if err := a.Projects.DeleteProject(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.Application) error {
				projects, err := a.Projects.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, projects, projectTable(projects...))
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("project id", args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.Application) error {
				p, err := a.Projects.GetProject(cmd.Context(), id)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, p, projectTable(p))
			})
		},
	}

	projectCmd.AddCommand(createCmd, editCmd, deleteCmd, listCmd, getCmd)
	return projectCmd
}
