package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// projectsCommand creates the projects management command.
func (c *CLI) projectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and delete stored projects",
	}

	cmd.AddCommand(c.projectsListCommand())
	cmd.AddCommand(c.projectsDeleteCommand())

	return cmd
}

// projectsListCommand creates the "projects list" subcommand.
func (c *CLI) projectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer cleanup()

			projects, err := runner.Store.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				printInfo("No projects stored")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, p.Platform, formatRelativeTime(p.UpdatedAt)})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Name", "Platform", "Updated").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					if col == 3 {
						return StyleDim
					}
					return StyleValue
				})

			cmd.Println(t.Render())
			return nil
		},
	}
}

// projectsDeleteCommand creates the "projects delete" subcommand.
func (c *CLI) projectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its screens and flows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := runner.Store.DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted project %s", args[0])
			return nil
		},
	}
}
