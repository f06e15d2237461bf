package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// flowsCommand creates the flows command.
func (c *CLI) flowsCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "flows <project-id>",
		Short: "Inspect a project's navigation graph",
		Long: `Flows prints the edges extracted from data-flow attributes for a stored
project. The graph can be emitted as JSON edges, Graphviz DOT, or a rendered
SVG diagram.`,
		Args: cobra.ExactArgs(1),
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

			projectID := args[0]

			switch format {
			case "json":
				edges, err := runner.Store.Flows(ctx, projectID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(edges)

			case "dot", "svg":
				out, err := runner.FlowGraph(ctx, projectID, format)
				if err != nil {
					return err
				}
				if output == "" && format == "dot" {
					fmt.Print(string(out))
					return nil
				}
				if output == "" {
					output = projectID + "-flows." + format
				}
				if err := os.WriteFile(output, out, 0o644); err != nil {
					return fmt.Errorf("write flow graph: %w", err)
				}
				printSuccess("Rendered flow graph")
				printFile(output)
				return nil

			default:
				return fmt.Errorf("unknown format %q (want json, dot, or svg)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: json, dot, or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for dot/json)")

	return cmd
}
