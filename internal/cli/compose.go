package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/screenloom/screenloom/pkg/pipeline"
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		platform string
		output   string
		refresh  bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "compose <project-id>",
		Short: "Re-compose the navigable document for a stored project",
		Long: `Compose reads a project's persisted screens and builds the single
self-contained HTML document. The result is cached by content, so repeated
composes of an unchanged project are served from the cache.

Requires a configured store; with the default in-process store there is
nothing to compose (use "generate" instead, which does both in one run).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			sp := newSpinnerWithContext(ctx, "Composing document...")
			sp.Start()
			res, err := runner.Compose(ctx, pipeline.ComposeOptions{
				ProjectID: args[0],
				Platform:  platform,
				Refresh:   refresh,
				Logger:    logger,
			})
			sp.Stop()
			if err != nil {
				return err
			}
			reportComposeFindings(res.Report)

			if output == "" {
				output = args[0] + ".html"
			}
			if output == "-" {
				if _, err := os.Stdout.Write(res.Doc); err != nil {
					return err
				}
				return nil
			}
			if err := os.WriteFile(output, res.Doc, 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}

			printSuccess("Composed document")
			printFile(output)
			screens := 0
			if res.Report != nil {
				screens = res.Report.ScreenCount
			}
			printStats(screens, 0, res.CacheInfo.ComposeHit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "target platform: mobile or desktop (default the project's)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output HTML file, "-" for stdout (default <project-id>.html)`)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompose even when a cached document exists")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the compose cache")

	return cmd
}
