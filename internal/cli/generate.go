package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/screenloom/screenloom/pkg/compose"
	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/producer"
	"github.com/screenloom/screenloom/pkg/screen"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		name      string
		platform  string
		projectID string
		output    string
		fromURL   string
		payload   string
		noCache   bool
		useTUI    bool
	)

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Stream marker-delimited output into screens and compose a document",
		Long: `Generate reads a marker-delimited LLM output stream from a file, stdin,
or an HTTP endpoint, persists each completed screen, and composes the result
into a single navigable HTML document.

Examples:
  screenloom generate transcript.txt --name "Coffee Tracker"
  llm "mock up a todo app" | screenloom generate --name "Todo"
  screenloom generate --url http://localhost:9000/stream --payload "todo app"`,
		Args: cobra.MaximumNArgs(1),
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

			src, err := openSource(args, fromURL, payload)
			if err != nil {
				return err
			}
			defer src.Close()

			opts := pipeline.Options{
				ProjectID:   projectID,
				ProjectName: name,
				Platform:    platform,
				Logger:      logger,
			}

			var result *pipeline.Result
			if useTUI {
				result, err = runGenerateTUI(ctx, runner, opts, src)
			} else {
				result, err = runGenerateSpinner(ctx, runner, opts, src)
			}
			if err != nil {
				return err
			}

			if result.Report.Truncated {
				printWarning("Stream ended mid-screen; the last screen may be incomplete")
			}
			if n := len(result.DroppedEdges); n > 0 {
				printWarning("%d flow links point at screens that never appeared", n)
			}

			res, err := runner.Compose(ctx, pipeline.ComposeOptions{
				ProjectID: result.Project.ID,
				Platform:  platform,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			reportComposeFindings(res.Report)

			if output == "" {
				output = slugify(result.Project.Name) + ".html"
			}
			if err := os.WriteFile(output, res.Doc, 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}

			printSuccess("Composed %s", result.Project.Name)
			printFile(output)
			printStats(result.Stats.ScreenCount, result.Stats.EdgeCount, res.CacheInfo.ComposeHit)
			printNextStep("Open the mockup", "open "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "project name (default derived from the stream)")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "target platform: mobile or desktop")
	cmd.Flags().StringVar(&projectID, "project", "", "append to an existing project instead of creating one")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output HTML file (default <project>.html)")
	cmd.Flags().StringVar(&fromURL, "url", "", "stream from an HTTP generation endpoint instead of a file")
	cmd.Flags().StringVar(&payload, "payload", "", "request body sent to --url")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the compose cache")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a live screen list while generating")

	return cmd
}

// openSource builds the token source: an HTTP endpoint when --url is given,
// the named file otherwise, stdin when neither.
func openSource(args []string, fromURL, payload string) (producer.Source, error) {
	if fromURL != "" {
		return producer.NewHTTPSource(nil, fromURL, []byte(payload))
	}
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open stream: %w", err)
		}
		return readCloserSource{producer.NewReaderSource(f), f}, nil
	}
	return producer.NewReaderSource(os.Stdin), nil
}

// readCloserSource closes the underlying file along with the source.
type readCloserSource struct {
	producer.Source
	f io.Closer
}

func (s readCloserSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// runGenerateSpinner runs the generation behind a spinner.
func runGenerateSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, src producer.Source) (*pipeline.Result, error) {
	prog := newProgress(loggerFromContext(ctx))
	sp := newSpinnerWithContext(ctx, "Generating screens...")
	sp.Start()

	result, err := runner.Generate(ctx, opts, src)
	sp.Stop()
	if err != nil {
		return nil, err
	}

	prog.done(fmt.Sprintf("Generated %d screens", result.Stats.ScreenCount))
	return result, nil
}

// runGenerateTUI runs the generation behind a live bubbletea view.
func runGenerateTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, src producer.Source) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := opts.ProjectName
	if title == "" {
		title = pipeline.DefaultProjectName
	}
	p := tea.NewProgram(NewGenerateModel(title), tea.WithOutput(os.Stderr))

	opts.OnScreen = func(rec screen.Record) {
		p.Send(screenDoneMsg{rec: rec})
	}
	go func() {
		result, err := runner.Generate(ctx, opts, src)
		if err == nil {
			for _, msg := range result.Messages {
				p.Send(noteMsg{text: msg})
			}
		}
		p.Send(generateDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(GenerateModel)
	if m.Cancelled() {
		cancel()
		return nil, context.Canceled
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// reportComposeFindings prints warnings for root fallbacks and broken links.
func reportComposeFindings(report *compose.Report) {
	if report == nil {
		return
	}
	if report.MissingRoot {
		printWarning("No screen was marked ROOT; using %s as the entry screen", report.RootID)
	}
	if report.DuplicateRoot {
		printWarning("Multiple screens marked ROOT; using %s", report.RootID)
	}
	if n := len(report.BrokenLinks); n > 0 {
		printWarning("%d links point at missing screens and were disabled", n)
	}
}
