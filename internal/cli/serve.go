package cli

import (
	"github.com/spf13/cobra"

	"github.com/screenloom/screenloom/internal/server"
	"github.com/screenloom/screenloom/pkg/publish"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serve runs the HTTP server: project CRUD, streaming generation,
composed-document previews, publishing, and a websocket feed that mirrors
screens to live canvas clients as they complete.

Storage and caching come from the config file: MongoDB and Redis when
configured, in-process fallbacks otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer cleanup()

			publisher, err := publish.NewFilePublisher(cfg.Publish.Dir)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			srv := server.New(runner, publisher, c.Logger)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
