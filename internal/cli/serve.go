package cli

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hovercard/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hovercard HTTP service",
		Long: `Serve the decoration pipeline over HTTP.

  POST   /pages?url=<page url>                      decorate a page
  POST   /pages/{page}/mutations                    rescan appended markup
  GET    /pages/{page}/cards/{session}              card markup for a reference
  POST   /pages/{page}/cards/{session}/follow|star  follow or star
  DELETE /pages/{page}/cards/{session}/follow|star  unfollow or unstar
  GET    /options, PUT /options                     read or change options
  PUT    /token, DELETE /token                      set or clear the access token

Use --redis to share tokens, options and cached responses between instances.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			srv, err := server.New(server.Config{
				API:     e.github,
				Tokens:  e.tokens,
				Store:   e.state,
				Options: e.opts,
				Logger:  c.Logger,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			return server.Run(ctx, &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}, c.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
