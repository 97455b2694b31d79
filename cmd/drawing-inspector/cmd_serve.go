package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/drawing-inspector/internal/server"
)

type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the MCP tools over stdin/stdout",
		UsageText: "drawing-inspector serve",
		Description: `Runs the MCP server. When a snapshot file, inspection API or event feed is
configured, they keep the served snapshot current in the background.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	src, err := NewSources(cmd.flags.Config, log.Logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Store:     src.Store,
		Refresher: src.Refresher,
		Events:    src.Events,
		Feed:      src.Feed,
		Logger:    log.Logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(ctx) })
	g.Go(func() error {
		// The client closing stdin ends the session.
		defer cancel()
		return srv.Run(ctx)
	})
	return g.Wait()
}
