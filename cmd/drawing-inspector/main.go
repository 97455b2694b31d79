package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ironsheep/drawing-inspector/internal/config"
	"github.com/ironsheep/drawing-inspector/internal/logutil"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Flags holds the global flags and the configuration resolved from them.
type Flags struct {
	ConfigPath   string
	EnvFile      string
	LogLevel     string
	LogFile      string
	APIURL       string
	FeedURL      string
	SessionID    string
	SnapshotFile string

	// Config is populated in Before.
	Config *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCloser func()
	flags := &Flags{}

	app := &cli.Command{
		Name:      "drawing-inspector",
		Usage:     "Correlate and render inspection overlays on engineering drawings",
		UsageText: "drawing-inspector [global options] [command [command options]]",
		Description: `drawing-inspector draws balloon markers and highlight regions over master and
check drawings, correlates review findings to balloons and keeps one shared
selection across panes.

Run without a command to serve the MCP tools over stdin/stdout.`,
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to YAML config file",
				Sources:     cli.EnvVars("INSPECT_CONFIG"),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file loaded before reading the environment",
				Value:       ".env",
				Destination: &flags.EnvFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "inspection REST API base, e.g. http://localhost:8000/api",
				Destination: &flags.APIURL,
			},
			&cli.StringFlag{
				Name:        "feed-url",
				Usage:       "inspection event feed base, e.g. ws://localhost:8000",
				Destination: &flags.FeedURL,
			},
			&cli.StringFlag{
				Name:        "session",
				Usage:       "inspection session id",
				Destination: &flags.SessionID,
			},
			&cli.StringFlag{
				Name:        "snapshot-file",
				Usage:       "snapshot JSON file to load and watch",
				Destination: &flags.SnapshotFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.EnvFile)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			overrides := map[string]struct {
				src string
				dst *string
			}{
				"log-level":     {flags.LogLevel, &cfg.LogLevel},
				"log-file":      {flags.LogFile, &cfg.LogFile},
				"api-url":       {flags.APIURL, &cfg.APIURL},
				"feed-url":      {flags.FeedURL, &cfg.FeedURL},
				"session":       {flags.SessionID, &cfg.SessionID},
				"snapshot-file": {flags.SnapshotFile, &cfg.SnapshotFile},
			}
			for name, o := range overrides {
				if c.IsSet(name) {
					*o.dst = o.src
				}
			}
			if err := cfg.Validate(); err != nil {
				return ctx, err
			}
			flags.Config = cfg

			logger, closer, err := logutil.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			log.Debug().Str("version", Version).Str("commit", GitCommit).Msg("starting")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	serveCmd := NewServeCmd(flags)
	app = serveCmd.Register(app)
	app = NewRenderCmd(flags).Register(app)
	app = NewMatchCmd(flags).Register(app)
	app = NewWatchCmd(flags).Register(app)

	// Serving MCP is the default when no command is given.
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'drawing-inspector --help' for usage", c.Args().First())
		}
		return serveCmd.run(ctx, c)
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
