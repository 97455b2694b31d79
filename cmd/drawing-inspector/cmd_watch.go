package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ironsheep/drawing-inspector/internal/feed"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

type WatchCmd struct {
	flags *Flags

	// flags
	review bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Follow a session and log every snapshot and event",
		UsageText: "drawing-inspector watch [--review]",
		Description: `Runs the configured sources (snapshot file watcher, REST refresher, event
feed) and logs a summary line for every snapshot replacement. On exit the
event timeline is printed.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "review",
				Usage:       "request a review pass once the first snapshot arrives",
				Destination: &cmd.review,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	src, err := NewSources(cmd.flags.Config, log.Logger)
	if err != nil {
		return err
	}
	if !src.Enabled() {
		return errors.New("nothing to watch: configure a snapshot file, an inspection API or an event feed")
	}
	if cmd.review && src.Refresher == nil {
		return errors.New("--review needs an inspection API and session id")
	}

	first := make(chan struct{})
	var once sync.Once
	src.Store.OnReplace(func(snap *model.Snapshot) {
		info := src.Store.Info()
		sum := status.Summarize(model.Statuses(snap.Items))
		log.Info().
			Uint64("version", info.Version).
			Str("source", info.Source).
			Int("items", sum.Total).
			Int("flagged", sum.Flagged).
			Str("worst", string(sum.Worst)).
			Int("findings", snap.Review.Count()).
			Msg("snapshot")
		once.Do(func() { close(first) })
	})

	if cmd.review {
		go func() {
			select {
			case <-ctx.Done():
				return
			case <-first:
			}
			review, err := src.Refresher.Review(ctx)
			if err != nil {
				log.Error().Err(err).Msg("review failed")
				return
			}
			log.Info().Int("findings", review.Count()).Str("summary", review.Summary).Msg("review complete")
		}()
	}

	err = src.Run(ctx)
	printTimeline(src.Events.Events())
	return err
}

func printTimeline(events []feed.Event) {
	if len(events) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tAGENT\tTYPE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Received.Format(time.TimeOnly), e.Agent, e.Type)
	}
	_ = tw.Flush()
}
