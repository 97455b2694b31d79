package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/ironsheep/drawing-inspector/internal/correlate"
)

type MatchCmd struct {
	flags *Flags

	// flags
	snapshot   string
	jsonOutput bool
	explain    bool
}

// NewMatchCmd creates a new match command
func NewMatchCmd(flags *Flags) *MatchCmd {
	return &MatchCmd{flags: flags}
}

// Register adds the match command to the application
func (cmd *MatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "match",
		Usage:     "Correlate a snapshot's review findings to balloons",
		UsageText: "drawing-inspector match --snapshot FILE [--json] [--explain]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "snapshot",
				Aliases:     []string{"s"},
				Usage:       "snapshot JSON file (defaults to the configured snapshot file)",
				Destination: &cmd.snapshot,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "explain",
				Usage:       "include the winning score breakdown",
				Destination: &cmd.explain,
			},
		},
		Action: cmd.run,
	})
	return app
}

type matchLine struct {
	correlate.FindingMatch
	Best *correlate.Score `json:"best,omitempty"`
}

func (cmd *MatchCmd) run(ctx context.Context, c *cli.Command) error {
	snap, err := loadSnapshotFlag(cmd.snapshot, cmd.flags)
	if err != nil {
		return err
	}
	if snap.Review.Count() == 0 {
		fmt.Fprintln(os.Stderr, "No review findings in snapshot")
		return nil
	}

	var lines []matchLine
	for _, m := range correlate.MatchAll(snap.Review, snap.Items) {
		line := matchLine{FindingMatch: m}
		if cmd.explain {
			line.Best = correlate.Explain(m.Finding, snap.Items, m.Category).Best
		}
		lines = append(lines, line)
	}

	if cmd.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		for _, l := range lines {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return nil
	}
	return printMatches(os.Stdout, lines)
}

func printMatches(w io.Writer, lines []matchLine) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FINDING\tLOCATION\tVALUE\tBALLOON\tSCORE")
	for _, l := range lines {
		balloon := "-"
		if l.Balloon != nil {
			balloon = fmt.Sprintf("#%d", *l.Balloon)
		}
		score := ""
		if l.Best != nil {
			parts := make([]string, 0, len(l.Best.Contributions))
			for _, c := range l.Best.Contributions {
				parts = append(parts, fmt.Sprintf("%s+%d", c.Rule, c.Points))
			}
			score = fmt.Sprintf("%d (%s)", l.Best.Total, strings.Join(parts, " "))
		}
		value := l.Finding.SearchValue(l.Category).String()
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Key, l.Finding.Location, value, balloon, score)
	}
	return tw.Flush()
}
