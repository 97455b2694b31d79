package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ironsheep/drawing-inspector/internal/correlate"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/render"
	"github.com/ironsheep/drawing-inspector/internal/selection"
	"github.com/ironsheep/drawing-inspector/internal/session"
)

type RenderCmd struct {
	flags *Flags

	// flags
	snapshot   string
	side       string
	format     string
	output     string
	drawing    string
	balloon    int
	finding    string
	hovered    int
	static     bool
	background bool
}

// NewRenderCmd creates a new render command
func NewRenderCmd(flags *Flags) *RenderCmd {
	return &RenderCmd{flags: flags}
}

// Register adds the render command to the application
func (cmd *RenderCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "render",
		Usage:     "Render one pane of a snapshot as SVG or PNG",
		UsageText: "drawing-inspector render --snapshot FILE [--side master|check] [--format svg|png] [-o FILE]",
		Description: `Draws the balloon markers of one pane and, when a balloon or finding is
selected, its highlight region.

Without --drawing the coordinate space is derived from the balloons and the
region; with it the drawing's pixel size is used and PNG output is composited
onto the drawing.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "snapshot",
				Aliases:     []string{"s"},
				Usage:       "snapshot JSON file (defaults to the configured snapshot file)",
				Destination: &cmd.snapshot,
			},
			&cli.StringFlag{
				Name:        "side",
				Usage:       "pane to render: master or check",
				Value:       "master",
				Destination: &cmd.side,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format: svg or png",
				Value:       "svg",
				Destination: &cmd.format,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (- for stdout)",
				Value:       "-",
				Destination: &cmd.output,
			},
			&cli.StringFlag{
				Name:        "drawing",
				Usage:       "drawing raster path or URL (defaults to the snapshot's image)",
				Destination: &cmd.drawing,
			},
			&cli.IntFlag{
				Name:        "balloon",
				Usage:       "select this balloon",
				Destination: &cmd.balloon,
			},
			&cli.StringFlag{
				Name:        "finding",
				Usage:       "select this review finding, as category:index",
				Destination: &cmd.finding,
			},
			&cli.IntFlag{
				Name:        "hover",
				Usage:       "show the tooltip of this balloon",
				Destination: &cmd.hovered,
			},
			&cli.BoolFlag{
				Name:        "static",
				Usage:       "freeze SVG animations",
				Destination: &cmd.static,
			},
			&cli.BoolFlag{
				Name:        "background",
				Usage:       "reference the drawing beneath the SVG overlay",
				Destination: &cmd.background,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *RenderCmd) run(ctx context.Context, c *cli.Command) error {
	snap, err := loadSnapshotFlag(cmd.snapshot, cmd.flags)
	if err != nil {
		return err
	}
	side := model.ParseSide(cmd.side)

	sel := selection.New(snap.Items)
	if c.IsSet("balloon") {
		sel.ClickBalloon(cmd.balloon)
	}
	if cmd.finding != "" {
		cat, idx, err := correlate.ParseKey(cmd.finding)
		if err != nil {
			return err
		}
		f, ok := snap.Review.Finding(cat, idx)
		if !ok {
			return fmt.Errorf("no finding %s in the snapshot review", cmd.finding)
		}
		sel.ClickFinding(cat, idx, f)
	}

	src := cmd.drawing
	if src == "" {
		src = snap.Image(side)
	}
	var drawing image.Image
	if src != "" {
		img, err := imaging.NewDrawingCache().Load(src)
		if err != nil {
			if cmd.drawing != "" {
				return err
			}
			log.Warn().Err(err).Str("source", src).Msg("drawing unavailable, using derived coordinate space")
		} else {
			drawing = img
		}
	}

	pane := render.NewPane(snap, side, sel.State(), drawing)
	if c.IsSet("hover") {
		pane.Hovered = &cmd.hovered
	}

	return writeOutput(cmd.output, func(w io.Writer) error {
		switch cmd.format {
		case "svg":
			opts := render.SVGOptions{Static: cmd.static}
			if cmd.background {
				opts.Background = src
			}
			return pane.WriteSVG(w, opts)
		case "png":
			return pane.WritePNG(w)
		}
		return fmt.Errorf("unknown format %q: expected svg or png", cmd.format)
	})
}

// loadSnapshotFlag reads the snapshot named by a command flag, falling back
// to the configured snapshot file.
func loadSnapshotFlag(path string, flags *Flags) (*model.Snapshot, error) {
	if path == "" {
		path = flags.Config.SnapshotFile
	}
	if path == "" {
		return nil, errors.New("no snapshot file: pass --snapshot or configure snapshot_file")
	}
	return session.LoadFile(path)
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
