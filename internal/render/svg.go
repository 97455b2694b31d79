package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
)

// SVGOptions controls SVG output.
type SVGOptions struct {
	// Background is an href (path, URL or data URI) for the drawing raster
	// placed under the overlay. Empty omits it.
	Background string

	// Static freezes animations at their first keyframe.
	Static bool
}

// errWriter remembers the first write error so svgo, which does not
// report errors, can be checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// SVG writes a document of the given coordinate space containing every
// layer in order.
func SVG(w io.Writer, space geometry.Size, opts SVGOptions, layers ...[]overlay.Instruction) error {
	if !space.Known() {
		return fmt.Errorf("cannot render into an unknown coordinate space %vx%v", space.Width, space.Height)
	}
	ew := &errWriter{w: w}
	width, height := int(math.Ceil(space.Width)), int(math.Ceil(space.Height))

	canvas := svg.New(ew)
	canvas.Startview(width, height, 0, 0, width, height)
	if opts.Background != "" {
		canvas.Image(0, 0, width, height, opts.Background, `preserveAspectRatio="none"`)
	}
	for _, layer := range layers {
		canvas.Group(`class="overlay-layer"`)
		for _, in := range layer {
			if opts.Static {
				in = settle(in)
			}
			drawSVG(canvas, in)
		}
		canvas.Gend()
	}
	canvas.End()
	return ew.err
}

func ri(f float64) int { return int(math.Round(f)) }

func attrs(in overlay.Instruction) []string {
	out := []string{css(in), fmt.Sprintf(`class="%s"`, in.Role)}
	if in.ID != "" {
		out = append(out, fmt.Sprintf(`id="%s"`, in.ID))
	}
	if in.Hit {
		out = append(out, fmt.Sprintf(`data-balloon="%d"`, in.Balloon), `cursor="pointer"`)
	}
	return out
}

func drawSVG(canvas *svg.SVG, in overlay.Instruction) {
	if len(in.Animations) > 0 {
		drawAnimated(canvas, in)
		return
	}
	switch in.Kind {
	case overlay.KindLine:
		canvas.Line(ri(in.X1), ri(in.Y1), ri(in.X2), ri(in.Y2), attrs(in)...)
	case overlay.KindCircle:
		canvas.Circle(ri(in.CX), ri(in.CY), ri(in.R), attrs(in)...)
	case overlay.KindRect:
		canvas.Roundrect(ri(in.X), ri(in.Y), ri(in.Width), ri(in.Height), ri(in.Radius), ri(in.Radius), attrs(in)...)
	case overlay.KindMask:
		d := roundedRectPath(in.X, in.Y, in.Width, in.Height, in.Radius)
		if in.Outer != nil {
			d = roundedRectPath(in.Outer.X, in.Outer.Y, in.Outer.Width, in.Outer.Height, 0) + d
		}
		canvas.Path(d, css(in)+";fill-rule:evenodd", fmt.Sprintf(`class="%s"`, in.Role))
	case overlay.KindPath:
		if len(in.Points) == 0 {
			return
		}
		var b strings.Builder
		for i, p := range in.Points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s%s %s", cmd, num(p.X), num(p.Y))
		}
		canvas.Path(b.String(), css(in)+";stroke-linecap:round;stroke-linejoin:round", fmt.Sprintf(`class="%s"`, in.Role))
	case overlay.KindText:
		canvas.Text(ri(in.X), ri(in.Y), in.Text, textCSS(in), fmt.Sprintf(`class="%s"`, in.Role))
	}
}

// drawAnimated writes an element with SMIL animation children. svgo only
// emits self-closing shapes, so these are written directly.
func drawAnimated(canvas *svg.SVG, in overlay.Instruction) {
	var tag, geom string
	switch in.Kind {
	case overlay.KindCircle:
		tag = "circle"
		geom = fmt.Sprintf(`cx="%s" cy="%s" r="%s"`, num(in.CX), num(in.CY), num(in.R))
	case overlay.KindRect:
		tag = "rect"
		geom = fmt.Sprintf(`x="%s" y="%s" width="%s" height="%s" rx="%s" ry="%s"`,
			num(in.X), num(in.Y), num(in.Width), num(in.Height), num(in.Radius), num(in.Radius))
	default:
		drawSVG(canvas, settle(in))
		return
	}

	fmt.Fprintf(canvas.Writer, "<%s %s class=\"%s\" style=\"%s\">\n", tag, geom, in.Role, css(in))
	for _, a := range in.Animations {
		vals := make([]string, len(a.Values))
		for i, v := range a.Values {
			vals[i] = num(v)
		}
		fmt.Fprintf(canvas.Writer, "<animate attributeName=\"%s\" values=\"%s\" dur=\"%ss\" repeatCount=\"indefinite\" />\n",
			a.Attr, strings.Join(vals, ";"), num(a.Dur))
	}
	fmt.Fprintf(canvas.Writer, "</%s>\n", tag)
}
