package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
)

// Basic font glyph height, used to scale text to the requested size.
const glyphHeight = 13.0

// Rasterize paints the layers onto a transparent canvas the size of the
// coordinate space. Animations are frozen at their first keyframe. Spaces
// beyond the imaging raster limits fail with imaging.ErrTooLarge.
func Rasterize(space geometry.Size, layers ...[]overlay.Instruction) (image.Image, error) {
	if !space.Known() {
		return nil, fmt.Errorf("cannot render into an unknown coordinate space %vx%v", space.Width, space.Height)
	}
	w, h := math.Ceil(space.Width), math.Ceil(space.Height)
	if err := imaging.CheckSize(w, h); err != nil {
		return nil, fmt.Errorf("rasterize overlay: %w", err)
	}
	dc := gg.NewContext(int(w), int(h))
	dc.SetFontFace(basicfont.Face7x13)
	for _, layer := range layers {
		for _, in := range layer {
			drawRaster(dc, settle(in))
		}
	}
	return dc.Image(), nil
}

// PNG rasterizes the layers, composites them onto the drawing (nil for a
// plain white sheet) and writes the result as PNG.
func PNG(w io.Writer, space geometry.Size, drawing image.Image, layers ...[]overlay.Instruction) error {
	layer, err := Rasterize(space, layers...)
	if err != nil {
		return err
	}
	if err := png.Encode(w, imaging.Compose(drawing, layer)); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

func drawRaster(dc *gg.Context, in overlay.Instruction) {
	switch in.Kind {
	case overlay.KindLine:
		dc.DrawLine(in.X1, in.Y1, in.X2, in.Y2)
		paint(dc, overlay.Instruction{Stroke: in.Stroke, StrokeWidth: in.StrokeWidth, Opacity: in.Opacity})
	case overlay.KindCircle:
		dc.DrawCircle(in.CX, in.CY, in.R)
		paint(dc, in)
	case overlay.KindRect:
		if in.Radius > 0 {
			dc.DrawRoundedRectangle(in.X, in.Y, in.Width, in.Height, in.Radius)
		} else {
			dc.DrawRectangle(in.X, in.Y, in.Width, in.Height)
		}
		paint(dc, in)
	case overlay.KindMask:
		if in.Outer == nil {
			return
		}
		dc.SetFillRuleEvenOdd()
		dc.DrawRectangle(in.Outer.X, in.Outer.Y, in.Outer.Width, in.Outer.Height)
		dc.DrawRoundedRectangle(in.X, in.Y, in.Width, in.Height, in.Radius)
		dc.SetColor(rgba(in.Fill, in.FillOpacity*in.Opacity))
		dc.Fill()
		dc.SetFillRuleWinding()
	case overlay.KindPath:
		if len(in.Points) == 0 {
			return
		}
		dc.MoveTo(in.Points[0].X, in.Points[0].Y)
		for _, p := range in.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.SetLineCapRound()
		dc.SetColor(rgba(in.Stroke, in.Opacity))
		dc.SetLineWidth(in.StrokeWidth)
		dc.Stroke()
	case overlay.KindText:
		s := in.FontSize / glyphHeight
		if s <= 0 {
			s = 1
		}
		dc.Push()
		dc.ScaleAbout(s, s, in.X, in.Y)
		dc.SetColor(rgba(in.Fill, in.FillOpacity*in.Opacity))
		dc.DrawStringAnchored(in.Text, in.X, in.Y, 0.5, 0.5)
		dc.Pop()
	}
}

// paint fills and then strokes the current path.
func paint(dc *gg.Context, in overlay.Instruction) {
	fill, stroke := in.Fill != "", in.Stroke != "" && in.StrokeWidth > 0
	if fill {
		dc.SetColor(rgba(in.Fill, in.FillOpacity*in.Opacity))
		if stroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if stroke {
		dc.SetColor(rgba(in.Stroke, in.Opacity))
		dc.SetLineWidth(in.StrokeWidth)
		dc.Stroke()
	}
	if !fill && !stroke {
		dc.ClearPath()
	}
}
