package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
)

const fontFamily = "Inter, Helvetica, Arial, sans-serif"

func num(f float64) string {
	return model.FormatNumber(math.Round(f*100) / 100)
}

// css builds the inline style for an instruction's paint.
func css(in overlay.Instruction) string {
	var parts []string
	if in.Fill != "" {
		parts = append(parts, "fill:"+in.Fill)
		if in.FillOpacity < 1 {
			parts = append(parts, "fill-opacity:"+num(in.FillOpacity))
		}
	} else {
		parts = append(parts, "fill:none")
	}
	if in.Stroke != "" {
		parts = append(parts, "stroke:"+in.Stroke, "stroke-width:"+num(in.StrokeWidth))
	}
	if in.Opacity < 1 {
		parts = append(parts, "opacity:"+num(in.Opacity))
	}
	return strings.Join(parts, ";")
}

func textCSS(in overlay.Instruction) string {
	s := fmt.Sprintf("fill:%s;font-size:%spx;font-family:%s;text-anchor:middle;dominant-baseline:central",
		in.Fill, num(in.FontSize), fontFamily)
	if in.Bold {
		s += ";font-weight:bold"
	}
	return s
}

// rgba converts a hex color and opacity to a raster color. Unparseable
// colors are transparent.
func rgba(hex string, alpha float64) color.Color {
	if hex == "" {
		return color.Transparent
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Transparent
	}
	r, g, b := c.RGB255()
	a := geometry.Clamp(alpha, 0, 1)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}
}

// settle freezes animations at their first keyframe.
func settle(in overlay.Instruction) overlay.Instruction {
	for _, a := range in.Animations {
		if len(a.Values) == 0 {
			continue
		}
		switch a.Attr {
		case "r":
			in.R = a.Values[0]
		case "opacity":
			in.Opacity = a.Values[0]
		case "stroke-width":
			in.StrokeWidth = a.Values[0]
		}
	}
	in.Animations = nil
	return in
}

// roundedRectPath returns SVG path data for a rounded rectangle.
func roundedRectPath(x, y, w, h, r float64) string {
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	if r == 0 {
		return fmt.Sprintf("M%s %sH%sV%sH%sZ", num(x), num(y), num(x+w), num(y+h), num(x))
	}
	arc := func(ex, ey float64) string {
		return fmt.Sprintf("A%s %s 0 0 1 %s %s", num(r), num(r), num(ex), num(ey))
	}
	return strings.Join([]string{
		fmt.Sprintf("M%s %s", num(x+r), num(y)),
		"H" + num(x+w-r), arc(x+w, y+r),
		"V" + num(y+h-r), arc(x+w-r, y+h),
		"H" + num(x+r), arc(x, y+h-r),
		"V" + num(y+r), arc(x+r, y),
		"Z",
	}, "")
}
