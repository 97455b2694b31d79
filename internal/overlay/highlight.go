package overlay

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

const (
	MaskOpacity    = 0.35
	RegionRadius   = 6.0
	BracketArm     = 16.0
	BadgeGap       = 6.0
	BadgeMinFont   = 14.0
	RegionPulseDur = 1.5
)

// Badge is the placed label box of a highlighted region.
type Badge struct {
	geometry.Rect
	FontSize float64 `json:"font_size"`
	Inside   bool    `json:"inside"`
}

// PlaceBadge sizes the badge from the region and positions it.
//
// The font grows with the region (30% of its height, 8% of its width, at
// least 14). The badge sits just inside the bottom edge when it fits
// comfortably, otherwise just below the region. It is horizontally
// centered on the region and clamped into the canvas on both axes.
func PlaceBadge(region model.Region, label string, space geometry.Size) Badge {
	fs := math.Max(math.Max(region.Height*0.3, region.Width*0.08), BadgeMinFont)
	bw := float64(utf8.RuneCountInString(label))*fs*0.62 + fs
	bh := fs + fs*0.6

	inside := bh < region.Height*0.45 && bw < region.Width*1.2
	y := region.Bottom() + BadgeGap
	if inside {
		y = region.Bottom() - bh - BadgeGap
	}
	x := region.X + region.Width/2 - bw/2

	return Badge{
		Rect: geometry.Rect{
			X:      geometry.ClampSpan(x, bw, space.Width),
			Y:      geometry.ClampSpan(y, bh, space.Height),
			Width:  bw,
			Height: bh,
		},
		FontSize: fs,
		Inside:   inside,
	}
}

// RenderHighlight draws the spotlight for one region. A nil or degenerate
// region produces no instructions. An empty label skips the badge.
func RenderHighlight(region *model.Region, kind status.Kind, label string, space geometry.Size) []Instruction {
	if region == nil || !region.Valid() {
		return nil
	}
	st := status.HighlightStyle(kind)
	color := st.Hex()
	r := *region

	out := []Instruction{
		{Kind: KindMask, Role: RoleMask,
			Outer: &geometry.Rect{Width: space.Width, Height: space.Height},
			X:     r.X, Y: r.Y, Width: r.Width, Height: r.Height, Radius: RegionRadius,
			Fill: "#000000", FillOpacity: MaskOpacity, Opacity: 1},
		{Kind: KindRect, Role: RoleRegion,
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Radius: RegionRadius,
			Fill: color, FillOpacity: 0.12, Stroke: color, StrokeWidth: 3, Opacity: 1},
		{Kind: KindRect, Role: RoleRegionPulse,
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Radius: RegionRadius,
			Stroke: color, StrokeWidth: 2, Opacity: 1,
			Animations: []Animation{
				{Attr: "stroke-width", Values: []float64{2, 5, 2}, Dur: RegionPulseDur},
				{Attr: "opacity", Values: []float64{1, 0.3, 1}, Dur: RegionPulseDur},
			}},
	}
	for _, pts := range brackets(r) {
		out = append(out, Instruction{Kind: KindPath, Role: RoleCorner, Points: pts,
			Stroke: color, StrokeWidth: 4, Opacity: 1})
	}

	if label == "" {
		return out
	}
	b := PlaceBadge(r, label, space)
	cx, cy := b.Center()
	return append(out,
		Instruction{Kind: KindRect, Role: RoleBadge,
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Radius: 4,
			Fill: color, FillOpacity: 0.95, Opacity: 1},
		Instruction{Kind: KindText, Role: RoleBadgeText,
			X: cx, Y: cy, Text: label, FontSize: b.FontSize, Bold: true,
			Fill: "#ffffff", FillOpacity: 1, Opacity: 1},
	)
}

// brackets returns the four L-shaped corner strokes, each running from the
// end of one arm through the corner to the end of the other.
func brackets(r model.Region) [][]model.Point {
	x0, y0, x1, y1 := r.X, r.Y, r.Right(), r.Bottom()
	a := BracketArm
	return [][]model.Point{
		{{X: x0, Y: y0 + a}, {X: x0, Y: y0}, {X: x0 + a, Y: y0}},
		{{X: x1 - a, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y0 + a}},
		{{X: x1, Y: y1 - a}, {X: x1, Y: y1}, {X: x1 - a, Y: y1}},
		{{X: x0 + a, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y1 - a}},
	}
}

// HighlightLabel is the badge text for a comparison item, for example
// "#4 FAIL +0.3".
func HighlightLabel(item model.ComparisonItem) string {
	parts := []string{fmt.Sprintf("#%d", item.BalloonNumber), status.StyleOf(item.Status).Label}
	if item.Deviation != nil && !math.IsNaN(*item.Deviation) && !math.IsInf(*item.Deviation, 0) {
		d := model.FormatNumber(*item.Deviation)
		if *item.Deviation >= 0 {
			d = "+" + d
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, " ")
}

// FindingLabel is the badge text for a review finding highlight.
func FindingLabel(c model.Category, f model.Finding) string {
	v := f.SearchValue(c).String()
	if v == "" {
		return strings.ToUpper(string(c))
	}
	return strings.ToUpper(string(c)) + ": " + v
}
