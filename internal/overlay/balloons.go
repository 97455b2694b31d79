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
	// LabelOffsetX and LabelOffsetY move the marker up and to the right of
	// the pinned coordinate.
	LabelOffsetX = 25.0
	LabelOffsetY = -25.0

	MarkerRadius    = 14.0
	HighlightRadius = 18.0
	AnchorRadius    = 3.0

	// PulseScale is the ring radius at the end of the pulse, relative to
	// the marker radius.
	PulseScale = 1.57
	PulseDur   = 1.5

	TooltipMinWidth  = 80.0
	TooltipCharWidth = 8.0
	TooltipPadding   = 16.0
	TooltipHeight    = 24.0
	TooltipGap       = 6.0

	tooltipFill = "#111827"
	markerRing  = "#ffffff"
)

// Marker returns the label point and marker radius for a balloon.
func Marker(b model.Balloon, highlighted bool) (x, y, r float64) {
	r = MarkerRadius
	if highlighted {
		r = HighlightRadius
	}
	return b.Coordinates.X + LabelOffsetX, b.Coordinates.Y + LabelOffsetY, r
}

// TooltipText is the hover text for a balloon: value with unit, then the
// tolerance class when one is set.
func TooltipText(b model.Balloon) string {
	v := b.Value.String()
	if strings.TrimSpace(v) == "" {
		v = "—"
	}
	parts := []string{v}
	if b.Unit != "" {
		parts[0] = v + " " + b.Unit
	}
	if b.ToleranceClass != "" {
		parts = append(parts, b.ToleranceClass)
	}
	return strings.Join(parts, " ")
}

// TooltipBox lays out the tooltip for a balloon. The box is centered above
// the marker, flipped below it when there is no room on top, then clamped
// into the coordinate space.
func TooltipBox(b model.Balloon, highlighted bool, space geometry.Size) (string, geometry.Rect) {
	text := TooltipText(b)
	w := math.Max(TooltipMinWidth, float64(utf8.RuneCountInString(text))*TooltipCharWidth+TooltipPadding)
	h := TooltipHeight

	lx, ly, r := Marker(b, highlighted)
	x := lx - w/2
	y := ly - r - TooltipGap - h
	if y < 0 {
		y = ly + r + TooltipGap
	}
	return text, geometry.Rect{
		X:      geometry.ClampSpan(x, w, space.Width),
		Y:      geometry.ClampSpan(y, h, space.Height),
		Width:  w,
		Height: h,
	}
}

// RenderBalloons draws every balloon that has finite coordinates. highlight
// and hovered select a balloon number (nil for none). Markers are emitted in
// input order; tooltips follow all markers so nothing covers them.
func RenderBalloons(balloons []model.Balloon, highlight, hovered *int, space geometry.Size) []Instruction {
	var out, tips []Instruction
	for _, b := range balloons {
		if !b.Coordinates.Finite() {
			continue
		}
		hl := highlight != nil && *highlight == b.Number
		out = append(out, balloonMarker(b, hl)...)

		if hl || (hovered != nil && *hovered == b.Number) {
			tips = append(tips, tooltip(b, hl, space)...)
		}
	}
	return append(out, tips...)
}

func balloonMarker(b model.Balloon, hl bool) []Instruction {
	st := status.StyleOf(b.Status)
	color := st.Hex()
	px, py := b.Coordinates.X, b.Coordinates.Y
	lx, ly, r := Marker(b, hl)
	id := fmt.Sprintf("balloon-%d", b.Number)

	out := []Instruction{
		{Kind: KindLine, Role: RoleLeader, Balloon: b.Number,
			X1: px, Y1: py, X2: lx, Y2: ly,
			Stroke: color, StrokeWidth: 1.5, Opacity: 1},
		{Kind: KindCircle, Role: RoleAnchor, Balloon: b.Number,
			CX: px, CY: py, R: AnchorRadius,
			Fill: color, FillOpacity: 1, Opacity: 1},
	}
	if hl {
		out = append(out, Instruction{
			Kind: KindCircle, Role: RolePulse, Balloon: b.Number,
			CX: lx, CY: ly, R: r,
			Stroke: color, StrokeWidth: 2, Opacity: 0.6,
			Animations: []Animation{
				{Attr: "r", Values: []float64{r, r * PulseScale}, Dur: PulseDur},
				{Attr: "opacity", Values: []float64{0.6, 0}, Dur: PulseDur},
			},
		})
	}
	strokeWidth := 2.0
	if hl {
		strokeWidth = 3
	}
	fontSize := 12.0
	if hl {
		fontSize = 14
	}
	return append(out,
		Instruction{Kind: KindCircle, Role: RoleMarker, ID: id, Balloon: b.Number, Hit: true,
			CX: lx, CY: ly, R: r,
			Fill: color, FillOpacity: 1, Stroke: markerRing, StrokeWidth: strokeWidth, Opacity: 1},
		Instruction{Kind: KindText, Role: RoleNumber, Balloon: b.Number,
			X: lx, Y: ly, Text: fmt.Sprintf("%d", b.Number), FontSize: fontSize, Bold: true,
			Fill: st.TextHex(), FillOpacity: 1, Opacity: 1},
	)
}

func tooltip(b model.Balloon, hl bool, space geometry.Size) []Instruction {
	text, box := TooltipBox(b, hl, space)
	cx, cy := box.Center()
	return []Instruction{
		{Kind: KindRect, Role: RoleTooltipBox, Balloon: b.Number,
			X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Radius: 4,
			Fill: tooltipFill, FillOpacity: 0.92, Opacity: 1},
		{Kind: KindText, Role: RoleTooltipText, Balloon: b.Number,
			X: cx, Y: cy, Text: text, FontSize: 12,
			Fill: markerRing, FillOpacity: 1, Opacity: 1},
	}
}

// HitTest returns the number of the topmost balloon whose marker contains
// the point. Markers later in the slice are drawn on top, so they win.
func HitTest(balloons []model.Balloon, highlight *int, x, y float64) (int, bool) {
	for i := len(balloons) - 1; i >= 0; i-- {
		b := balloons[i]
		if !b.Coordinates.Finite() {
			continue
		}
		lx, ly, r := Marker(b, highlight != nil && *highlight == b.Number)
		if math.Hypot(x-lx, y-ly) <= r {
			return b.Number, true
		}
	}
	return 0, false
}
