package overlay

import (
	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/model"
)

// Kind is the primitive an Instruction draws.
type Kind string

const (
	KindLine   Kind = "line"
	KindCircle Kind = "circle"
	KindRect   Kind = "rect"
	KindMask   Kind = "mask"
	KindPath   Kind = "path"
	KindText   Kind = "text"
)

// Role tags what an instruction represents so callers and tests can find
// parts of the overlay without relying on order.
type Role string

const (
	RoleLeader      Role = "leader"
	RoleAnchor      Role = "anchor"
	RolePulse       Role = "pulse"
	RoleMarker      Role = "marker"
	RoleNumber      Role = "number"
	RoleTooltipBox  Role = "tooltip-box"
	RoleTooltipText Role = "tooltip-text"
	RoleMask        Role = "mask"
	RoleRegion      Role = "region"
	RoleRegionPulse Role = "region-pulse"
	RoleCorner      Role = "corner"
	RoleBadge       Role = "badge"
	RoleBadgeText   Role = "badge-text"
)

// Animation describes a looping attribute animation. Values are keyframes
// spread evenly over Dur seconds. Static backends draw the first keyframe.
type Animation struct {
	Attr   string    `json:"attr"`
	Values []float64 `json:"values"`
	Dur    float64   `json:"dur"`
}

// Instruction is one drawing primitive in coordinate-space units.
//
// Field usage by kind:
//   - line:   X1,Y1 -> X2,Y2
//   - circle: CX,CY,R
//   - rect:   X,Y,Width,Height with corner Radius
//   - mask:   Outer filled, with the X,Y,Width,Height rounded rect cut out
//   - path:   open polyline through Points
//   - text:   Text centered on X,Y
type Instruction struct {
	Kind    Kind   `json:"kind"`
	Role    Role   `json:"role"`
	ID      string `json:"id,omitempty"`
	Balloon int    `json:"balloon,omitempty"`
	Hit     bool   `json:"hit,omitempty"`

	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	CX float64 `json:"cx,omitempty"`
	CY float64 `json:"cy,omitempty"`
	R  float64 `json:"r,omitempty"`

	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Outer  *geometry.Rect `json:"outer,omitempty"`
	Points []model.Point  `json:"points,omitempty"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Bold     bool    `json:"bold,omitempty"`

	Fill        string  `json:"fill,omitempty"`
	FillOpacity float64 `json:"fill_opacity,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity"`

	Animations []Animation `json:"animations,omitempty"`
}

// Bounds returns the axis-aligned box an instruction covers, ignoring
// stroke width and animation.
func (in Instruction) Bounds() geometry.Rect {
	switch in.Kind {
	case KindLine:
		return spanRect(in.X1, in.Y1, in.X2, in.Y2)
	case KindCircle:
		return geometry.Rect{X: in.CX - in.R, Y: in.CY - in.R, Width: 2 * in.R, Height: 2 * in.R}
	case KindMask:
		if in.Outer != nil {
			return *in.Outer
		}
	case KindPath:
		if len(in.Points) == 0 {
			return geometry.Rect{}
		}
		r := spanRect(in.Points[0].X, in.Points[0].Y, in.Points[0].X, in.Points[0].Y)
		for _, p := range in.Points[1:] {
			r = union(r, spanRect(p.X, p.Y, p.X, p.Y))
		}
		return r
	case KindText:
		return geometry.Rect{X: in.X, Y: in.Y}
	}
	return geometry.Rect{X: in.X, Y: in.Y, Width: in.Width, Height: in.Height}
}

// Filter returns the instructions with the given role.
func Filter(ins []Instruction, role Role) []Instruction {
	var out []Instruction
	for _, in := range ins {
		if in.Role == role {
			out = append(out, in)
		}
	}
	return out
}

func spanRect(x1, y1, x2, y2 float64) geometry.Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return geometry.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func union(a, b geometry.Rect) geometry.Rect {
	x1 := min(a.X, b.X)
	y1 := min(a.Y, b.Y)
	x2 := max(a.X+a.Width, b.X+b.Width)
	y2 := max(a.Y+a.Height, b.Y+b.Height)
	return geometry.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
