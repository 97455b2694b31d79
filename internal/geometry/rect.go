package geometry

import "math"

// Clamp limits v to [lo, hi]. When the range is empty (hi < lo) it returns lo.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// ClampSpan positions a span of the given length starting at pos so that it
// stays within [0, limit]. Spans longer than the limit are pinned to 0.
func ClampSpan(pos, length, limit float64) float64 {
	return Clamp(pos, 0, limit-length)
}

// Rect is a float rectangle used for computed overlay boxes.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Within reports whether r lies fully inside the coordinate space s.
func (r Rect) Within(s Size) bool {
	const eps = 1e-9
	return r.X >= -eps && r.Y >= -eps &&
		r.X+r.Width <= s.Width+eps && r.Y+r.Height <= s.Height+eps
}

// Contains reports whether the point lies inside r (edges included).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
