// Package geometry derives the coordinate space shared by every overlay on a
// drawing pane and provides the small amount of rectangle math the renderers
// need.
//
// The coordinate space is the logical width/height of the SVG viewBox (or
// raster canvas) that balloon coordinates and highlight regions are expressed
// in. When the drawing raster is loaded its true size is authoritative. Before
// that (image still loading, or unavailable) the space is inferred from the
// overlay inputs so nothing is ever placed outside the visible area.
package geometry

import (
	"math"

	"github.com/ironsheep/drawing-inspector/internal/model"
)

const (
	// FloorWidth and FloorHeight are the minimum inferred canvas size.
	FloorWidth  = 1000.0
	FloorHeight = 800.0

	// MarkerMargin reserves room past a balloon coordinate for its marker,
	// which is drawn offset up and to the right of the pinned point.
	MarkerMargin = 40.0

	// DefaultRegionExtent replaces a missing or zero region width/height.
	DefaultRegionExtent = 160.0
)

// Size is a coordinate-space extent in drawing pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether s describes a usable canvas.
func (s Size) Known() bool {
	return finite(s.Width) && finite(s.Height) && s.Width > 0 && s.Height > 0
}

// Resolve returns the coordinate space for a pane.
//
// A loaded raster size is returned verbatim. Otherwise the space starts at
// the floor and grows to cover every balloon (plus MarkerMargin) and the
// highlight region. Non-finite inputs are skipped, so the result is always
// at least the floor and never NaN.
func Resolve(balloons []model.Balloon, region *model.Region, loaded *Size) Size {
	if loaded != nil && loaded.Known() {
		return *loaded
	}

	maxX, maxY := FloorWidth, FloorHeight
	for _, b := range balloons {
		if finite(b.Coordinates.X) {
			maxX = math.Max(maxX, b.Coordinates.X+MarkerMargin)
		}
		if finite(b.Coordinates.Y) {
			maxY = math.Max(maxY, b.Coordinates.Y+MarkerMargin)
		}
	}

	if region != nil {
		w, h := region.Width, region.Height
		if !finite(w) || w <= 0 {
			w = DefaultRegionExtent
		}
		if !finite(h) || h <= 0 {
			h = DefaultRegionExtent
		}
		if finite(region.X) {
			maxX = math.Max(maxX, region.X+w)
		}
		if finite(region.Y) {
			maxY = math.Max(maxY, region.Y+h)
		}
	}

	return Size{Width: maxX, Height: maxY}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
