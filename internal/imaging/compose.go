package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Compose paints an overlay layer onto a drawing and returns the result at
// the layer's size.
//
// The layer is expected to be mostly transparent (see render.Rasterize).
// When the drawing's pixel size differs from the layer, the drawing is first
// resized to match so overlay coordinates line up with drawing features.
// A nil base yields the layer on a white background.
func Compose(base image.Image, layer image.Image) *image.RGBA {
	lb := layer.Bounds()
	if base == nil {
		base = imaging.New(lb.Dx(), lb.Dy(), image.White.C)
	} else if bb := base.Bounds(); bb.Dx() != lb.Dx() || bb.Dy() != lb.Dy() {
		base = imaging.Resize(base, lb.Dx(), lb.Dy(), imaging.Lanczos)
	}
	return blend.Normal(base, layer)
}
