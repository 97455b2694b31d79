package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/model"
)

// ImageResult is a derived image encoded for transport.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Raster limits. A bad upstream coordinate can grow a coordinate space far
// beyond any real drawing; allocating it would exhaust memory or panic.
const (
	MaxSide   = 1 << 15
	MaxPixels = 1 << 27
)

// ErrTooLarge is returned when a raster would exceed MaxSide or MaxPixels.
var ErrTooLarge = errors.New("raster too large")

// CheckSize reports ErrTooLarge when a width x height raster exceeds the
// limits. Sizes are taken as floats so overflowing products are caught.
func CheckSize(width, height float64) error {
	if width > MaxSide || height > MaxSide || width*height > MaxPixels {
		return fmt.Errorf("%w: %.0fx%.0f exceeds %dpx per side or %d pixels", ErrTooLarge, width, height, MaxSide, MaxPixels)
	}
	return nil
}

// EncodePNG encodes img as a base64 PNG result.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// PixelRect maps a region from the coordinate space onto the pixel grid of
// an image with the given bounds, grows it by padding (in coordinate-space
// units) on every side, and clips it to the bounds.
//
// An unknown space is treated as identical to the pixel grid.
func PixelRect(bounds image.Rectangle, region model.Region, space geometry.Size, padding float64) image.Rectangle {
	sx, sy := 1.0, 1.0
	if space.Known() {
		sx = float64(bounds.Dx()) / space.Width
		sy = float64(bounds.Dy()) / space.Height
	}
	r := image.Rect(
		bounds.Min.X+int(math.Floor((region.X-padding)*sx)),
		bounds.Min.Y+int(math.Floor((region.Y-padding)*sy)),
		bounds.Min.X+int(math.Ceil((region.Right()+padding)*sx)),
		bounds.Min.Y+int(math.Ceil((region.Bottom()+padding)*sy)),
	)
	return r.Intersect(bounds)
}

// ZoomRegion crops the part of a drawing around a region and optionally
// scales it, the raster counterpart of zooming the pane onto a highlight.
//
// Parameters:
//   - img: The drawing raster.
//   - region: The area of interest in coordinate-space units.
//   - space: The coordinate space region is expressed in.
//   - padding: Extra context around the region, in coordinate-space units.
//   - scale: Output scale factor; values <= 0 or 1.0 leave the crop as is.
//
// Returns an error when the region is degenerate or lies entirely outside
// the drawing, or when the scaled output would exceed the raster limits.
func ZoomRegion(img image.Image, region model.Region, space geometry.Size, padding, scale float64) (*ImageResult, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("invalid zoom region: width and height must be positive")
	}
	if padding < 0 || math.IsNaN(padding) {
		padding = 0
	}

	rect := PixelRect(img.Bounds(), region, space, padding)
	if rect.Empty() {
		return nil, fmt.Errorf("zoom region (%.0f,%.0f %.0fx%.0f) is outside the drawing bounds %v",
			region.X, region.Y, region.Width, region.Height, img.Bounds())
	}

	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		w := math.Max(1, math.Floor(float64(cropped.Bounds().Dx())*scale))
		h := math.Max(1, math.Floor(float64(cropped.Bounds().Dy())*scale))
		if err := CheckSize(w, h); err != nil {
			return nil, fmt.Errorf("zoom scale %g: %w", scale, err)
		}
		newWidth, newHeight := int(w), int(h)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return EncodePNG(cropped)
}
