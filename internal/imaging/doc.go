// Package imaging loads drawing rasters and produces derived images for the
// inspector: zoomed crops around a region and overlay layers composited onto
// the drawing.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate Spaces
//
// Balloon coordinates and highlight regions are expressed in the pane's
// coordinate space (see package geometry). When the raster is loaded the two
// agree, but a caller may still hold a space that was inferred before the
// image arrived. ZoomRegion therefore maps regions from the given space onto
// the raster's pixel grid before cropping.
//
// # Thread Safety
//
// The DrawingCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Output Encoding
//
// Derived images are returned as base64-encoded PNG inside an ImageResult so
// they can be embedded directly in tool responses.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions that are degenerate or fall entirely outside the drawing
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
