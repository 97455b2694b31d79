// Package render turns overlay instructions into concrete output.
//
// Two backends share one instruction list:
//   - SVG writes a standalone document with svgo. Animated instructions
//     (pulse rings, pulsing region borders) are emitted with SMIL <animate>
//     children so the output behaves like the live viewer.
//   - Rasterize paints the instructions onto a transparent RGBA layer with
//     gg. Animations are frozen at their first keyframe. PNG composites that
//     layer onto the drawing raster.
//
// Coordinates are coordinate-space units; the SVG viewBox and the raster
// canvas both match the resolved space exactly.
package render
