// Package overlay computes the geometry drawn on top of an engineering
// drawing: balloon markers with their leader lines and tooltips, and the
// spotlight treatment for a single highlighted region.
//
// Renderers here are pure functions. They take records and a resolved
// coordinate space (see package geometry) and return an ordered list of
// Instructions. Instructions are backend neutral; package render turns them
// into SVG or PNG. Order matters: later instructions are painted on top.
//
// # Balloons
//
// Each balloon is pinned at its raw coordinate with a small anchor dot. A
// leader line runs to a label point offset (+25, -25) where the numbered
// marker circle sits (radius 14, or 18 when highlighted). A highlighted
// balloon also gets a pulsing ring. Tooltips (value, unit, tolerance class)
// appear when a balloon is hovered or highlighted and are kept inside the
// coordinate space.
//
// # Highlight regions
//
// A highlighted region dims the rest of the canvas, outlines the region with
// its status palette, adds a pulsing border and four corner brackets, and
// places a text badge sized from the region so it is never clipped.
package overlay
