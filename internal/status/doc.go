// Package status defines the verification status taxonomy shared by every
// overlay, table and correlation component.
//
// A status is one of a closed set of kinds:
//
//	pass | fail | warning | deviation | missing | not_found | pending
//
// Kinds are totally ordered for severity display:
//
//	fail > missing > warning > deviation > not_found > pending > pass
//
// # Styling
//
// Every kind maps to exactly one Style (color, tinted fill, label). The
// mapping is total: strings outside the closed set still resolve to a style
// (the pending style for general display, the fail palette for highlight
// regions) so nothing is ever drawn without a color.
//
// This package is the single source of truth for status colors. Renderers,
// the SVG/PNG backends and the tool server all read from it.
package status
