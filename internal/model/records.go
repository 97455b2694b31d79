package model

import (
	"math"

	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Point is a position in drawing-pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Region is an axis-aligned rectangle in drawing-pixel space.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether r can be drawn: finite position and strictly
// positive size. Invalid regions are treated as absent everywhere.
func (r Region) Valid() bool {
	return isFinite(r.X) && isFinite(r.Y) &&
		isFinite(r.Width) && isFinite(r.Height) &&
		r.Width > 0 && r.Height > 0
}

// Right returns the x coordinate of the right edge.
func (r Region) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Region) Bottom() float64 { return r.Y + r.Height }

// Side identifies one of the two drawings in a session.
type Side string

const (
	SideMaster Side = "master"
	SideCheck  Side = "check"
)

// ParseSide maps "check" to SideCheck and everything else to SideMaster.
func ParseSide(s string) Side {
	if Side(s) == SideCheck {
		return SideCheck
	}
	return SideMaster
}

// SidedRegion is a region tagged with the drawing it belongs to.
type SidedRegion struct {
	Region
	Side Side `json:"side,omitempty"`
}

// Balloon is a numbered annotation marker pinned to a drawing coordinate.
type Balloon struct {
	Number         int         `json:"balloon_number"`
	Coordinates    Point       `json:"coordinates"`
	Value          Value       `json:"value"`
	Unit           string      `json:"unit"`
	ToleranceClass string      `json:"tolerance_class,omitempty"`
	Nominal        *float64    `json:"nominal"`
	UpperTol       *float64    `json:"upper_tol"`
	LowerTol       *float64    `json:"lower_tol"`
	Status         status.Kind `json:"status"`
}

// ComparisonItem pairs a master dimension with its check measurement for
// one balloon number.
type ComparisonItem struct {
	BalloonNumber        int          `json:"balloon_number"`
	FeatureDescription   string       `json:"feature_description"`
	Zone                 string       `json:"zone"`
	MasterNominal        *float64     `json:"master_nominal"`
	MasterUpperTol       *float64     `json:"master_upper_tol"`
	MasterLowerTol       *float64     `json:"master_lower_tol"`
	MasterUnit           string       `json:"master_unit,omitempty"`
	MasterToleranceClass string       `json:"master_tolerance_class,omitempty"`
	MasterOCRVerified    bool         `json:"master_ocr_verified"`
	CheckActual          *float64     `json:"check_actual"`
	CheckOCRVerified     bool         `json:"check_ocr_verified"`
	Deviation            *float64     `json:"deviation"`
	Status               status.Kind  `json:"status"`
	Notes                string       `json:"notes,omitempty"`
	CheckHighlightRegion *Region      `json:"check_highlight_region"`
	HighlightRegion      *SidedRegion `json:"highlight_region"`
}

// Normalize enforces the record invariants: an empty status is pending, and
// a missing item has neither a check measurement nor a deviation.
func (c *ComparisonItem) Normalize() {
	if c.Status == "" {
		c.Status = status.Pending
	}
	if c.Status == status.Missing {
		c.CheckActual = nil
		c.Deviation = nil
	}
}

// RegionFor returns the highlight region to draw on the given side, or nil.
// The check pane prefers the dedicated check region.
func (c ComparisonItem) RegionFor(side Side) *Region {
	if side == SideCheck && c.CheckHighlightRegion != nil && c.CheckHighlightRegion.Valid() {
		r := *c.CheckHighlightRegion
		return &r
	}
	if c.HighlightRegion == nil || !c.HighlightRegion.Valid() {
		return nil
	}
	regionSide := c.HighlightRegion.Side
	if regionSide == "" {
		regionSide = SideMaster
	}
	if regionSide != side {
		return nil
	}
	r := c.HighlightRegion.Region
	return &r
}

// FindItem returns the first item for balloon number n.
func FindItem(items []ComparisonItem, n int) (ComparisonItem, bool) {
	for _, it := range items {
		if it.BalloonNumber == n {
			return it, true
		}
	}
	return ComparisonItem{}, false
}

// Statuses extracts the status of every item in order.
func Statuses(items []ComparisonItem) []status.Kind {
	out := make([]status.Kind, len(items))
	for i, it := range items {
		out[i] = it.Status
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
