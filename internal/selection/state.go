// Package selection reconciles balloon clicks, table-row clicks, finding
// clicks and keyboard navigation into one authoritative selection.
//
// The Coordinator is a small state machine with three phases: idle, a
// selected balloon, or a selected review finding. The active highlight and
// the finding banner are derived from the phase and the current comparison
// items every time they are read; nothing mutates them directly, so at most
// one highlight can ever be active.
package selection

import (
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Phase is the coordinator's state.
type Phase string

const (
	Idle            Phase = "idle"
	BalloonSelected Phase = "balloon_selected"
	FindingSelected Phase = "finding_selected"
)

// Synthetic is a highlight built from a finding rather than an item.
type Synthetic struct {
	Location string         `json:"location"`
	Value    string         `json:"value"`
	Category model.Category `json:"category"`
}

// Highlight is the single emphasized element. Exactly one of Item and
// Finding is set.
type Highlight struct {
	Item    *model.ComparisonItem `json:"item,omitempty"`
	Finding *Synthetic            `json:"finding,omitempty"`
}

// Status returns the status the highlight is drawn with. Finding
// highlights have no item and use the fail palette.
func (h *Highlight) Status() status.Kind {
	if h == nil || h.Item == nil {
		return status.Fail
	}
	return h.Item.Status
}

// Region returns the area to spotlight on a pane, nil when the highlight
// has no geometry there. Finding highlights never have geometry.
func (h *Highlight) Region(side model.Side) *model.Region {
	if h == nil || h.Item == nil {
		return nil
	}
	return h.Item.RegionFor(side)
}

// Banner is the textual notice shown while a finding is selected.
type Banner struct {
	Key         string         `json:"key"`
	Category    model.Category `json:"category"`
	Location    string         `json:"location"`
	Description string         `json:"description,omitempty"`
	Value       string         `json:"value"`
	Balloon     *int           `json:"balloon"`
}

// State is a snapshot of the coordinator. Version increases on every
// transition that changes anything.
type State struct {
	Phase      Phase      `json:"phase"`
	Balloon    *int       `json:"balloon"`
	FindingKey string     `json:"finding_key,omitempty"`
	Highlight  *Highlight `json:"highlight"`
	Banner     *Banner    `json:"banner"`
	Version    uint64     `json:"version"`
}
