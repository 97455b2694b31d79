package model

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Snapshot is one complete view of an inspection session. Refreshes replace
// the whole snapshot; there are no partial updates.
type Snapshot struct {
	SessionID   string           `json:"session_id,omitempty"`
	Master      []Balloon        `json:"master_balloons"`
	Check       []Balloon        `json:"check_balloons"`
	Items       []ComparisonItem `json:"comparison"`
	Review      *ReviewResult    `json:"review,omitempty"`
	MasterImage string           `json:"master_image,omitempty"`
	CheckImage  string           `json:"check_image,omitempty"`
}

// Balloons returns the balloon set for one side.
func (s *Snapshot) Balloons(side Side) []Balloon {
	if s == nil {
		return nil
	}
	if side == SideCheck {
		return s.Check
	}
	return s.Master
}

// Image returns the drawing image path for one side, if known.
func (s *Snapshot) Image(side Side) string {
	if s == nil {
		return ""
	}
	if side == SideCheck {
		return s.CheckImage
	}
	return s.MasterImage
}

// Normalize applies record invariants to every balloon and item.
func (s *Snapshot) Normalize() {
	normalizeBalloons(s.Master)
	normalizeBalloons(s.Check)
	for i := range s.Items {
		s.Items[i].Normalize()
	}
}

// DrawingBalloons is the balloon payload served per drawing.
type DrawingBalloons struct {
	DrawingID string    `json:"drawing_id"`
	Balloons  []Balloon `json:"balloons"`
}

// DecodeSnapshot parses and normalizes a snapshot document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// DecodeItems parses a comparison item list.
func DecodeItems(data []byte) ([]ComparisonItem, error) {
	var items []ComparisonItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode comparison items: %w", err)
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

// DecodeDrawingBalloons parses a per-drawing balloon payload.
func DecodeDrawingBalloons(data []byte) (*DrawingBalloons, error) {
	var db DrawingBalloons
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decode balloons: %w", err)
	}
	normalizeBalloons(db.Balloons)
	return &db, nil
}

// DecodeReview parses a review result.
func DecodeReview(data []byte) (*ReviewResult, error) {
	var r ReviewResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	return &r, nil
}

func normalizeBalloons(bs []Balloon) {
	for i := range bs {
		if bs[i].Status == "" {
			bs[i].Status = status.Pending
		}
	}
}
