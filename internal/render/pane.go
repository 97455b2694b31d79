package render

import (
	"image"
	"io"

	"github.com/ironsheep/drawing-inspector/internal/correlate"
	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
	"github.com/ironsheep/drawing-inspector/internal/selection"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Pane is everything drawn over one drawing: its balloons, the selection's
// highlight and the resolved coordinate space.
type Pane struct {
	Side     model.Side
	Balloons []model.Balloon
	Drawing  image.Image
	Space    geometry.Size
	// Loaded reports whether Space came from the drawing raster.
	Loaded bool

	Highlighted *int
	Hovered     *int
	Region      *model.Region
	Status      status.Kind
	Label       string
}

// NewPane derives a pane from a snapshot and a selection state. drawing is
// the decoded raster for the side, or nil while it has not loaded.
func NewPane(snap *model.Snapshot, side model.Side, st selection.State, drawing image.Image) Pane {
	p := Pane{
		Side:        side,
		Balloons:    snap.Balloons(side),
		Drawing:     drawing,
		Highlighted: st.Balloon,
		Region:      st.Highlight.Region(side),
		Status:      st.Highlight.Status(),
		Label:       highlightLabel(st, snap.Review),
	}

	var loaded *geometry.Size
	if drawing != nil {
		size := imaging.SizeOf(drawing)
		loaded = &size
		p.Loaded = size.Known()
	}
	p.Space = geometry.Resolve(p.Balloons, p.Region, loaded)
	return p
}

// HighlightLayer returns the spotlight instructions, empty when the
// selection has no region on this side.
func (p Pane) HighlightLayer() []overlay.Instruction {
	return overlay.RenderHighlight(p.Region, p.Status, p.Label, p.Space)
}

// BalloonLayer returns the balloon marker instructions.
func (p Pane) BalloonLayer() []overlay.Instruction {
	return overlay.RenderBalloons(p.Balloons, p.Highlighted, p.Hovered, p.Space)
}

// Layers returns the pane's layers bottom to top. Balloons stay above the
// mask so they remain readable and clickable.
func (p Pane) Layers() [][]overlay.Instruction {
	return [][]overlay.Instruction{p.HighlightLayer(), p.BalloonLayer()}
}

// HitTest returns the balloon under a point of the pane.
func (p Pane) HitTest(x, y float64) (int, bool) {
	return overlay.HitTest(p.Balloons, p.Highlighted, x, y)
}

// WriteSVG renders the pane as an SVG document.
func (p Pane) WriteSVG(w io.Writer, opts SVGOptions) error {
	return SVG(w, p.Space, opts, p.Layers()...)
}

// WritePNG renders the pane composited onto its drawing.
func (p Pane) WritePNG(w io.Writer) error {
	return PNG(w, p.Space, p.Drawing, p.Layers()...)
}

// highlightLabel is the badge text for the selection: the finding when one
// is selected, otherwise the item.
func highlightLabel(st selection.State, review *model.ReviewResult) string {
	h := st.Highlight
	if h == nil || h.Item == nil {
		return ""
	}
	if st.Banner != nil {
		if cat, idx, err := correlate.ParseKey(st.Banner.Key); err == nil {
			if f, ok := review.Finding(cat, idx); ok {
				return overlay.FindingLabel(cat, f)
			}
		}
	}
	return overlay.HighlightLabel(*h.Item)
}
