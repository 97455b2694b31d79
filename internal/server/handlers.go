package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/goccy/go-json"

	"github.com/ironsheep/drawing-inspector/internal/correlate"
	"github.com/ironsheep/drawing-inspector/internal/geometry"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/overlay"
	"github.com/ironsheep/drawing-inspector/internal/render"
	"github.com/ironsheep/drawing-inspector/internal/selection"
	"github.com/ironsheep/drawing-inspector/internal/session"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

// Defaults for optional tool arguments.
const (
	defaultZoomPadding = 40.0
	defaultEventLimit  = 50
)

var (
	errNoRefresher = errors.New("no inspection API configured")
	errNoFeed      = errors.New("event feed is not running")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "session_load", "overlay_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) (resp *MCPResponse) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	// A panicking tool fails the call, not the server.
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("tool", params.Name).Interface("panic", r).Msg("tool panicked")
			resp = s.errorResponse(req.ID, -32000, "Tool execution failed", fmt.Sprintf("internal error: %v", r))
		}
	}()

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Reads the current snapshot and selection as needed
//  4. Calls the engine packages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Drawings
	case "drawing_load":
		return s.handleDrawingLoad(args)
	case "drawing_zoom":
		return s.handleDrawingZoom(args)

	// Session
	case "session_load":
		return s.handleSessionLoad(args)
	case "session_summary":
		return s.handleSessionSummary()
	case "session_refresh":
		return s.handleSessionRefresh(ctx)
	case "session_review":
		return s.handleSessionReview(ctx)
	case "feed_events":
		return s.handleFeedEvents(args)

	// Overlays
	case "geometry_resolve":
		return s.handleGeometryResolve(args)
	case "overlay_balloons":
		return s.handleOverlayBalloons(args)
	case "overlay_highlight":
		return s.handleOverlayHighlight(args)
	case "overlay_render":
		return s.handleOverlayRender(args)

	// Findings
	case "finding_match":
		return s.handleFindingMatch(args)

	// Selection
	case "selection_click_balloon":
		return s.handleSelectionClickBalloon(args)
	case "selection_click_point":
		return s.handleSelectionClickPoint(args)
	case "selection_click_finding":
		return s.handleSelectionClickFinding(args)
	case "selection_key":
		return s.handleSelectionKey(args)
	case "selection_escape":
		return s.sel.Escape(), nil
	case "selection_state":
		return s.sel.State(), nil

	// Reference
	case "status_taxonomy":
		return s.handleStatusTaxonomy(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Absent arguments leave v at its
// zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// drawingSource returns where the drawing for a side comes from: an
// explicitly loaded path, else the snapshot's image reference.
func (s *Server) drawingSource(side model.Side) string {
	s.mu.Lock()
	src := s.drawings[side]
	s.mu.Unlock()
	if src != "" {
		return src
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return ""
	}
	return snap.Image(side)
}

// pane assembles the current view of one side. Only drawings that have
// already been loaded contribute their size.
func (s *Server) pane(sideName string) (render.Pane, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return render.Pane{}, err
	}
	side := model.ParseSide(sideName)
	return render.NewPane(snap, side, s.sel.State(), s.loadedDrawing(side)), nil
}

func (s *Server) loadedDrawing(side model.Side) image.Image {
	src := s.drawingSource(side)
	if src == "" {
		return nil
	}
	if img, ok := s.cache.Get(src); ok {
		return img
	}
	return nil
}

// === Drawing Handlers ===

type drawingLoadArgs struct {
	Side string `json:"side"`
	Path string `json:"path"`
}

type drawingLoadResult struct {
	Side   model.Side `json:"side"`
	Source string     `json:"source"`
	imaging.DrawingInfo
}

func (s *Server) handleDrawingLoad(args json.RawMessage) (interface{}, error) {
	var a drawingLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	side := model.ParseSide(a.Side)
	src := a.Path
	if src == "" {
		src = s.drawingSource(side)
	}
	if src == "" {
		return nil, fmt.Errorf("no drawing known for the %s side; pass a path", side)
	}

	info, err := imaging.LoadDrawingInfo(s.cache, src)
	if err != nil {
		return nil, err
	}
	if a.Path != "" {
		s.mu.Lock()
		s.drawings[side] = a.Path
		s.mu.Unlock()
	}
	return drawingLoadResult{Side: side, Source: src, DrawingInfo: *info}, nil
}

type drawingZoomArgs struct {
	Side    string   `json:"side"`
	Balloon *int     `json:"balloon"`
	Padding *float64 `json:"padding"`
	Scale   float64  `json:"scale"`
}

func (s *Server) handleDrawingZoom(args json.RawMessage) (interface{}, error) {
	var a drawingZoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	padding := defaultZoomPadding
	if a.Padding != nil {
		padding = *a.Padding
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	side := model.ParseSide(a.Side)

	var region *model.Region
	if a.Balloon != nil {
		item, ok := model.FindItem(snap.Items, *a.Balloon)
		if !ok {
			return nil, fmt.Errorf("no comparison item for balloon %d", *a.Balloon)
		}
		region = item.RegionFor(side)
	} else {
		region = s.sel.State().Highlight.Region(side)
	}
	if region == nil {
		return nil, fmt.Errorf("no highlight region on the %s side", side)
	}

	src := s.drawingSource(side)
	if src == "" {
		return nil, fmt.Errorf("no drawing known for the %s side", side)
	}
	img, err := s.cache.Load(src)
	if err != nil {
		return nil, err
	}
	return imaging.ZoomRegion(img, *region, imaging.SizeOf(img), padding, a.Scale)
}

// === Session Handlers ===

type sessionLoadArgs struct {
	Path string `json:"path"`
}

type sessionSummary struct {
	session.Info
	SessionID       string         `json:"session_id"`
	MasterBalloons  int            `json:"master_balloons"`
	CheckBalloons   int            `json:"check_balloons"`
	Items           int            `json:"items"`
	Status          status.Summary `json:"status"`
	FlaggedBalloons []int          `json:"flagged_balloons"`
	Findings        int            `json:"findings"`
}

func (s *Server) summary() (*sessionSummary, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return &sessionSummary{
		Info:            s.store.Info(),
		SessionID:       snap.SessionID,
		MasterBalloons:  len(snap.Master),
		CheckBalloons:   len(snap.Check),
		Items:           len(snap.Items),
		Status:          status.Summarize(model.Statuses(snap.Items)),
		FlaggedBalloons: selection.Flagged(snap.Items),
		Findings:        snap.Review.Count(),
	}, nil
}

func (s *Server) handleSessionLoad(args json.RawMessage) (interface{}, error) {
	var a sessionLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	snap, err := session.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	s.store.Replace(snap, a.Path)
	return s.summary()
}

func (s *Server) handleSessionSummary() (interface{}, error) {
	return s.summary()
}

func (s *Server) handleSessionRefresh(ctx context.Context) (interface{}, error) {
	if s.refresher == nil {
		return nil, errNoRefresher
	}
	if _, err := s.refresher.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.summary()
}

func (s *Server) handleSessionReview(ctx context.Context) (interface{}, error) {
	if s.refresher == nil {
		return nil, errNoRefresher
	}
	review, err := s.refresher.Review(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"review":  review,
		"matches": correlate.MatchAll(review, snap.Items),
	}, nil
}

type feedEventsArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleFeedEvents(args json.RawMessage) (interface{}, error) {
	var a feedEventsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.events == nil {
		return nil, errNoFeed
	}
	if a.Limit <= 0 {
		a.Limit = defaultEventLimit
	}
	result := map[string]interface{}{
		"events": s.events.Last(a.Limit),
		"total":  s.events.Total(),
	}
	if s.feed != nil {
		result["stats"] = s.feed.Stats()
	}
	return result, nil
}

// === Overlay Handlers ===

type sideArgs struct {
	Side string `json:"side"`
}

type geometryResult struct {
	Side   model.Side `json:"side"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Loaded bool       `json:"loaded"`
}

func (s *Server) handleGeometryResolve(args json.RawMessage) (interface{}, error) {
	var a sideArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pane(a.Side)
	if err != nil {
		return nil, err
	}
	return geometryResult{Side: p.Side, Width: p.Space.Width, Height: p.Space.Height, Loaded: p.Loaded}, nil
}

type overlayBalloonsArgs struct {
	Side    string `json:"side"`
	Hovered *int   `json:"hovered"`
}

type layerResult struct {
	Side         model.Side            `json:"side"`
	Space        geometry.Size         `json:"space"`
	Instructions []overlay.Instruction `json:"instructions"`
}

func (s *Server) handleOverlayBalloons(args json.RawMessage) (interface{}, error) {
	var a overlayBalloonsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pane(a.Side)
	if err != nil {
		return nil, err
	}
	p.Hovered = a.Hovered
	return layerResult{Side: p.Side, Space: p.Space, Instructions: nonNil(p.BalloonLayer())}, nil
}

type highlightResult struct {
	layerResult
	Region *model.Region `json:"region"`
	Status status.Kind   `json:"status,omitempty"`
	Label  string        `json:"label,omitempty"`
}

func (s *Server) handleOverlayHighlight(args json.RawMessage) (interface{}, error) {
	var a sideArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pane(a.Side)
	if err != nil {
		return nil, err
	}
	res := highlightResult{
		layerResult: layerResult{Side: p.Side, Space: p.Space, Instructions: nonNil(p.HighlightLayer())},
		Region:      p.Region,
	}
	if p.Region != nil {
		res.Status = p.Status
		res.Label = p.Label
	}
	return res, nil
}

type overlayRenderArgs struct {
	Side       string `json:"side"`
	Format     string `json:"format"`
	Hovered    *int   `json:"hovered"`
	Static     bool   `json:"static"`
	Background bool   `json:"background"`
	Output     string `json:"output"`
}

type renderResult struct {
	Side   model.Side `json:"side"`
	Format string     `json:"format"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Output string     `json:"output,omitempty"`
	SVG    string     `json:"svg,omitempty"`

	Image *imaging.ImageResult `json:"image,omitempty"`
}

func (s *Server) handleOverlayRender(args json.RawMessage) (interface{}, error) {
	var a overlayRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = "svg"
	}
	p, err := s.pane(a.Side)
	if err != nil {
		return nil, err
	}
	p.Hovered = a.Hovered
	res := renderResult{Side: p.Side, Format: a.Format, Width: p.Space.Width, Height: p.Space.Height, Output: a.Output}

	var buf bytes.Buffer
	switch a.Format {
	case "svg":
		opts := render.SVGOptions{Static: a.Static}
		if a.Background {
			opts.Background = s.drawingSource(p.Side)
		}
		if err := p.WriteSVG(&buf, opts); err != nil {
			return nil, err
		}
		if a.Output == "" {
			res.SVG = buf.String()
			return res, nil
		}
	case "png":
		if a.Output == "" {
			layer, err := render.Rasterize(p.Space, p.Layers()...)
			if err != nil {
				return nil, err
			}
			img, err := imaging.EncodePNG(imaging.Compose(p.Drawing, layer))
			if err != nil {
				return nil, err
			}
			res.Image = img
			return res, nil
		}
		if err := p.WritePNG(&buf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q: expected svg or png", a.Format)
	}

	if err := os.WriteFile(a.Output, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", a.Output, err)
	}
	return res, nil
}

// === Finding Handlers ===

type findingMatchArgs struct {
	Category string         `json:"category"`
	Index    int            `json:"index"`
	Finding  *model.Finding `json:"finding"`
	All      bool           `json:"all"`
}

type findingMatchResult struct {
	Key      string           `json:"key,omitempty"`
	Category model.Category   `json:"category"`
	Finding  model.Finding    `json:"finding"`
	Result   correlate.Result `json:"result"`
}

func (s *Server) handleFindingMatch(args json.RawMessage) (interface{}, error) {
	var a findingMatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if a.All {
		return correlate.MatchAll(snap.Review, snap.Items), nil
	}

	cat, err := model.ParseCategory(a.Category)
	if err != nil {
		return nil, err
	}
	res := findingMatchResult{Category: cat}
	if a.Finding != nil {
		res.Finding = *a.Finding
	} else {
		f, ok := snap.Review.Finding(cat, a.Index)
		if !ok {
			return nil, fmt.Errorf("no %s finding at index %d", cat, a.Index)
		}
		res.Key = correlate.Key(cat, a.Index)
		res.Finding = f
	}
	res.Result = correlate.Explain(res.Finding, snap.Items, cat)
	return res, nil
}

// === Selection Handlers ===

type clickBalloonArgs struct {
	Balloon int    `json:"balloon"`
	Source  string `json:"source"`
}

func (s *Server) handleSelectionClickBalloon(args json.RawMessage) (interface{}, error) {
	var a clickBalloonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	s.log.Debug().Int("balloon", a.Balloon).Str("source", a.Source).Msg("click")
	if a.Source == "row" {
		return s.sel.ClickRow(a.Balloon), nil
	}
	return s.sel.ClickBalloon(a.Balloon), nil
}

type clickPointArgs struct {
	Side string  `json:"side"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type clickPointResult struct {
	Hit     bool            `json:"hit"`
	Balloon *int            `json:"balloon"`
	State   selection.State `json:"state"`
}

func (s *Server) handleSelectionClickPoint(args json.RawMessage) (interface{}, error) {
	var a clickPointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pane(a.Side)
	if err != nil {
		return nil, err
	}
	n, ok := p.HitTest(a.X, a.Y)
	if !ok {
		return clickPointResult{State: s.sel.State()}, nil
	}
	return clickPointResult{Hit: true, Balloon: &n, State: s.sel.ClickBalloon(n)}, nil
}

type clickFindingArgs struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
}

func (s *Server) handleSelectionClickFinding(args json.RawMessage) (interface{}, error) {
	var a clickFindingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cat, err := model.ParseCategory(a.Category)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	f, ok := snap.Review.Finding(cat, a.Index)
	if !ok {
		return nil, fmt.Errorf("no %s finding at index %d", cat, a.Index)
	}
	return s.sel.ClickFinding(cat, a.Index, f), nil
}

type selectionKeyArgs struct {
	Key         string `json:"key"`
	InTextInput bool   `json:"in_text_input"`
}

func (s *Server) handleSelectionKey(args json.RawMessage) (interface{}, error) {
	var a selectionKeyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.sel.Key(a.Key, a.InTextInput), nil
}

// === Reference Handlers ===

func (s *Server) handleStatusTaxonomy() []status.StyleJSON {
	styles := status.Styles()
	out := make([]status.StyleJSON, 0, len(styles))
	for _, st := range styles {
		out = append(out, st.JSON())
	}
	return out
}

func nonNil(ins []overlay.Instruction) []overlay.Instruction {
	if ins == nil {
		return []overlay.Instruction{}
	}
	return ins
}
