package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var sideProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"master", "check"},
	"description": "Which drawing pane to use. Default master",
	"default":     "master",
}

var categoryProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"missing_dim", "missing_tol", "modified"},
	"description": "Finding category",
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func sideOnly() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"side": sideProperty,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Drawings
		{
			Name:        "drawing_load",
			Description: "Load the drawing raster for a pane and return its dimensions and format. Once loaded, the raster size becomes the pane's coordinate space.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": sideProperty,
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image file path or http(s) URL. Defaults to the session's image for the side",
					},
				},
			},
		},
		{
			Name:        "drawing_zoom",
			Description: "Crop the drawing around a highlight region and return it as base64-encoded PNG. Uses the current selection's region unless a balloon is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": sideProperty,
					"balloon": map[string]interface{}{
						"type":        "integer",
						"description": "Balloon number whose comparison region to zoom on",
					},
					"padding": map[string]interface{}{
						"type":        "number",
						"description": "Margin around the region in drawing units. Default 40",
						"default":     defaultZoomPadding,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
			},
		},

		// Session
		{
			Name:        "session_load",
			Description: "Load an inspection snapshot (balloons, comparison items, review result) from a JSON file, replacing the current one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the snapshot JSON file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "session_summary",
			Description: "Summarize the current snapshot: balloon and item counts, status counts, flagged balloons and review findings.",
			InputSchema: noArgs(),
		},
		{
			Name:        "session_refresh",
			Description: "Fetch the session from the inspection API now and replace the snapshot.",
			InputSchema: noArgs(),
		},
		{
			Name:        "session_review",
			Description: "Ask the inspection API to run the review pass, store the findings and correlate each one to a balloon.",
			InputSchema: noArgs(),
		},
		{
			Name:        "feed_events",
			Description: "Return the most recent events received from the inspection event feed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of events. Default 50",
						"default":     defaultEventLimit,
					},
				},
			},
		},

		// Overlays
		{
			Name:        "geometry_resolve",
			Description: "Resolve the coordinate space of a pane from its loaded raster, or from its balloons and highlight region when no raster has loaded.",
			InputSchema: sideOnly(),
		},
		{
			Name:        "overlay_balloons",
			Description: "Return the draw instructions for a pane's balloon markers, leader lines, pulse ring and tooltips.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": sideProperty,
					"hovered": map[string]interface{}{
						"type":        "integer",
						"description": "Balloon number under the pointer, to show its tooltip",
					},
				},
			},
		},
		{
			Name:        "overlay_highlight",
			Description: "Return the draw instructions for the active highlight on a pane: dimming mask, region border, corner brackets and badge. Empty when nothing is highlighted there.",
			InputSchema: sideOnly(),
		},
		{
			Name:        "overlay_render",
			Description: "Render a pane's overlays as an SVG document or as a PNG composited onto the loaded drawing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": sideProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"svg", "png"},
						"description": "Output format. Default svg",
						"default":     "svg",
					},
					"hovered": map[string]interface{}{
						"type":        "integer",
						"description": "Balloon number under the pointer",
					},
					"static": map[string]interface{}{
						"type":        "boolean",
						"description": "Freeze SVG animations at their first frame",
						"default":     false,
					},
					"background": map[string]interface{}{
						"type":        "boolean",
						"description": "Reference the drawing image beneath the SVG overlay",
						"default":     false,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Write to this file instead of returning the document",
					},
				},
			},
		},

		// Findings
		{
			Name:        "finding_match",
			Description: "Correlate a review finding to the most likely balloon and explain the score of every candidate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": categoryProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the finding within its category in the current review",
					},
					"finding": map[string]interface{}{
						"type":        "object",
						"description": "Ad-hoc finding to match instead of one from the review",
						"properties": map[string]interface{}{
							"location":     map[string]interface{}{"type": "string"},
							"description":  map[string]interface{}{"type": "string"},
							"value":        map[string]interface{}{"type": []string{"string", "number", "null"}},
							"master_value": map[string]interface{}{"type": []string{"string", "number", "null"}},
							"check_value":  map[string]interface{}{"type": []string{"string", "number", "null"}},
						},
					},
					"all": map[string]interface{}{
						"type":        "boolean",
						"description": "Match every finding of the current review",
						"default":     false,
					},
				},
			},
		},

		// Selection
		{
			Name:        "selection_click_balloon",
			Description: "Click a balloon marker or comparison table row. Clicking the selected balloon again clears the selection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"balloon": map[string]interface{}{
						"type":        "integer",
						"description": "Balloon number",
					},
					"source": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"balloon", "row"},
						"description": "What was clicked. Default balloon",
						"default":     "balloon",
					},
				},
				"required": []string{"balloon"},
			},
		},
		{
			Name:        "selection_click_point",
			Description: "Click a point on a pane. Selects the balloon whose marker contains the point; misses leave the selection unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side": sideProperty,
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X in the pane's coordinate space",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y in the pane's coordinate space",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "selection_click_finding",
			Description: "Click a review finding. Selects it and the balloon it correlates to; clicking it again clears the selection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": categoryProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the finding within its category",
					},
				},
				"required": []string{"category", "index"},
			},
		},
		{
			Name:        "selection_key",
			Description: "Send a keyboard key. ArrowDown/n and ArrowUp/p cycle through flagged balloons, Escape clears the selection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Key name, e.g. ArrowDown, n, Escape",
					},
					"in_text_input": map[string]interface{}{
						"type":        "boolean",
						"description": "The key was typed into a text input and must be ignored",
						"default":     false,
					},
				},
				"required": []string{"key"},
			},
		},
		{
			Name:        "selection_escape",
			Description: "Clear the selection.",
			InputSchema: noArgs(),
		},
		{
			Name:        "selection_state",
			Description: "Return the current selection, its highlight and the finding banner.",
			InputSchema: noArgs(),
		},

		// Reference
		{
			Name:        "status_taxonomy",
			Description: "List every comparison status with its label, severity and colors.",
			InputSchema: noArgs(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
