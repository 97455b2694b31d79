// Package server implements the MCP (Model Context Protocol) server for drawing inspection.
//
// This package provides a JSON-RPC 2.0 server that exposes the overlay
// correlation engine through the MCP protocol: it loads inspection sessions,
// renders balloon and highlight overlays, correlates review findings to
// balloons and drives the shared selection the way a viewer would.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Drawings:
//   - drawing_load: Load a pane's raster; its size becomes the coordinate space
//   - drawing_zoom: Crop the raster around a highlight region
//
// Session:
//   - session_load: Replace the snapshot from a JSON file
//   - session_summary: Counts, status summary, flagged balloons
//   - session_refresh: Fetch the session from the inspection API
//   - session_review: Run the review pass and correlate its findings
//   - feed_events: Recent events from the inspection event feed
//
// Overlays:
//   - geometry_resolve: Coordinate space of a pane
//   - overlay_balloons: Balloon marker draw instructions
//   - overlay_highlight: Highlight spotlight draw instructions
//   - overlay_render: SVG or PNG rendering of a pane
//
// Findings:
//   - finding_match: Correlate a finding to a balloon with a score breakdown
//
// Selection:
//   - selection_click_balloon, selection_click_point, selection_click_finding
//   - selection_key, selection_escape, selection_state
//
// Reference:
//   - status_taxonomy: Labels, severities and colors of every status
//
// # Snapshot and Selection
//
// All tools read the current snapshot from a session.Store. Other sources
// (the REST refresher, the snapshot file watcher) may replace it at any
// time; the server subscribes to replacements and re-derives the selection
// from the new comparison items. Loading a different session clears the
// selection and the drawing cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Store: store, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
