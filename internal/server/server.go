package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ironsheep/drawing-inspector/internal/feed"
	"github.com/ironsheep/drawing-inspector/internal/imaging"
	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/selection"
	"github.com/ironsheep/drawing-inspector/internal/session"
)

const (
	serverName    = "drawing-inspector"
	serverVersion = "0.1.0"
)

// Options wires the server to the rest of the process. Only Store is
// required.
type Options struct {
	Store *session.Store

	// Refresher enables the session_refresh and session_review tools.
	Refresher *session.Refresher

	// Events and Feed back the feed_events tool.
	Events *feed.Log
	Feed   *feed.Client

	Logger zerolog.Logger
}

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.DrawingCache
	store     *session.Store
	sel       *selection.Coordinator
	refresher *session.Refresher
	events    *feed.Log
	feed      *feed.Client
	log       zerolog.Logger

	// drawings overrides the snapshot's image source per side.
	mu       sync.Mutex
	drawings map[model.Side]string
	session  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance. The selection follows every
// snapshot replacement in the store.
func New(opts Options) *Server {
	store := opts.Store
	if store == nil {
		store = session.NewStore()
	}
	s := &Server{
		cache:     imaging.NewDrawingCache(),
		store:     store,
		sel:       selection.New(nil),
		refresher: opts.Refresher,
		events:    opts.Events,
		feed:      opts.Feed,
		log:       opts.Logger.With().Str("component", "server").Logger(),
		drawings:  make(map[model.Side]string),
	}
	store.Subscribe(s.onReplace)
	return s
}

// onReplace keeps the selection in step with the store. A different
// session drops the selection and the cached drawings; a refresh of the
// same session keeps the selection and re-derives its highlight.
func (s *Server) onReplace(snap *model.Snapshot) {
	s.mu.Lock()
	changed := s.session != snap.SessionID
	s.session = snap.SessionID
	if changed {
		s.drawings = make(map[model.Side]string)
	}
	s.mu.Unlock()

	if changed {
		s.cache.Clear()
		s.sel.Reset(snap.Items)
		s.log.Info().Str("session", snap.SessionID).Int("items", len(snap.Items)).Msg("session changed")
		return
	}
	st := s.sel.SetItems(snap.Items)
	s.log.Debug().Str("phase", string(st.Phase)).Uint64("version", st.Version).Msg("selection re-derived")
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is done. Requests are handled one at a time
// on the calling goroutine; only the blocking reads happen elsewhere, so a
// cancelled ctx ends Serve even while r has nothing to deliver.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	encoder := json.NewEncoder(w)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("server stopping: context done")
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error().Err(err).Msg("failed to encode response")
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		},
	}
}
