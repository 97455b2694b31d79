// Package feed consumes the inspection event feed: a WebSocket that pushes
// agent progress events for one session.
//
// The connection is kept alive with a literal "ping" text frame on a fixed
// interval; the server answers "pong". Both literals are discarded before
// JSON decoding, and frames that are not valid event objects are dropped.
// A closed connection is retried after a fixed delay until the context is
// cancelled. Loss of the feed is never terminal.
package feed

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// Keepalive literals.
const (
	Ping = "ping"
	Pong = "pong"
)

// Agents and event types that matter to the inspector.
const (
	AgentComparison = "comparison"
	AgentReview     = "review"
	TypeComplete    = "complete"
	TypeError       = "error"
)

// Event is one message from the feed.
type Event struct {
	Agent    string          `json:"agent"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Received time.Time       `json:"received"`
}

// Completes reports whether the event marks new comparison or review
// results being available.
func (e Event) Completes() bool {
	return e.Type == TypeComplete && (e.Agent == AgentComparison || e.Agent == AgentReview)
}

// Decode parses a frame. Keepalive literals, malformed JSON and JSON that is
// not an event object all report false.
func Decode(frame []byte) (Event, bool) {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || string(frame) == Ping || string(frame) == Pong {
		return Event{}, false
	}
	if frame[0] != '{' {
		return Event{}, false
	}
	var e Event
	if err := json.Unmarshal(frame, &e); err != nil {
		return Event{}, false
	}
	if e.Agent == "" && e.Type == "" {
		return Event{}, false
	}
	return e, true
}
