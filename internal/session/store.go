// Package session holds the current inspection snapshot and keeps it fresh.
//
// A Store owns the one authoritative Snapshot. Sources replace it wholesale:
// a Refresher polling the inspection REST API, a FileWatcher following a
// snapshot file on disk, or a direct load. The most recent replacement wins;
// there are no partial updates.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ironsheep/drawing-inspector/internal/model"
)

// ErrNoSnapshot is returned when nothing has been loaded yet.
var ErrNoSnapshot = errors.New("no session snapshot loaded")

// Info describes the current snapshot.
type Info struct {
	Version  uint64    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Store holds the current snapshot. It is safe for concurrent use.
//
// Writers are serialized by wmu, which is held from install until every
// watcher has returned, so watchers observe replacements in version order
// and a watcher never sees an older snapshot after a newer one. Watchers
// may read the store but must not replace it.
type Store struct {
	wmu      sync.Mutex
	mu       sync.RWMutex
	snap     *model.Snapshot
	info     Info
	watchers []func(*model.Snapshot)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace installs snap as the current snapshot and notifies subscribers.
// The snapshot must already be normalized (the model decoders do this) and
// must not be modified afterwards.
func (s *Store) Replace(snap *model.Snapshot, source string) uint64 {
	v, _ := s.Update(source, func(*model.Snapshot) *model.Snapshot { return snap })
	return v
}

// Update derives the next snapshot from the current one (nil when empty)
// and installs it. No other write can happen between reading prev and
// installing the result. Returning nil from fn leaves the store untouched;
// Update then reports false.
func (s *Store) Update(source string, fn func(prev *model.Snapshot) *model.Snapshot) (uint64, bool) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.RLock()
	prev := s.snap
	s.mu.RUnlock()

	next := fn(prev)
	if next == nil {
		return 0, false
	}

	s.mu.Lock()
	s.snap = next
	s.info = Info{Version: s.info.Version + 1, Source: source, LoadedAt: time.Now()}
	v := s.info.Version
	watchers := append([]func(*model.Snapshot){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(next)
	}
	return v, true
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoSnapshot
	}
	return s.snap, nil
}

// Info returns metadata about the current snapshot.
func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// OnReplace registers fn to run after every replacement. Watchers run in
// registration order, outside the read lock.
func (s *Store) OnReplace(fn func(*model.Snapshot)) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// Subscribe registers fn like OnReplace and, when a snapshot is already
// loaded, calls it once with that snapshot before any later replacement
// can be delivered.
func (s *Store) Subscribe(fn func(*model.Snapshot)) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	cur := s.snap
	s.mu.Unlock()
	if cur != nil {
		fn(cur)
	}
}

// LoadFile reads a snapshot document from disk.
func LoadFile(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}
