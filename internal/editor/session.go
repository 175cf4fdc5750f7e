package editor

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

// Listener is called after every change with the new state and version.
// It runs outside the session lock and must not block for long.
type Listener func(s State, version uint64)

// Session owns one content tree for the duration of an editing session.
// All mutations go through Dispatch; readers get copies.
type Session struct {
	ID uuid.UUID

	mu           sync.Mutex
	pageID       *uuid.UUID
	state        State
	version      uint64
	savedVersion uint64
	lastActive   time.Time
	listeners    map[int]Listener
	nextListener int

	newID IDFunc
	now   func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithIDFunc replaces the element id generator (uuid strings by default).
func WithIDFunc(f IDFunc) Option {
	return func(s *Session) { s.newID = f }
}

// WithClock replaces the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession starts a session over tree. pageID is nil for a page that has
// not been saved yet.
func NewSession(pageID *uuid.UUID, tree content.Tree, opts ...Option) *Session {
	s := &Session{
		ID:        uuid.New(),
		pageID:    pageID,
		listeners: make(map[int]Listener),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if tree == nil {
		tree = content.Tree{}
	}
	s.state = State{Tree: tree.Clone()}
	s.lastActive = s.now()
	return s
}

// Dispatch applies a and reports whether the state changed. Listeners are
// notified only on change.
func (s *Session) Dispatch(a Action) (State, bool) {
	s.mu.Lock()
	next, changed := reduce(s.state, a, s.newID)
	s.lastActive = s.now()
	if !changed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	s.state = next
	s.version++
	snap, version, listeners := s.snapshotLocked(), s.version, s.listenersLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap, version)
	}
	return snap, true
}

// Reset replaces the tree, clears the selection and marks the session clean.
func (s *Session) Reset(tree content.Tree) {
	if tree == nil {
		tree = content.Tree{}
	}
	s.mu.Lock()
	s.state = State{Tree: tree.Clone()}
	s.version++
	s.savedVersion = s.version
	s.lastActive = s.now()
	snap, version, listeners := s.snapshotLocked(), s.version, s.listenersLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap, version)
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Snapshot returns a copy of the current state and the version it belongs to.
func (s *Session) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.version
}

// Version is a counter incremented by every change.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Dirty reports whether there are changes since the last successful save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.savedVersion
}

// MarkSaved records that the state at version was persisted as pageID.
// Changes dispatched after that version keep the session dirty.
func (s *Session) MarkSaved(version uint64, pageID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version > s.savedVersion {
		s.savedVersion = version
	}
	s.pageID = &pageID
}

// Saved is MarkSaved for a save that persisted stored, the tree as the page
// now holds it. When nothing was dispatched since version the session adopts
// stored, so it shows what the page holds; the selection is kept if it still
// resolves.
func (s *Session) Saved(version uint64, pageID uuid.UUID, stored content.Tree) {
	if stored == nil {
		stored = content.Tree{}
	}
	s.mu.Lock()
	s.pageID = &pageID
	if s.version != version {
		if version > s.savedVersion {
			s.savedVersion = version
		}
		s.mu.Unlock()
		return
	}
	if reflect.DeepEqual(s.state.Tree, stored) {
		s.savedVersion = s.version
		s.mu.Unlock()
		return
	}
	s.state = settle(State{Tree: stored.Clone(), Selection: s.state.Selection})
	s.version++
	s.savedVersion = s.version
	snap, next, listeners := s.snapshotLocked(), s.version, s.listenersLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap, next)
	}
}

// Page returns the id of the page the session edits, if saved.
func (s *Session) Page() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageID == nil {
		return uuid.Nil, false
	}
	return *s.pageID, true
}

// LastActive returns the time of the last dispatch or reset.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe registers l for change notifications. The returned function
// unregisters it.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) snapshotLocked() State {
	return State{Tree: s.state.Tree.Clone(), Selection: s.state.Selection}
}

func (s *Session) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
