package editor

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSession_DispatchVersionsAndDirty(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))

	if s.Dirty() || s.Version() != 0 {
		t.Fatalf("new session: dirty=%v version=%d", s.Dirty(), s.Version())
	}

	state, changed := s.Dispatch(AddSection{Layout: content.LayoutTwo})
	if !changed {
		t.Fatal("expected a change")
	}
	if len(state.Tree) != 1 {
		t.Fatalf("sections: got %d", len(state.Tree))
	}
	if s.Version() != 1 || !s.Dirty() {
		t.Errorf("after change: dirty=%v version=%d", s.Dirty(), s.Version())
	}

	if _, changed := s.Dispatch(RemoveSection{SectionID: "missing"}); changed {
		t.Error("no-op reported as change")
	}
	if s.Version() != 1 {
		t.Errorf("no-op bumped version to %d", s.Version())
	}
}

func TestSession_StateIsACopy(t *testing.T) {
	s := NewSession(nil, content.Tree{content.NewSection(content.LayoutOne, counterIDs())})

	got := s.State()
	got.Tree[0].Layout = content.LayoutThree
	got.Tree[0].Columns[0].Width = "changed"

	again := s.State()
	if again.Tree[0].Layout != content.LayoutOne || again.Tree[0].Columns[0].Width != content.WidthFull {
		t.Error("caller mutation leaked into the session")
	}
}

func TestSession_SavedAdoptsStoredTree(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))
	s.Dispatch(AddSection{Layout: content.LayoutOne})
	st := s.State()
	sec := st.Tree[0]
	s.Dispatch(AddBlock{SectionID: sec.ID, ColumnID: sec.Columns[0].ID, Type: content.BlockText})
	blockID := s.State().Selection.BlockID
	s.Dispatch(UpdateBlock{SectionID: sec.ID, ColumnID: sec.Columns[0].ID, BlockID: blockID,
		Changes: BlockPatch{Content: ptr("<p>hi</p><script>x()</script>")}})

	var notified []uint64
	s.Subscribe(func(_ State, v uint64) { notified = append(notified, v) })

	saved, version := s.Snapshot()
	stored := saved.Tree.Clone()
	stored[0].Columns[0].Blocks[0].Content = "<p>hi</p>"

	pageID := uuid.New()
	s.Saved(version, pageID, stored)

	got := s.State()
	if got.Tree[0].Columns[0].Blocks[0].Content != "<p>hi</p>" {
		t.Errorf("content: got %q", got.Tree[0].Columns[0].Blocks[0].Content)
	}
	if got.Selection.BlockID != blockID {
		t.Errorf("selection lost: %+v", got.Selection)
	}
	if s.Dirty() {
		t.Error("expected clean session")
	}
	if len(notified) != 1 || notified[0] != s.Version() {
		t.Errorf("listeners: got %v, version %d", notified, s.Version())
	}
	if id, ok := s.Page(); !ok || id != pageID {
		t.Errorf("page: got %v %v", id, ok)
	}

	// An identical stored tree changes nothing.
	before := s.Version()
	s.Saved(before, pageID, s.State().Tree)
	if s.Version() != before || len(notified) != 1 {
		t.Errorf("identical save bumped version to %d", s.Version())
	}
}

func TestSession_SavedKeepsNewerEdits(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))
	s.Dispatch(AddSection{Layout: content.LayoutOne})
	saved, version := s.Snapshot()
	s.Dispatch(AddSection{Layout: content.LayoutTwo})

	s.Saved(version, uuid.New(), saved.Tree)
	if len(s.State().Tree) != 2 {
		t.Errorf("newer edits were discarded: %d sections", len(s.State().Tree))
	}
	if !s.Dirty() {
		t.Error("changes after the saved version must keep the session dirty")
	}
}

func TestSession_MarkSaved(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))
	s.Dispatch(AddSection{Layout: content.LayoutOne})
	_, version := s.Snapshot()

	s.Dispatch(AddSection{Layout: content.LayoutTwo})

	pageID := uuid.New()
	s.MarkSaved(version, pageID)
	if !s.Dirty() {
		t.Error("changes after the saved version must keep the session dirty")
	}
	if got, ok := s.Page(); !ok || got != pageID {
		t.Errorf("page: got %v %v", got, ok)
	}

	s.MarkSaved(s.Version(), pageID)
	if s.Dirty() {
		t.Error("expected clean session")
	}

	s.MarkSaved(version, pageID)
	if s.Dirty() {
		t.Error("an older save must not make the session dirty again")
	}
}

func TestSession_ResetIsClean(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))
	s.Dispatch(AddSection{Layout: content.LayoutOne})

	s.Reset(content.Tree{})
	if s.Dirty() {
		t.Error("reset session should be clean")
	}
	state := s.State()
	if len(state.Tree) != 0 || !state.Selection.IsZero() {
		t.Errorf("state after reset: %+v", state)
	}
}

func TestSession_Listeners(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))

	var (
		mu       sync.Mutex
		versions []uint64
	)
	unsubscribe := s.Subscribe(func(st State, v uint64) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, v)
	})

	s.Dispatch(AddSection{Layout: content.LayoutOne})
	s.Dispatch(ClearSelection{})
	s.Dispatch(ClearSelection{})
	unsubscribe()
	s.Dispatch(AddSection{Layout: content.LayoutOne})

	mu.Lock()
	defer mu.Unlock()
	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("notified versions: got %v, want [1 2]", versions)
	}
}

func TestSession_ListenerMayReadSession(t *testing.T) {
	s := NewSession(nil, nil, WithIDFunc(counterIDs()))
	done := make(chan uint64, 1)
	s.Subscribe(func(State, uint64) {
		done <- s.Version()
	})

	s.Dispatch(AddSection{Layout: content.LayoutOne})

	select {
	case v := <-done:
		if v != 1 {
			t.Errorf("version seen by listener: got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("listener deadlocked")
	}
}

func TestSession_ConcurrentDispatch(t *testing.T) {
	s := NewSession(nil, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(AddSection{Layout: content.LayoutTwo})
			_ = s.State()
		}()
	}
	wg.Wait()

	if got := len(s.State().Tree); got != 20 {
		t.Errorf("sections: got %d, want 20", got)
	}
	if s.Version() != 20 {
		t.Errorf("version: got %d, want 20", s.Version())
	}
}

func TestSession_LastActiveUsesClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession(nil, nil, WithClock(func() time.Time { return now }))

	now = now.Add(time.Minute)
	s.Dispatch(ClearSelection{})

	if !s.LastActive().Equal(now) {
		t.Errorf("last active: got %v, want %v", s.LastActive(), now)
	}
}
