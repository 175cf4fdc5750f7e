package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func liveURL(srv *httptest.Server, sessionID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/sessions/" + sessionID + "/live"
}

func readFrame(t *testing.T, conn *websocket.Conn) LiveFrame {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var f LiveFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestLivePreview_PushesChanges(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()

	s := openSession(t, env, `{}`)
	conn, _, err := websocket.DefaultDialer.Dial(liveURL(srv, s.ID.String()), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := readFrame(t, conn)
	if initial.Version != 0 || initial.Dirty || !strings.Contains(initial.HTML, "pg-empty") {
		t.Errorf("initial frame: %+v", initial)
	}

	added := dispatch(t, env, s.ID, `{"type":"add_section","layout":"3"}`)
	sectionID := added.Tree[0].ID

	var f LiveFrame
	for f.Version < added.Version {
		f = readFrame(t, conn)
	}
	if !f.Dirty || f.Selection.SectionID != sectionID {
		t.Errorf("frame after add_section: %+v", f)
	}
	if !strings.Contains(f.HTML, `data-pg-section="`+sectionID+`"`) {
		t.Errorf("frame html lacks the new section:\n%s", f.HTML)
	}
	if !strings.Contains(f.HTML, "outline") {
		t.Error("frame html lacks the selection outline")
	}
}

func TestLivePreview_CoalescesBursts(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()

	s := openSession(t, env, `{}`)
	conn, _, err := websocket.DefaultDialer.Dial(liveURL(srv, s.ID.String()), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readFrame(t, conn)

	var last dispatchResponse
	for i := 0; i < 20; i++ {
		last = dispatch(t, env, s.ID, `{"type":"add_section","layout":"1"}`)
	}

	frames := 0
	var f LiveFrame
	for f.Version < last.Version {
		prev := f.Version
		f = readFrame(t, conn)
		if frames > 0 && f.Version <= prev {
			t.Fatalf("versions went backwards: %d after %d", f.Version, prev)
		}
		frames++
	}
	if frames > 20 {
		t.Errorf("got %d frames for 20 changes", frames)
	}
	if strings.Count(f.HTML, `<section class="pg-section"`) != 20 {
		t.Error("last frame does not show every section")
	}
}

func TestLivePreview_Rejected(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()
	s := openSession(t, env, `{}`)

	tests := []struct {
		name    string
		session string
		origin  string
		want    int
	}{
		{"unknown session", uuid.NewString(), "", http.StatusNotFound},
		{"invalid session id", "nope", "", http.StatusBadRequest},
		{"foreign origin", s.ID.String(), "http://elsewhere.test", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := http.Header{}
			if tt.origin != "" {
				hdr.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(liveURL(srv, tt.session), hdr)
			if err == nil {
				conn.Close()
				t.Fatal("expected dial to fail")
			}
			if resp == nil || resp.StatusCode != tt.want {
				t.Errorf("response: %v, want status %d", resp, tt.want)
			}
		})
	}
}

func TestLivePreview_AllowedOrigin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()
	s := openSession(t, env, `{}`)

	hdr := http.Header{}
	hdr.Set("Origin", "http://editor.test")
	conn, _, err := websocket.DefaultDialer.Dial(liveURL(srv, s.ID.String()), hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readFrame(t, conn)
}
