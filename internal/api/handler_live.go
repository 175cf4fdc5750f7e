package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/editor"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/ryanbastic/go-pagegrid/internal/service"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// LiveFrame is pushed to live preview clients on connect and after every
// change to the session.
type LiveFrame struct {
	Version   uint64          `json:"version"`
	HTML      string          `json:"html"`
	Selection content.Address `json:"selection"`
	Dirty     bool            `json:"dirty"`
}

// LiveHandler streams the interactive preview of an editing session over a
// websocket. Changes that arrive faster than frames can be written are
// coalesced: a client always receives the latest state, not every state.
type LiveHandler struct {
	sessions *editor.Manager
	pages    *service.PageService
	renderer *render.Renderer
	upgrader websocket.Upgrader
	origins  map[string]bool
	logger   *slog.Logger
}

// NewLiveHandler creates a LiveHandler accepting browser connections from
// origins. "*" allows any origin.
func NewLiveHandler(sessions *editor.Manager, pages *service.PageService, renderer *render.Renderer, origins []string, logger *slog.Logger) *LiveHandler {
	h := &LiveHandler{
		sessions: sessions,
		pages:    pages,
		renderer: renderer,
		origins:  make(map[string]bool, len(origins)),
		logger:   logger,
	}
	for _, o := range origins {
		h.origins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *LiveHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || h.origins["*"] || h.origins[origin]
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "editing session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		h.logger.Debug("live preview upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()

	changed := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(editor.State, uint64) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	h.logger.Info("live preview connected", "session_id", id)
	defer h.logger.Info("live preview disconnected", "session_id", id)

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	var sent uint64
	first := true
	send := func() error {
		st, version := s.Snapshot()
		if !first && version == sent {
			return nil
		}
		frame := h.frame(st, version, s.Dirty())
		if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
			return err
		}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
		sent, first = version, false
		return nil
	}

	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-changed:
			if err := send(); err != nil {
				h.logger.Debug("live preview write failed", "session_id", id, "error", err)
				return
			}
		case <-ping.C:
			if _, err := h.sessions.Get(id); err != nil {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "editing session closed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(liveWriteWait))
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and closes closed when the connection
// ends. Reading is what processes pongs and close frames.
func (h *LiveHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) frame(st editor.State, version uint64, dirty bool) LiveFrame {
	start := time.Now()
	body := h.renderer.Preview(h.pages.Sanitize(st.Tree), st.Selection)
	metrics.ObserveRender("preview", time.Since(start))
	return LiveFrame{
		Version:   version,
		HTML:      string(body),
		Selection: st.Selection,
		Dirty:     dirty,
	}
}
