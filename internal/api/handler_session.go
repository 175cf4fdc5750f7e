package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/editor"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/page"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/ryanbastic/go-pagegrid/internal/service"
)

// --- Huma Input/Output types ---

type OpenSessionBody struct {
	PageID *uuid.UUID `json:"page_id,omitempty" doc:"Page to edit; omit to start a new page"`
}

type OpenSessionInput struct {
	Body OpenSessionBody `required:"false"`
}

type SessionIDInput struct {
	SessionID string `path:"session_id" doc:"Editing session UUID" format:"uuid"`
}

type SessionResponse struct {
	ID         uuid.UUID       `json:"id" doc:"Editing session UUID"`
	PageID     *uuid.UUID      `json:"page_id,omitempty" doc:"Page being edited, once saved"`
	Version    uint64          `json:"version" doc:"Incremented by every change"`
	Dirty      bool            `json:"dirty" doc:"Unsaved changes exist"`
	Tree       content.Tree    `json:"tree"`
	Selection  content.Address `json:"selection"`
	LastActive time.Time       `json:"last_active"`
}

type SessionOutput struct {
	Body SessionResponse
}

// ActionBody is the wire form of an editor action. Type selects which of
// the other fields are read.
type ActionBody struct {
	Type      string            `json:"type" enum:"add_section,remove_section,update_section,add_block,update_block,remove_block,reorder_sections,select,clear_selection"`
	Layout    content.Layout    `json:"layout,omitempty" doc:"add_section"`
	SectionID string            `json:"section_id,omitempty"`
	ColumnID  string            `json:"column_id,omitempty"`
	BlockID   string            `json:"block_id,omitempty"`
	BlockType content.BlockType `json:"block_type,omitempty" doc:"add_block"`
	Changes   json.RawMessage   `json:"changes,omitempty" doc:"update_section and update_block: fields to overwrite"`
	ActiveID  string            `json:"active_id,omitempty" doc:"reorder_sections: dragged section"`
	OverID    string            `json:"over_id,omitempty" doc:"reorder_sections: drop target section"`
	Address   *content.Address  `json:"address,omitempty" doc:"select: element to select"`
}

type DispatchInput struct {
	SessionID string `path:"session_id" doc:"Editing session UUID" format:"uuid"`
	Body      ActionBody
}

type DispatchOutput struct {
	Body struct {
		Applied bool `json:"applied" doc:"False when the action targeted nothing"`
		SessionResponse
	}
}

type SaveSessionBody struct {
	Slug            string `json:"slug,omitempty" maxLength:"200"`
	Title           string `json:"title" minLength:"1"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	IsPublished     bool   `json:"is_published,omitempty"`
}

type SaveSessionInput struct {
	SessionID string `path:"session_id" doc:"Editing session UUID" format:"uuid"`
	Body      SaveSessionBody
}

type SaveSessionOutput struct {
	Body struct {
		Session SessionResponse `json:"session"`
		Page    PageResponse    `json:"page"`
	}
}

// --- Handler ---

type SessionHandler struct {
	sessions *editor.Manager
	pages    *service.PageService
	renderer *render.Renderer
	logger   *slog.Logger
}

func NewSessionHandler(sessions *editor.Manager, pages *service.PageService, renderer *render.Renderer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, pages: pages, renderer: renderer, logger: logger}
}

func registerSessionRoutes(api huma.API, h *SessionHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "open-session",
		Method:        http.MethodPost,
		Path:          "/v1/sessions",
		Summary:       "Open an editing session",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
	}, h.OpenSession)

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/v1/sessions/{session_id}",
		Summary:     "Get the state of an editing session",
		Tags:        []string{"sessions"},
	}, h.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "dispatch-action",
		Method:      http.MethodPost,
		Path:        "/v1/sessions/{session_id}/actions",
		Summary:     "Apply an editing action",
		Tags:        []string{"sessions"},
	}, h.Dispatch)

	huma.Register(api, huma.Operation{
		OperationID: "preview-session",
		Method:      http.MethodGet,
		Path:        "/v1/sessions/{session_id}/preview",
		Summary:     "Render the interactive preview of a session",
		Tags:        []string{"sessions"},
	}, h.Preview)

	huma.Register(api, huma.Operation{
		OperationID: "save-session",
		Method:      http.MethodPost,
		Path:        "/v1/sessions/{session_id}/save",
		Summary:     "Save the session's tree as a page",
		Tags:        []string{"sessions"},
	}, h.Save)

	huma.Register(api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/v1/sessions/{session_id}",
		Summary:       "Close an editing session, discarding unsaved changes",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusNoContent,
	}, h.CloseSession)
}

func (h *SessionHandler) OpenSession(ctx context.Context, input *OpenSessionInput) (*SessionOutput, error) {
	var tree content.Tree
	if input.Body.PageID != nil {
		_, t, err := h.pages.Load(ctx, *input.Body.PageID)
		if err != nil {
			return nil, apiError(h.logger, "open session", err)
		}
		tree = t
	}
	s := h.sessions.Open(input.Body.PageID, tree)
	return &SessionOutput{Body: sessionResponse(s)}, nil
}

func (h *SessionHandler) GetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	s, err := h.session(input.SessionID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sessionResponse(s)}, nil
}

func (h *SessionHandler) Dispatch(ctx context.Context, input *DispatchInput) (*DispatchOutput, error) {
	s, err := h.session(input.SessionID)
	if err != nil {
		return nil, err
	}
	a, err := decodeAction(input.Body)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	_, applied := s.Dispatch(a)
	metrics.ObserveAction(a.Name(), applied)
	h.logger.Debug("editor action", "session_id", s.ID, "action", a.Name(), "applied", applied)

	out := &DispatchOutput{}
	out.Body.Applied = applied
	out.Body.SessionResponse = sessionResponse(s)
	return out, nil
}

func (h *SessionHandler) Preview(ctx context.Context, input *SessionIDInput) (*HTMLOutput, error) {
	s, err := h.session(input.SessionID)
	if err != nil {
		return nil, err
	}
	st := s.State()

	start := time.Now()
	body := h.renderer.Preview(h.pages.Sanitize(st.Tree), st.Selection)
	metrics.ObserveRender("preview", time.Since(start))
	return &HTMLOutput{ContentType: "text/html; charset=utf-8", Body: body}, nil
}

// Save persists the session's current tree. A failed save leaves the
// session dirty so the client can retry.
func (h *SessionHandler) Save(ctx context.Context, input *SaveSessionInput) (*SaveSessionOutput, error) {
	s, err := h.session(input.SessionID)
	if err != nil {
		return nil, err
	}
	st, version := s.Snapshot()
	req := page.SaveRequest{
		Slug:            input.Body.Slug,
		Title:           input.Body.Title,
		MetaTitle:       input.Body.MetaTitle,
		MetaDescription: input.Body.MetaDescription,
		Content:         st.Tree,
		IsPublished:     input.Body.IsPublished,
	}

	var p *page.Page
	if id, ok := s.Page(); ok {
		p, err = h.pages.Save(ctx, id, req)
	} else {
		p, err = h.pages.Create(ctx, req)
	}
	if err != nil {
		h.logger.Warn("failed to save editing session", "session_id", s.ID, "error", err)
		return nil, apiError(h.logger, "save session", err)
	}
	stored := h.pages.Tree(p)
	s.Saved(version, p.ID, stored)

	out := &SaveSessionOutput{}
	out.Body.Session = sessionResponse(s)
	out.Body.Page = newPageResponse(p, stored)
	return out, nil
}

func (h *SessionHandler) CloseSession(ctx context.Context, input *SessionIDInput) (*struct{}, error) {
	id, err := parseSessionID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Close(id); err != nil {
		return nil, apiError(h.logger, "close session", err)
	}
	return nil, nil
}

func (h *SessionHandler) session(raw string) (*editor.Session, error) {
	id, err := parseSessionID(raw)
	if err != nil {
		return nil, err
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, apiError(h.logger, "get session", err)
	}
	return s, nil
}

func sessionResponse(s *editor.Session) SessionResponse {
	st, version := s.Snapshot()
	resp := SessionResponse{
		ID:         s.ID,
		Version:    version,
		Dirty:      s.Dirty(),
		Tree:       st.Tree,
		Selection:  st.Selection,
		LastActive: s.LastActive(),
	}
	if id, ok := s.Page(); ok {
		resp.PageID = &id
	}
	return resp
}

// decodeAction converts the wire form into an editor action. Ids are not
// checked here: actions aimed at missing elements are no-ops.
func decodeAction(b ActionBody) (editor.Action, error) {
	switch b.Type {
	case "add_section":
		if !b.Layout.Valid() {
			return nil, fmt.Errorf("unknown layout %q", b.Layout)
		}
		return editor.AddSection{Layout: b.Layout}, nil
	case "remove_section":
		return editor.RemoveSection{SectionID: b.SectionID}, nil
	case "update_section":
		var patch editor.SectionPatch
		if err := decodeChanges(b.Changes, &patch); err != nil {
			return nil, err
		}
		if patch.Layout != nil && !patch.Layout.Valid() {
			return nil, fmt.Errorf("unknown layout %q", *patch.Layout)
		}
		return editor.UpdateSection{SectionID: b.SectionID, Changes: patch}, nil
	case "add_block":
		if !b.BlockType.Valid() {
			return nil, fmt.Errorf("unknown block type %q", b.BlockType)
		}
		return editor.AddBlock{SectionID: b.SectionID, ColumnID: b.ColumnID, Type: b.BlockType}, nil
	case "update_block":
		var patch editor.BlockPatch
		if err := decodeChanges(b.Changes, &patch); err != nil {
			return nil, err
		}
		return editor.UpdateBlock{SectionID: b.SectionID, ColumnID: b.ColumnID, BlockID: b.BlockID, Changes: patch}, nil
	case "remove_block":
		return editor.RemoveBlock{SectionID: b.SectionID, ColumnID: b.ColumnID, BlockID: b.BlockID}, nil
	case "reorder_sections":
		return editor.ReorderSections{ActiveID: b.ActiveID, OverID: b.OverID}, nil
	case "select":
		if b.Address == nil {
			return nil, fmt.Errorf("select requires an address")
		}
		return editor.Select{Address: *b.Address}, nil
	case "clear_selection":
		return editor.ClearSelection{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", b.Type)
}

func decodeChanges(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("changes are required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode changes: %w", err)
	}
	return nil
}

func parseSessionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest("invalid session_id")
	}
	return id, nil
}
