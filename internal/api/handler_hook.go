package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
)

// --- Huma Input/Output types ---

type RegisterHookBody struct {
	Name     string       `json:"name" doc:"Subscriber name" minLength:"1"`
	Endpoint string       `json:"endpoint" doc:"JSON-RPC endpoint URL" format:"uri"`
	Events   []hook.Event `json:"events" doc:"Events to deliver" minItems:"1"`
	Inactive bool         `json:"inactive,omitempty" doc:"Register without delivering events"`
}

type RegisterHookInput struct {
	Body RegisterHookBody
}

type HookResponse struct {
	ID        uuid.UUID    `json:"id" doc:"Subscriber UUID"`
	Name      string       `json:"name"`
	Endpoint  string       `json:"endpoint"`
	Events    []hook.Event `json:"events"`
	Status    string       `json:"status" example:"active"`
	Circuit   string       `json:"circuit,omitempty" doc:"Delivery circuit state" example:"closed"`
	CreatedAt time.Time    `json:"created_at"`
}

type HookOutput struct {
	Body HookResponse
}

type ListHooksOutput struct {
	Body []HookResponse
}

type HookIDInput struct {
	HookID string `path:"hook_id" doc:"Subscriber UUID" format:"uuid"`
}

// --- Handler ---

type HookHandler struct {
	registry *hook.Registry
	notifier *hook.Notifier
	logger   *slog.Logger
}

// NewHookHandler creates a HookHandler. notifier is only used to report
// circuit state and may be nil.
func NewHookHandler(registry *hook.Registry, notifier *hook.Notifier, logger *slog.Logger) *HookHandler {
	return &HookHandler{registry: registry, notifier: notifier, logger: logger}
}

func registerHookRoutes(api huma.API, h *HookHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-hook",
		Method:        http.MethodPost,
		Path:          "/v1/hooks",
		Summary:       "Register a publish hook subscriber",
		Tags:          []string{"hooks"},
		DefaultStatus: http.StatusCreated,
	}, h.RegisterHook)

	huma.Register(api, huma.Operation{
		OperationID: "list-hooks",
		Method:      http.MethodGet,
		Path:        "/v1/hooks",
		Summary:     "List publish hook subscribers",
		Tags:        []string{"hooks"},
	}, h.ListHooks)

	huma.Register(api, huma.Operation{
		OperationID: "get-hook",
		Method:      http.MethodGet,
		Path:        "/v1/hooks/{hook_id}",
		Summary:     "Get a publish hook subscriber",
		Tags:        []string{"hooks"},
	}, h.GetHook)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-hook",
		Method:        http.MethodDelete,
		Path:          "/v1/hooks/{hook_id}",
		Summary:       "Delete a publish hook subscriber",
		Tags:          []string{"hooks"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteHook)
}

func (h *HookHandler) RegisterHook(ctx context.Context, input *RegisterHookInput) (*HookOutput, error) {
	s := &hook.Subscriber{
		Name:     input.Body.Name,
		Endpoint: input.Body.Endpoint,
		Events:   input.Body.Events,
		Status:   hook.StatusActive,
	}
	if input.Body.Inactive {
		s.Status = hook.StatusInactive
	}
	if err := h.registry.Register(ctx, s); err != nil {
		return nil, apiError(h.logger, "register hook", err)
	}

	h.logger.Info("hook registered", "id", s.ID, "name", s.Name, "endpoint", s.Endpoint)
	return &HookOutput{Body: h.hookResponse(s)}, nil
}

func (h *HookHandler) ListHooks(ctx context.Context, _ *struct{}) (*ListHooksOutput, error) {
	subs := h.registry.List()
	resp := make([]HookResponse, len(subs))
	for i, s := range subs {
		resp[i] = h.hookResponse(s)
	}
	return &ListHooksOutput{Body: resp}, nil
}

func (h *HookHandler) GetHook(ctx context.Context, input *HookIDInput) (*HookOutput, error) {
	id, err := uuid.Parse(input.HookID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid hook_id")
	}
	s, err := h.registry.Get(id)
	if err != nil {
		return nil, apiError(h.logger, "get hook", err)
	}
	return &HookOutput{Body: h.hookResponse(s)}, nil
}

func (h *HookHandler) DeleteHook(ctx context.Context, input *HookIDInput) (*struct{}, error) {
	id, err := uuid.Parse(input.HookID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid hook_id")
	}
	if err := h.registry.Delete(ctx, id); err != nil {
		return nil, apiError(h.logger, "delete hook", err)
	}

	h.logger.Info("hook deleted", "id", id)
	return nil, nil
}

func (h *HookHandler) hookResponse(s *hook.Subscriber) HookResponse {
	resp := HookResponse{
		ID:        s.ID,
		Name:      s.Name,
		Endpoint:  s.Endpoint,
		Events:    s.Events,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
	if h.notifier != nil {
		resp.Circuit = h.notifier.Circuit(s.Endpoint).String()
	}
	return resp
}
