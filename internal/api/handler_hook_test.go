package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
	"github.com/ryanbastic/go-pagegrid/internal/service"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
)

func registerHook(t *testing.T, env *testEnv, body string) HookResponse {
	t.Helper()
	w := env.do(t, http.MethodPost, "/v1/hooks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("register hook: got %d\nbody: %s", w.Code, w.Body.String())
	}
	return decode[HookResponse](t, w)
}

func TestRegisterHook(t *testing.T) {
	env := newTestEnv(t)
	h := registerHook(t, env, `{"name":"cdn","endpoint":"http://cdn.internal/rpc","events":["page.published","page.deleted"]}`)

	if h.ID == uuid.Nil || h.Status != "active" || len(h.Events) != 2 {
		t.Errorf("registered: %+v", h)
	}
	if h.Circuit != "" {
		t.Errorf("circuit reported without a notifier: %q", h.Circuit)
	}
	if got := env.hooks.For(hook.EventPagePublished); len(got) != 1 {
		t.Errorf("subscribers for page.published: got %d", len(got))
	}
	if got := env.hooks.For(hook.EventPageSaved); len(got) != 0 {
		t.Errorf("subscribers for page.saved: got %d", len(got))
	}
}

func TestRegisterHook_Inactive(t *testing.T) {
	env := newTestEnv(t)
	h := registerHook(t, env, `{"name":"search","endpoint":"http://search.internal/rpc","events":["page.saved"],"inactive":true}`)

	if h.Status != "inactive" {
		t.Errorf("status: got %q", h.Status)
	}
	if got := env.hooks.For(hook.EventPageSaved); len(got) != 0 {
		t.Error("inactive subscriber receives events")
	}
}

func TestRegisterHook_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"endpoint":"http://a.test/rpc","events":["page.saved"]}`, http.StatusUnprocessableEntity},
		{"no events", `{"name":"a","endpoint":"http://a.test/rpc","events":[]}`, http.StatusUnprocessableEntity},
		{"unknown event", `{"name":"a","endpoint":"http://a.test/rpc","events":["page.viewed"]}`, http.StatusUnprocessableEntity},
		{"non-http endpoint", `{"name":"a","endpoint":"ftp://a.test/rpc","events":["page.saved"]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/v1/hooks", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d\nbody: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRegisterHook_DuplicateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"cdn","endpoint":"http://cdn.internal/rpc","events":["page.saved"]}`
	registerHook(t, env, body)

	w := env.do(t, http.MethodPost, "/v1/hooks", body)
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestListGetDeleteHooks(t *testing.T) {
	env := newTestEnv(t)
	a := registerHook(t, env, `{"name":"a","endpoint":"http://a.test/rpc","events":["page.saved"]}`)
	registerHook(t, env, `{"name":"b","endpoint":"http://b.test/rpc","events":["page.deleted"]}`)

	w := env.do(t, http.MethodGet, "/v1/hooks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	if list := decode[[]HookResponse](t, w); len(list) != 2 {
		t.Errorf("list: got %d hooks", len(list))
	}

	path := "/v1/hooks/" + a.ID.String()
	w = env.do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	if got := decode[HookResponse](t, w); got.Name != "a" {
		t.Errorf("get: %+v", got)
	}

	if w := env.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", w.Code)
	}
}

// rpcRecorder is a JSON-RPC subscriber that records the methods it is
// called with.
type rpcRecorder struct {
	mu      sync.Mutex
	methods []string
	events  []hook.PageEvent
}

func (r *rpcRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var call struct {
		ID     int64          `json:"id"`
		Method string         `json:"method"`
		Params hook.PageEvent `json:"params"`
	}
	if err := json.NewDecoder(req.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.mu.Lock()
	r.methods = append(r.methods, call.Method)
	r.events = append(r.events, call.Params)
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": call.ID, "result": "ok"})
}

func (r *rpcRecorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.methods...)
}

func TestPublishingNotifiesHooks(t *testing.T) {
	rec := &rpcRecorder{}
	subscriber := httptest.NewServer(rec)
	defer subscriber.Close()

	registry := hook.NewRegistry(nil)
	notifier := hook.NewNotifier(registry, hook.NewRPCClient(0, time.Millisecond, time.Second),
		hook.BreakerConfig{MaxFailures: 3, ResetTimeout: time.Minute}, testLogger())
	env := newTestEnv(t, func(d *Deps) {
		d.Hooks = registry
		d.Notifier = notifier
		d.Pages = service.New(storage.NewMemoryStore(), notifier, d.Logger)
	})

	h := registerHook(t, env, `{"name":"cdn","endpoint":"`+subscriber.URL+`","events":["page.published"]}`)
	if h.Circuit != "closed" {
		t.Errorf("circuit: got %q, want closed", h.Circuit)
	}

	createPage(t, env, pageBody("Draft", `[]`, false))
	createPage(t, env, pageBody("Launch", `[]`, true))
	notifier.Wait()

	calls := rec.calls()
	if len(calls) != 1 || calls[0] != string(hook.EventPagePublished) {
		t.Fatalf("subscriber calls: %v", calls)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.events[0].Slug != "launch" || !rec.events[0].IsPublished {
		t.Errorf("event: %+v", rec.events[0])
	}
}
