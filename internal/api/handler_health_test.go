package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}

func withBackends(b map[string]Pinger) func(*Deps) {
	return func(d *Deps) { d.Backends = b }
}

func TestLivez_ReturnsOK(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/livez", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[map[string]string](t, w)
	if resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

func TestReadyz_NoBackends_ReturnsOK(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyz_AllHealthy(t *testing.T) {
	env := newTestEnv(t, withBackends(map[string]Pinger{
		"postgres": &mockPinger{},
		"hooks":    &mockPinger{},
	}))

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}
	resp := decode[ReadyzBody](t, w)
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if len(resp.Backends) != 2 {
		t.Fatalf("backends: got %d, want 2", len(resp.Backends))
	}
	for name, bs := range resp.Backends {
		if bs.Status != "ok" {
			t.Errorf("backend %s: got %q, want %q", name, bs.Status, "ok")
		}
	}
}

func TestReadyz_OneBackendDown(t *testing.T) {
	env := newTestEnv(t, withBackends(map[string]Pinger{
		"postgres": &mockPinger{},
		"replica":  &mockPinger{err: errors.New("connection refused")},
	}))

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}
	resp := decode[ReadyzBody](t, w)
	if resp.Status != "unavailable" {
		t.Errorf("status: got %q, want %q", resp.Status, "unavailable")
	}
	if resp.Backends["postgres"].Status != "ok" {
		t.Errorf("postgres: got %q", resp.Backends["postgres"].Status)
	}
	if resp.Backends["replica"].Status != "error" || resp.Backends["replica"].Error != "connection refused" {
		t.Errorf("replica: got %+v", resp.Backends["replica"])
	}
}
