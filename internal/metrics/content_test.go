package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAction(t *testing.T) {
	before := testutil.ToFloat64(editorActions.WithLabelValues("add_block", "true"))
	ObserveAction("add_block", true)
	ObserveAction("add_block", false)

	if got := testutil.ToFloat64(editorActions.WithLabelValues("add_block", "true")) - before; got != 1 {
		t.Errorf("applied delta: got %f, want 1", got)
	}
}

func TestObserveShape(t *testing.T) {
	before := testutil.ToFloat64(contentShapes.WithLabelValues("legacy"))
	ObserveShape("legacy")
	if got := testutil.ToFloat64(contentShapes.WithLabelValues("legacy")) - before; got != 1 {
		t.Errorf("legacy delta: got %f, want 1", got)
	}
}

func TestObserveRender(t *testing.T) {
	ObserveRender("fragment", 2*time.Millisecond)
	if n := testutil.CollectAndCount(renderDuration, "pagegrid_render_duration_seconds"); n == 0 {
		t.Error("expected render histogram series")
	}
}

func TestSessionsGauge(t *testing.T) {
	open := 3
	g := NewSessionsGauge(func() int { return open })

	reg := prometheus.NewRegistry()
	reg.MustRegister(g)

	if got := testutil.ToFloat64(g); got != 3 {
		t.Errorf("gauge: got %f, want 3", got)
	}
	open = 1
	if got := testutil.ToFloat64(g); got != 1 {
		t.Errorf("gauge after close: got %f, want 1", got)
	}
}
