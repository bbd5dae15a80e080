package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCounterAndGauge(t *testing.T) {
	c := NewCounter("c", "help")
	c.Inc()
	c.Add(4)
	c.Add(-3)
	if got := c.Value(); got != 5 {
		t.Errorf("counter = %d, want 5", got)
	}

	g := NewGauge("g", "help")
	g.Inc()
	g.Inc()
	g.Dec()
	if got := g.Value(); got != 1 {
		t.Errorf("gauge = %d, want 1", got)
	}
	g.Set(7)
	if got := g.Value(); got != 7 {
		t.Errorf("gauge = %d after Set, want 7", got)
	}
}

func TestCounterVec_Concurrent(t *testing.T) {
	cv := NewCounterVec("events_total", "help", "event")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				cv.Inc("next")
			} else {
				cv.Inc("input")
			}
		}(i)
	}
	wg.Wait()

	want := map[string]int64{"next": 50, "input": 50}
	if diff := cmp.Diff(want, cv.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics_WriteTo(t *testing.T) {
	m := NewMetrics("stepform")
	m.ConnectionsActive.Inc()
	m.ConnectionsTotal.Inc()
	m.EventsTotal.Inc("next")
	m.EventsTotal.Inc("input")
	m.EventsTotal.Inc("input")
	m.ConnectionsRejected.Inc("origin")

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}
	out := buf.String()

	for _, want := range []string{
		"# TYPE stepform_connections_active gauge\nstepform_connections_active 1\n",
		"stepform_connections_total 1\n",
		`stepform_connections_rejected_total{reason="origin"} 1`,
		"stepform_events_total{event=\"input\"} 2\nstepform_events_total{event=\"next\"} 1\n",
		"stepform_render_total 0\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("")
	m.RenderTotal.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "\nrender_total 3\n") {
		t.Errorf("unexpected body:\n%s", rec.Body.String())
	}
}
