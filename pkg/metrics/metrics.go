// Package metrics keeps in-process counters for live connections and serves
// them in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics holds the live server metrics.
type Metrics struct {
	namespace string

	// Connections
	ConnectionsActive   *Gauge
	ConnectionsTotal    *Counter
	ConnectionsRejected *CounterVec

	// Events
	EventsTotal   *CounterVec
	EventErrors   *CounterVec
	EventsLimited *Counter

	// Renders
	RenderTotal *Counter
	DiffBytes   *Counter
}

// NewMetrics creates a metrics set whose names are prefixed by namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		namespace: namespace,

		ConnectionsActive:   NewGauge("connections_active", "Open live connections"),
		ConnectionsTotal:    NewCounter("connections_total", "Live connections accepted"),
		ConnectionsRejected: NewCounterVec("connections_rejected_total", "Live connections refused", "reason"),

		EventsTotal:   NewCounterVec("events_total", "Client events dispatched", "event"),
		EventErrors:   NewCounterVec("event_errors_total", "Client events rejected by the component", "event"),
		EventsLimited: NewCounter("events_limited_total", "Client events dropped by the rate limiter"),

		RenderTotal: NewCounter("render_total", "Component renders"),
		DiffBytes:   NewCounter("diff_bytes_total", "Bytes of slot content pushed in diffs"),
	}
}

// Handler returns an HTTP handler for metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric in the Prometheus text format.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	m.writeGauge(cw, m.ConnectionsActive)
	m.writeCounter(cw, m.ConnectionsTotal)
	m.writeVec(cw, m.ConnectionsRejected)
	m.writeVec(cw, m.EventsTotal)
	m.writeVec(cw, m.EventErrors)
	m.writeCounter(cw, m.EventsLimited)
	m.writeCounter(cw, m.RenderTotal)
	m.writeCounter(cw, m.DiffBytes)

	return cw.n, cw.err
}

func (m *Metrics) fullName(name string) string {
	if m.namespace == "" {
		return name
	}
	return m.namespace + "_" + name
}

func (m *Metrics) writeHeader(w io.Writer, name, help, kind string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func (m *Metrics) writeCounter(w io.Writer, c *Counter) {
	name := m.fullName(c.name)
	m.writeHeader(w, name, c.help, "counter")
	fmt.Fprintf(w, "%s %d\n", name, c.Value())
}

func (m *Metrics) writeGauge(w io.Writer, g *Gauge) {
	name := m.fullName(g.name)
	m.writeHeader(w, name, g.help, "gauge")
	fmt.Fprintf(w, "%s %d\n", name, g.Value())
}

func (m *Metrics) writeVec(w io.Writer, cv *CounterVec) {
	name := m.fullName(cv.name)
	m.writeHeader(w, name, cv.help, "counter")

	values := cv.Values()
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		fmt.Fprintf(w, "%s{%s=%q} %d\n", name, cv.label, label, values[label])
	}
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds a non-negative delta to the counter.
func (c *Counter) Add(delta int64) {
	if delta > 0 {
		c.value.Add(delta)
	}
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

// Set sets the gauge to a value.
func (g *Gauge) Set(value int64) {
	g.value.Store(value)
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.value.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.value.Add(-1)
}

// Value returns the current gauge value.
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

// CounterVec is a set of counters keyed by one label.
type CounterVec struct {
	name   string
	help   string
	label  string
	values map[string]*Counter
	mu     sync.RWMutex
}

// NewCounterVec creates a counter vector with a single label.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for a label value, creating it on first use.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for a label value.
func (cv *CounterVec) Inc(label string) {
	cv.WithLabel(label).Inc()
}

// Values returns a snapshot of every labeled counter.
func (cv *CounterVec) Values() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	out := make(map[string]int64, len(cv.values))
	for label, c := range cv.values {
		out[label] = c.Value()
	}
	return out
}
