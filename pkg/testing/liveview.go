// Package testing drives live components without a browser or a WebSocket
// connection.
package testing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gabrielmiguelok/stepform/pkg/core"
)

// LiveViewTest mounts one component on a mock socket and re-renders it
// after every event, the way the router does for a real connection.
type LiveViewTest struct {
	component core.Component
	transport *MockTransport
	socket    *core.Socket
	ctx       context.Context
	params    core.Params
	session   core.Session
	rendered  string
	events    []core.Event
	t         *testing.T
}

// MountOption configures the test mount.
type MountOption func(*LiveViewTest)

// WithParams sets mount parameters.
func WithParams(params core.Params) MountOption {
	return func(lvt *LiveViewTest) {
		lvt.params = params
	}
}

// WithSession sets session data.
func WithSession(session core.Session) MountOption {
	return func(lvt *LiveViewTest) {
		lvt.session = session
	}
}

// Mount creates and mounts a component for testing. The component is
// terminated when the test ends unless Terminate was called.
func Mount(t *testing.T, comp core.Component, opts ...MountOption) *LiveViewTest {
	t.Helper()

	lvt := &LiveViewTest{
		component: comp,
		transport: NewMockTransport(),
		params:    core.Params{},
		session:   core.Session{},
		t:         t,
	}
	for _, opt := range opts {
		opt(lvt)
	}

	lvt.socket = core.NewSocket("test-socket", lvt.transport)
	lvt.ctx = core.BuildContext(context.Background(), lvt.socket, lvt.session)

	if err := comp.Mount(lvt.ctx, lvt.params, lvt.session); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	t.Cleanup(func() {
		if lvt.socket.IsConnected() {
			lvt.Terminate(core.TerminateNormal)
		}
	})

	lvt.render()
	return lvt
}

// Event dispatches an event and re-renders on success. The component's
// error is returned unchanged.
func (lvt *LiveViewTest) Event(name string, payload map[string]any) error {
	lvt.t.Helper()

	if payload == nil {
		payload = map[string]any{}
	}
	lvt.events = append(lvt.events, core.Event{Type: name, Payload: payload})

	if err := lvt.component.HandleEvent(lvt.ctx, name, payload); err != nil {
		return err
	}
	lvt.render()
	return nil
}

// Push dispatches an event and fails the test if the component rejects it.
func (lvt *LiveViewTest) Push(name string, payload map[string]any) *LiveViewTest {
	lvt.t.Helper()

	if err := lvt.Event(name, payload); err != nil {
		lvt.t.Errorf("HandleEvent(%s) failed: %v", name, err)
	}
	return lvt
}

// Terminate ends the component and closes its socket.
func (lvt *LiveViewTest) Terminate(reason core.TerminateReason) {
	lvt.t.Helper()

	if err := lvt.component.Terminate(lvt.ctx, reason); err != nil {
		lvt.t.Errorf("Terminate failed: %v", err)
	}
	lvt.socket.Close()
}

func (lvt *LiveViewTest) render() {
	lvt.t.Helper()

	renderer := lvt.component.Render(lvt.ctx)
	if renderer == nil {
		lvt.t.Fatal("Render returned nil")
	}

	var buf bytes.Buffer
	if err := renderer.Render(lvt.ctx, &buf); err != nil {
		lvt.t.Fatalf("Render failed: %v", err)
	}
	lvt.rendered = buf.String()
}

// AssertText verifies the rendered output contains text.
func (lvt *LiveViewTest) AssertText(text string) *LiveViewTest {
	lvt.t.Helper()

	if !strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text not found: %q\nRendered HTML:\n%s", text, lvt.rendered)
	}
	return lvt
}

// AssertNoText verifies the rendered output does not contain text.
func (lvt *LiveViewTest) AssertNoText(text string) *LiveViewTest {
	lvt.t.Helper()

	if strings.Contains(lvt.rendered, text) {
		lvt.t.Errorf("Text should not exist: %q", text)
	}
	return lvt
}

// AssertCount verifies text occurs exactly n times.
func (lvt *LiveViewTest) AssertCount(text string, n int) *LiveViewTest {
	lvt.t.Helper()

	if got := strings.Count(lvt.rendered, text); got != n {
		lvt.t.Errorf("%q occurs %d times, want %d", text, got, n)
	}
	return lvt
}

// Pushed returns the payloads of every server push with the given event.
func (lvt *LiveViewTest) Pushed(event string) []map[string]any {
	msgs := lvt.transport.Events(event)
	out := make([]map[string]any, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Payload
	}
	return out
}

// LastPush returns the payload of the most recent push with the given event.
func (lvt *LiveViewTest) LastPush(event string) (map[string]any, bool) {
	pushed := lvt.Pushed(event)
	if len(pushed) == 0 {
		return nil, false
	}
	return pushed[len(pushed)-1], true
}

// Transport returns the mock transport.
func (lvt *LiveViewTest) Transport() *MockTransport {
	return lvt.transport
}

// Component returns the component under test.
func (lvt *LiveViewTest) Component() core.Component {
	return lvt.component
}

// Events returns all events that were dispatched.
func (lvt *LiveViewTest) Events() []core.Event {
	return lvt.events
}
