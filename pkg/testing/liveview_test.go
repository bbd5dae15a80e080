package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/gabrielmiguelok/stepform/pkg/core"
)

type toggle struct {
	core.BaseComponent
	on         bool
	terminated int
}

func (c *toggle) Name() string { return "toggle" }

func (c *toggle) Mount(ctx context.Context, params core.Params, session core.Session) error {
	c.on = params.Get("on") == "1"
	return nil
}

func (c *toggle) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p data-slot="state">%v</p>`, c.on)
		return err
	})
}

func (c *toggle) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if event != "flip" {
		return errors.New("unknown event")
	}
	c.on = !c.on
	return core.SocketFromContext(ctx).Push("flipped", map[string]any{"on": c.on})
}

func (c *toggle) Terminate(ctx context.Context, reason core.TerminateReason) error {
	c.terminated++
	return nil
}

func TestLiveViewTest_MountAndEvents(t *testing.T) {
	comp := &toggle{}
	lvt := Mount(t, comp, WithParams(core.Params{"on": "1"}))

	lvt.AssertText(">true<")

	lvt.Push("flip", nil).AssertText(">false<").AssertNoText(">true<")

	if err := lvt.Event("nope", nil); err == nil {
		t.Error("unknown event should fail")
	}

	last, ok := lvt.LastPush("flipped")
	if !ok || last["on"] != false {
		t.Errorf("LastPush(flipped) = %v, %v", last, ok)
	}
	if len(lvt.Events()) != 2 {
		t.Errorf("Events() = %d, want 2", len(lvt.Events()))
	}
}

func TestLiveViewTest_Terminate(t *testing.T) {
	comp := &toggle{}
	lvt := Mount(t, comp)

	lvt.Terminate(core.TerminateNormal)

	if comp.terminated != 1 {
		t.Errorf("terminated = %d, want 1", comp.terminated)
	}
	if lvt.Transport().IsConnected() {
		t.Error("transport still connected after Terminate")
	}
}

func TestMockTransport_SetError(t *testing.T) {
	m := NewMockTransport()
	boom := errors.New("boom")

	m.SetError(boom)
	if err := m.Send(core.Message{Event: "x"}); !errors.Is(err, boom) {
		t.Errorf("Send = %v, want boom", err)
	}

	m.SetError(nil)
	if err := m.Send(core.Message{Event: "x"}); err != nil {
		t.Errorf("Send = %v", err)
	}
	if len(m.Sent()) != 1 {
		t.Errorf("Sent() = %d, want 1", len(m.Sent()))
	}
}
