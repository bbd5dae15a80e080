// Package view holds the live component that puts the step form on a page.
package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/logging"
	"github.com/gabrielmiguelok/stepform/pkg/protocol"
	"github.com/gabrielmiguelok/stepform/pkg/security"
	"github.com/gabrielmiguelok/stepform/pkg/stepform"
)

// ErrUnknownEvent is returned for events the form does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Push events sent to the client besides diffs.
const (
	PushLayout = "layout"
	PushAck    = "ack"
)

// SubmitHook receives every acknowledged submit.
type SubmitHook func(ctx context.Context, ack stepform.Ack)

// Options configures the component.
type Options struct {
	// Breakpoint is the widest viewport, in logical pixels, that still
	// gets the mobile carousel. Zero keeps the widget default.
	Breakpoint int

	// Title is the heading, plain text.
	Title string

	// Subtitle may carry limited inline HTML; it is sanitized again here.
	Subtitle string

	// AckMessage overrides the submit acknowledgment.
	AckMessage string

	// OnSubmit is called after the acknowledgment has been pushed.
	OnSubmit SubmitHook
}

// StepForm is the live component wrapping a stepform.Widget.
type StepForm struct {
	core.BaseComponent

	opts     Options
	subtitle template.HTML
	widget   *stepform.Widget
}

// NewStepForm creates an unmounted component.
func NewStepForm(opts Options) *StepForm {
	return &StepForm{
		opts:     opts,
		subtitle: template.HTML(security.SanitizeInline(opts.Subtitle)),
	}
}

// Factory returns a constructor suitable for router.Live.
func Factory(opts Options) func() core.Component {
	return func() core.Component {
		return NewStepForm(opts)
	}
}

// Name returns the component name.
func (f *StepForm) Name() string {
	return "stepform"
}

// Mount creates a fresh widget and subscribes it to the viewport width
// passed as the vw parameter. A missing or bad width counts as unknown.
func (f *StepForm) Mount(ctx context.Context, params core.Params, session core.Session) error {
	var opts []stepform.Option
	if f.opts.Breakpoint > 0 {
		opts = append(opts, stepform.WithBreakpoint(f.opts.Breakpoint))
	}
	if f.opts.AckMessage != "" {
		opts = append(opts, stepform.WithAckMessage(f.opts.AckMessage))
	}

	f.widget = stepform.New(opts...)
	f.widget.Start(params.Int("vw", 0))
	return nil
}

// Terminate releases the viewport subscription.
func (f *StepForm) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if f.widget != nil {
		f.widget.Stop()
	}
	return nil
}

// Widget exposes the underlying state machine.
func (f *StepForm) Widget() *stepform.Widget {
	return f.widget
}

// HandleEvent applies one client event to the widget.
func (f *StepForm) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if f.widget == nil {
		return fmt.Errorf("%s: component not mounted", event)
	}

	switch event {
	case "input":
		field := stepform.StepName(protocol.PayloadString(payload, "field"))
		return f.widget.Edit(field, protocol.PayloadString(payload, "value"))

	case "next":
		step, active := f.widget.ActiveStep()
		if value, ok := payload["value"].(string); ok {
			field := stepform.StepName(protocol.PayloadString(payload, "field"))
			if field == "" && active {
				field = step.ID()
			}
			if field != "" {
				if err := f.widget.Edit(field, value); err != nil {
					return err
				}
			}
			// Enter in a field other than the active one only saves it.
			if !active || field != step.ID() {
				return nil
			}
		}
		if err := f.widget.Advance(); err != nil {
			var fe *stepform.FieldError
			if !errors.As(err, &fe) {
				return err
			}
			logging.L(ctx).Debug("advance rejected",
				logging.String("field", string(fe.Field)),
				logging.String("reason", fe.Message),
			)
			return nil
		}
		f.pushLayout(ctx)

	case "prev":
		f.widget.Retreat()
		f.pushLayout(ctx)

	case "viewport":
		if f.widget.Resize(protocol.PayloadInt(payload, "width")) {
			f.pushLayout(ctx)
		}

	case "submit":
		ack, err := f.widget.Submit()
		if err != nil {
			return err
		}
		f.push(ctx, PushAck, map[string]any{"message": ack.Message})
		if f.opts.OnSubmit != nil {
			f.opts.OnSubmit(ctx, ack)
		}

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	return nil
}

// pushLayout tells the client where the carousel track sits. The track is
// outside every diff slot so its CSS transition is not reset by patches.
func (f *StepForm) pushLayout(ctx context.Context) {
	f.push(ctx, PushLayout, map[string]any{
		"mode":      f.widget.Layout().String(),
		"offset":    f.widget.Offset(),
		"transform": f.widget.Transform(),
	})
}

func (f *StepForm) push(ctx context.Context, event string, payload map[string]any) {
	socket := core.SocketFromContext(ctx)
	if socket == nil {
		return
	}
	if err := socket.Push(event, payload); err != nil {
		logging.L(ctx).Debug("push dropped",
			logging.String("event", event),
			logging.Err(err),
		)
	}
}
