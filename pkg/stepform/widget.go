package stepform

import (
	"errors"
)

// ErrNotAtSummary is returned by Submit before every step is complete.
var ErrNotAtSummary = errors.New("form is not at summary")

// DefaultAckMessage is the acknowledgment shown after submit.
const DefaultAckMessage = "Dati inviati!"

// Ack is the local acknowledgment of a submit.
type Ack struct {
	Message string
	Data    FormData
}

// Widget owns the whole form state: values, errors, step index and viewport
// class. All mutation goes through its methods; it is not safe for
// concurrent use and expects events to be serialized by the caller.
type Widget struct {
	steps     []Step
	data      FormData
	errors    map[StepName]*FieldError
	seq       *Sequencer
	validator *Validator
	presenter *Presenter
	sub       *Subscription

	ackMessage string
	submitted  int
}

// Option configures a Widget.
type Option func(*Widget)

// WithBreakpoint sets the mobile breakpoint in logical pixels.
func WithBreakpoint(px int) Option {
	return func(w *Widget) {
		w.presenter = NewPresenter(px)
	}
}

// WithAckMessage overrides the submit acknowledgment text.
func WithAckMessage(msg string) Option {
	return func(w *Widget) {
		if msg != "" {
			w.ackMessage = msg
		}
	}
}

// New returns a widget on the first step with empty values.
func New(opts ...Option) *Widget {
	steps := DefaultSteps()
	w := &Widget{
		steps:      steps,
		errors:     make(map[StepName]*FieldError),
		seq:        NewSequencer(len(steps)),
		validator:  NewValidator(steps),
		presenter:  NewPresenter(DefaultBreakpoint),
		ackMessage: DefaultAckMessage,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start acquires the viewport subscription using the width read at mount.
func (w *Widget) Start(viewportWidth int) {
	w.sub = w.presenter.Subscribe(viewportWidth)
}

// Stop releases the viewport subscription.
func (w *Widget) Stop() {
	if w.sub != nil {
		w.sub.Close()
		w.sub = nil
	}
}

// Steps returns the input steps in order.
func (w *Widget) Steps() []Step {
	out := make([]Step, len(w.steps))
	copy(out, w.steps)
	return out
}

// Current returns the step index; StepCount means summary.
func (w *Widget) Current() int {
	return w.seq.Current()
}

// AtSummary reports whether the summary is showing.
func (w *Widget) AtSummary() bool {
	return w.seq.AtSummary()
}

// ActiveStep returns the step eligible for input, or false at summary.
func (w *Widget) ActiveStep() (Step, bool) {
	if w.seq.AtSummary() {
		return Step{}, false
	}
	return w.steps[w.seq.Current()], true
}

// Edit stores a value for a field. It never touches the field's error:
// errors are cleared only by a successful Advance.
func (w *Widget) Edit(field StepName, value string) error {
	return w.data.Set(field, value)
}

// Advance validates the active step and moves forward on success. On failure
// the field error is recorded, returned, and the index is unchanged. At
// summary it does nothing.
func (w *Widget) Advance() error {
	step, ok := w.ActiveStep()
	if !ok {
		return nil
	}

	value, _ := w.data.Get(step.ID())
	if err := w.validator.Validate(step.ID(), value); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			w.errors[step.ID()] = fe
		}
		return err
	}

	delete(w.errors, step.ID())
	w.seq.Advance()
	return nil
}

// Retreat moves back one step; it is a no-op on the first step.
func (w *Widget) Retreat() {
	w.seq.Retreat()
}

// Resize applies a viewport width notification and reports whether it was
// applied.
func (w *Widget) Resize(width int) bool {
	return w.presenter.Resize(width)
}

// Submit acknowledges the collected values. It is only available at summary.
func (w *Widget) Submit() (Ack, error) {
	if !w.seq.AtSummary() {
		return Ack{}, ErrNotAtSummary
	}
	w.submitted++
	return Ack{Message: w.ackMessage, Data: w.data}, nil
}

// Submitted returns how many times the form was acknowledged.
func (w *Widget) Submitted() int {
	return w.submitted
}

// Data returns a copy of the collected values.
func (w *Widget) Data() FormData {
	return w.data
}

// Value returns the current value of a field.
func (w *Widget) Value(field StepName) string {
	v, _ := w.data.Get(field)
	return v
}

// Error returns the recorded error for a field, or nil.
func (w *Widget) Error(field StepName) *FieldError {
	return w.errors[field]
}

// Errors returns a copy of the recorded field errors.
func (w *Widget) Errors() map[StepName]*FieldError {
	out := make(map[StepName]*FieldError, len(w.errors))
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}

// StateOf returns the visual state of step i.
func (w *Widget) StateOf(i int) StepState {
	return w.seq.StateOf(i)
}

// Layout returns the current viewport class.
func (w *Widget) Layout() Layout {
	return w.presenter.Layout()
}

// Offset returns the carousel offset percentage for the current step.
func (w *Widget) Offset() int {
	return w.presenter.Offset(w.seq.Current())
}

// Transform returns the CSS transform of the step track.
func (w *Widget) Transform() string {
	return w.presenter.Transform(w.seq.Current())
}

// Subscribed reports whether the viewport subscription is held.
func (w *Widget) Subscribed() bool {
	return w.presenter.Subscribed()
}

// BackVisible reports whether the back action is offered: never on the
// first step and never on the desktop layout.
func (w *Widget) BackVisible() bool {
	return w.seq.Current() > 0 && w.presenter.Mobile()
}

// ForwardVisible reports whether the forward action is offered.
func (w *Widget) ForwardVisible() bool {
	return !w.seq.AtSummary()
}

// SubmitVisible reports whether the submit action is offered.
func (w *Widget) SubmitVisible() bool {
	return w.seq.AtSummary()
}
