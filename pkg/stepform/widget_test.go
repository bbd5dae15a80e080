package stepform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fill(t *testing.T, w *Widget, field StepName, value string) {
	t.Helper()
	if err := w.Edit(field, value); err != nil {
		t.Fatalf("Edit(%s): %v", field, err)
	}
}

func TestWidget_InitialState(t *testing.T) {
	w := New()

	if w.Current() != 0 {
		t.Errorf("expected step 0, got %d", w.Current())
	}
	if w.AtSummary() {
		t.Error("expected not at summary")
	}
	if diff := cmp.Diff(FormData{}, w.Data()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if len(w.Errors()) != 0 {
		t.Errorf("expected no errors, got %v", w.Errors())
	}
	if w.Layout() != LayoutDesktop {
		t.Errorf("expected desktop before mount, got %s", w.Layout())
	}
}

func TestWidget_AdvanceRejectsBlank(t *testing.T) {
	for _, value := range []string{"", " ", "\t  \n"} {
		w := New()
		fill(t, w, StepNameField, value)

		err := w.Advance()
		if !errors.Is(err, ErrMissingValue) {
			t.Fatalf("value %q: expected ErrMissingValue, got %v", value, err)
		}
		if w.Current() != 0 {
			t.Errorf("value %q: index moved to %d", value, w.Current())
		}
		fe := w.Error(StepNameField)
		if fe == nil || !errors.Is(fe, ErrMissingValue) {
			t.Errorf("value %q: expected recorded MissingValue, got %v", value, fe)
		}
	}
}

func TestWidget_AdvanceRejectsBlankOnEveryStep(t *testing.T) {
	w := New()
	fill(t, w, StepNameField, "Mario")
	fill(t, w, StepEmail, "mario@example.com")

	for i, step := range w.Steps() {
		if w.Current() != i {
			t.Fatalf("expected step %d, got %d", i, w.Current())
		}
		saved := w.Value(step.ID())
		fill(t, w, step.ID(), "  ")
		if err := w.Advance(); !errors.Is(err, ErrMissingValue) {
			t.Fatalf("step %s: expected ErrMissingValue, got %v", step.ID(), err)
		}
		if w.Current() != i {
			t.Fatalf("step %s: index moved", step.ID())
		}
		if saved == "" {
			saved = "secret123"
		}
		fill(t, w, step.ID(), saved)
		if err := w.Advance(); err != nil {
			t.Fatalf("step %s: unexpected error %v", step.ID(), err)
		}
	}
	if !w.AtSummary() {
		t.Error("expected summary")
	}
}

func TestWidget_EmailFormat(t *testing.T) {
	w := New()
	fill(t, w, StepNameField, "Mario")
	if err := w.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fill(t, w, StepEmail, "not-an-email")
	err := w.Advance()
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if w.Current() != 1 {
		t.Fatalf("expected to stay on step 1, got %d", w.Current())
	}
	if got := w.Error(StepEmail).Message; got != "Inserisci un'email valida" {
		t.Errorf("unexpected message %q", got)
	}

	fill(t, w, StepEmail, "a@b.co")
	if err := w.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Current() != 2 {
		t.Errorf("expected step 2, got %d", w.Current())
	}
	if w.Error(StepEmail) != nil {
		t.Error("expected email error cleared")
	}
}

func TestWidget_PasswordAndNameAcceptAnything(t *testing.T) {
	w := New()
	fill(t, w, StepNameField, "x")
	fill(t, w, StepEmail, "a@b.co")
	fill(t, w, StepPassword, "1")

	for i := 0; i < StepCount; i++ {
		if err := w.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if !w.AtSummary() {
		t.Error("expected summary")
	}
}

func TestWidget_Bounds(t *testing.T) {
	w := New()

	w.Retreat()
	if w.Current() != 0 {
		t.Errorf("retreat at step 0 moved to %d", w.Current())
	}

	fill(t, w, StepNameField, "Mario")
	fill(t, w, StepEmail, "mario@example.com")
	fill(t, w, StepPassword, "secret123")
	for i := 0; i < StepCount; i++ {
		if err := w.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	if err := w.Advance(); err != nil {
		t.Errorf("advance at summary returned %v", err)
	}
	if w.Current() != StepCount {
		t.Errorf("advance at summary moved to %d", w.Current())
	}

	w.Retreat()
	if w.Current() != StepCount-1 {
		t.Errorf("retreat from summary: got %d", w.Current())
	}
}

func TestWidget_CompleteFlowEchoesValues(t *testing.T) {
	w := New()
	want := FormData{Name: "Mario", Email: "mario@example.com", Password: "secret123"}

	fill(t, w, StepNameField, want.Name)
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}
	fill(t, w, StepEmail, want.Email)
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}
	fill(t, w, StepPassword, want.Password)
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}

	if !w.AtSummary() {
		t.Fatal("expected summary")
	}
	if diff := cmp.Diff(want, w.Data()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	ack, err := w.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.Message != DefaultAckMessage {
		t.Errorf("unexpected ack %q", ack.Message)
	}
	if diff := cmp.Diff(want, ack.Data); diff != "" {
		t.Errorf("ack data mismatch (-want +got):\n%s", diff)
	}
	if w.Submitted() != 1 {
		t.Errorf("expected 1 submit, got %d", w.Submitted())
	}
}

func TestWidget_SubmitBeforeSummary(t *testing.T) {
	w := New()
	if _, err := w.Submit(); !errors.Is(err, ErrNotAtSummary) {
		t.Errorf("expected ErrNotAtSummary, got %v", err)
	}
}

func TestWidget_EditDoesNotClearError(t *testing.T) {
	w := New()

	if err := w.Advance(); err == nil {
		t.Fatal("expected error")
	}
	fill(t, w, StepNameField, "Mario")
	if w.Error(StepNameField) == nil {
		t.Fatal("edit must not clear the error")
	}

	if err := w.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Error(StepNameField) != nil {
		t.Error("successful advance must clear the error")
	}
}

func TestWidget_EditUnknownField(t *testing.T) {
	w := New()
	if err := w.Edit("age", "3"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestWidget_ResizeSwitchesLayout(t *testing.T) {
	w := New()
	w.Start(1280)
	defer w.Stop()

	if w.Layout() != LayoutDesktop || w.Transform() != "none" {
		t.Fatalf("expected stacked layout, got %s %s", w.Layout(), w.Transform())
	}

	fill(t, w, StepNameField, "Mario")
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}

	w.Resize(1024)
	if w.Layout() != LayoutMobile {
		t.Fatalf("expected mobile at 1024, got %s", w.Layout())
	}
	if w.Offset() != 100 {
		t.Errorf("expected offset 100, got %d", w.Offset())
	}
	if w.Transform() != "translateX(-100%)" {
		t.Errorf("unexpected transform %q", w.Transform())
	}
	if w.Current() != 1 {
		t.Errorf("resize changed the step index to %d", w.Current())
	}

	w.Resize(1025)
	if w.Layout() != LayoutDesktop || w.Offset() != 0 {
		t.Errorf("expected stacked layout after widening, got %s offset %d", w.Layout(), w.Offset())
	}
}

func TestWidget_StopReleasesSubscription(t *testing.T) {
	w := New()
	w.Start(800)
	if !w.Subscribed() || w.Layout() != LayoutMobile {
		t.Fatal("expected subscribed mobile widget")
	}

	w.Stop()
	w.Stop()
	if w.Subscribed() {
		t.Fatal("expected subscription released")
	}
	if w.Resize(1600) {
		t.Error("resize applied without subscription")
	}
	if w.Layout() != LayoutMobile {
		t.Error("layout changed after release")
	}
}

func TestWidget_ActionVisibility(t *testing.T) {
	w := New()
	w.Start(400)

	if w.BackVisible() {
		t.Error("back visible on first step")
	}
	if !w.ForwardVisible() || w.SubmitVisible() {
		t.Error("expected forward only on first step")
	}

	fill(t, w, StepNameField, "Mario")
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}
	if !w.BackVisible() {
		t.Error("back hidden on mobile step 1")
	}

	w.Resize(1920)
	if w.BackVisible() {
		t.Error("back visible on desktop")
	}
}

func TestWidget_StepStates(t *testing.T) {
	w := New()
	fill(t, w, StepNameField, "Mario")
	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}

	got := []StepState{w.StateOf(0), w.StateOf(1), w.StateOf(2)}
	want := []StepState{StateCompleted, StateActive, StatePending}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestWidget_Options(t *testing.T) {
	w := New(WithBreakpoint(600), WithAckMessage("grazie"))
	w.Start(700)
	if w.Layout() != LayoutDesktop {
		t.Errorf("expected desktop above custom breakpoint")
	}
	w.Resize(600)
	if w.Layout() != LayoutMobile {
		t.Errorf("expected mobile at custom breakpoint")
	}
}
