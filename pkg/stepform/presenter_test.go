package stepform

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		width int
		want  Layout
	}{
		{320, LayoutMobile},
		{1024, LayoutMobile},
		{1025, LayoutDesktop},
		{1920, LayoutDesktop},
	}
	for _, tt := range tests {
		if got := Classify(tt.width, DefaultBreakpoint); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.width, got, tt.want)
		}
	}
}

func TestPresenter_UnknownWidthKeepsDesktop(t *testing.T) {
	p := NewPresenter(0)
	sub := p.Subscribe(0)
	defer sub.Close()

	if p.Layout() != LayoutDesktop {
		t.Errorf("expected desktop, got %s", p.Layout())
	}
	if p.Breakpoint() != DefaultBreakpoint {
		t.Errorf("expected default breakpoint, got %d", p.Breakpoint())
	}
}

func TestPresenter_ResubscribeReplacesHandle(t *testing.T) {
	p := NewPresenter(DefaultBreakpoint)
	first := p.Subscribe(500)
	second := p.Subscribe(1500)

	first.Close()
	if !p.Subscribed() {
		t.Fatal("closing a stale handle released the live one")
	}
	if !p.Resize(700) || p.Layout() != LayoutMobile {
		t.Error("expected resize through the live handle")
	}

	second.Close()
	if p.Resize(1500) {
		t.Error("resize applied after release")
	}
}

func TestPresenter_Transform(t *testing.T) {
	p := NewPresenter(DefaultBreakpoint)
	p.Subscribe(390)

	if got := p.Transform(0); got != "translateX(-0%)" {
		t.Errorf("Transform(0) = %q", got)
	}
	if got := p.Transform(3); got != "translateX(-300%)" {
		t.Errorf("Transform(3) = %q", got)
	}
}
