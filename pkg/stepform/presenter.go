package stepform

import (
	"fmt"
	"sync"
)

// DefaultBreakpoint is the widest viewport, in logical pixels, still
// classified as mobile.
const DefaultBreakpoint = 1024

// Layout is the viewport class.
type Layout int

const (
	// LayoutDesktop stacks the steps vertically.
	LayoutDesktop Layout = iota
	// LayoutMobile slides the steps horizontally as a carousel.
	LayoutMobile
)

func (l Layout) String() string {
	if l == LayoutMobile {
		return "mobile"
	}
	return "desktop"
}

// Classify returns the layout for a viewport width.
func Classify(width, breakpoint int) Layout {
	if width <= breakpoint {
		return LayoutMobile
	}
	return LayoutDesktop
}

// Presenter holds the viewport class and derives per-step presentation.
// Widths are only applied while a Subscription is held.
type Presenter struct {
	breakpoint int
	layout     Layout
	sub        *Subscription
}

// NewPresenter returns a desktop presenter with no subscription.
func NewPresenter(breakpoint int) *Presenter {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	return &Presenter{
		breakpoint: breakpoint,
		layout:     LayoutDesktop,
	}
}

// Subscription is the handle on viewport-resize notifications.
type Subscription struct {
	p    *Presenter
	once sync.Once
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.p.sub == s {
			s.p.sub = nil
		}
	})
	return nil
}

// Subscribe acquires the resize subscription and applies the width read at
// mount. A width <= 0 means the viewport is not known yet and keeps the
// current layout. Subscribing again replaces the previous handle.
func (p *Presenter) Subscribe(initialWidth int) *Subscription {
	if p.sub != nil {
		p.sub.Close()
	}
	sub := &Subscription{p: p}
	p.sub = sub
	p.apply(initialWidth)
	return sub
}

// Subscribed reports whether a subscription is held.
func (p *Presenter) Subscribed() bool {
	return p.sub != nil
}

// Resize applies a new viewport width. It reports whether the width was
// applied; without a subscription the notification is dropped.
func (p *Presenter) Resize(width int) bool {
	if p.sub == nil {
		return false
	}
	return p.apply(width)
}

func (p *Presenter) apply(width int) bool {
	if width <= 0 {
		return false
	}
	p.layout = Classify(width, p.breakpoint)
	return true
}

// Layout returns the current viewport class.
func (p *Presenter) Layout() Layout {
	return p.layout
}

// Mobile reports whether the carousel layout is active.
func (p *Presenter) Mobile() bool {
	return p.layout == LayoutMobile
}

// Breakpoint returns the mobile breakpoint.
func (p *Presenter) Breakpoint() int {
	return p.breakpoint
}

// Offset returns the carousel offset as a percentage of the container width.
func (p *Presenter) Offset(current int) int {
	if p.layout != LayoutMobile {
		return 0
	}
	return current * 100
}

// Transform returns the CSS transform for the step track.
func (p *Presenter) Transform(current int) string {
	if p.layout != LayoutMobile {
		return "none"
	}
	return fmt.Sprintf("translateX(-%d%%)", p.Offset(current))
}
