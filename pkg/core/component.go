// Package core provides the fundamental abstractions for live components.
package core

import (
	"context"
	"io"
	"strconv"
)

// Component is a stateful server-side view. The router mounts one instance
// per connection and serializes every call on it.
type Component interface {
	// Name returns the component type identifier.
	Name() string

	// Mount is called once when the component is connected.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML representation.
	Render(ctx context.Context) Renderer

	// HandleEvent processes a client event.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// Terminate is called when the component is being destroyed.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params contains URL query parameters from the connection.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// Int returns a parameter parsed as an integer, or def when missing or malformed.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Session contains request data passed from the HTTP handler.
type Session map[string]any

// SessionRequestID is the session key holding the id of the request that
// opened the connection.
const SessionRequestID = "request_id"

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	// TerminateNormal indicates the client left.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown indicates server shutdown or a dropped connection.
	TerminateShutdown
	// TerminateError indicates termination due to an error.
	TerminateError
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	default:
		return "unknown"
	}
}

// BaseComponent provides no-op lifecycle methods.
// Embed it to implement only what a component needs.
type BaseComponent struct{}

// Mount does nothing by default.
func (BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

// HandleEvent does nothing by default.
func (BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

// Terminate does nothing by default.
func (BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
