package core

import (
	"context"
)

type contextKey string

const (
	socketKey  contextKey = "stepform:socket"
	sessionKey contextKey = "stepform:session"
)

// WithSocket adds a socket to the context.
func WithSocket(ctx context.Context, socket *Socket) context.Context {
	return context.WithValue(ctx, socketKey, socket)
}

// SocketFromContext retrieves the socket from context, or nil.
func SocketFromContext(ctx context.Context) *Socket {
	s, _ := ctx.Value(socketKey).(*Socket)
	return s
}

// WithSession adds session data to the context.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext retrieves session from context.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}

// BuildContext creates the context a connection's component runs under.
func BuildContext(ctx context.Context, socket *Socket, session Session) context.Context {
	ctx = WithSocket(ctx, socket)
	ctx = WithSession(ctx, session)
	return ctx
}

// Event is a client interaction as seen by test harnesses.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}
