// Package router serves live components over HTTP and WebSocket.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/limits"
	"github.com/gabrielmiguelok/stepform/pkg/logging"
	"github.com/gabrielmiguelok/stepform/pkg/metrics"
	"github.com/gabrielmiguelok/stepform/pkg/pool"
	"github.com/gabrielmiguelok/stepform/pkg/protocol"
	"github.com/gabrielmiguelok/stepform/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
	ErrNotJoined   = errors.New("channel not joined")
)

// Router handles HTTP routing for live components.
type Router struct {
	mux          *http.ServeMux
	middleware   []Middleware
	errorHandler ErrorHandler

	sessions *SessionManager
	sockets  *core.SocketManager
	codecs   *protocol.CodecRegistry

	transportConfig *transport.Config
	wsConfig        *transport.WebSocketConfig
	logger          logging.Logger
	metrics         *metrics.Metrics

	eventLimiter *limits.TokenBucket
	connLimiter  *limits.ConnectionLimiter

	wg sync.WaitGroup
	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the URL pattern.
	Path string

	// Component creates one instance per page load and per connection.
	Component func() core.Component

	// Layout wraps the initial HTTP render into a document.
	Layout Layout
}

// Layout wraps a rendered component into a full page.
type Layout func(ctx context.Context, w io.Writer, body []byte) error

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCodec sets the codec used when a client does not ask for one.
func WithCodec(name string) Option {
	return func(r *Router) {
		_ = r.codecs.SetDefault(name)
	}
}

// WithTransportConfig sets WebSocket timeouts and buffer sizes.
func WithTransportConfig(config *transport.Config) Option {
	return func(r *Router) {
		if config != nil {
			r.transportConfig = config
		}
	}
}

// WithWebSocketConfig sets the origin policy.
func WithWebSocketConfig(config *transport.WebSocketConfig) Option {
	return func(r *Router) {
		if config != nil {
			r.wsConfig = config
		}
	}
}

// WithMaxSessions limits concurrent live connections.
func WithMaxSessions(n int) Option {
	return func(r *Router) {
		r.sessions = NewSessionManager(n)
	}
}

// WithMetrics replaces the router's metrics set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithEventRate limits client events per connection to rate per second
// with the given burst. A non-positive rate disables the limit.
func WithEventRate(rate float64, burst int) Option {
	return func(r *Router) {
		if rate > 0 {
			r.eventLimiter = limits.NewTokenBucket(rate, burst)
		}
	}
}

// WithMaxConnectionsPerIP caps concurrent live connections per client
// address. A non-positive value disables the cap.
func WithMaxConnectionsPerIP(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.connLimiter = limits.NewConnectionLimiter(n)
		}
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		sessions:        NewSessionManager(0),
		sockets:         core.NewSocketManager(),
		codecs:          protocol.NewCodecRegistry(),
		transportConfig: transport.DefaultConfig(),
		wsConfig:        transport.DefaultWebSocketConfig(),
		logger:          logging.NopLogger{},
		metrics:         metrics.NewMetrics("stepform"),
		errorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Only routes registered afterwards
// are wrapped.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// Sessions returns the session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Metrics returns the router's metrics set.
func (r *Router) Metrics() *metrics.Metrics {
	return r.metrics
}

// Sockets returns the socket manager.
func (r *Router) Sockets() *core.SocketManager {
	return r.sockets
}

// Live registers a live component route.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
	}
	for _, opt := range opts {
		opt(route)
	}

	r.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.renderLive(w, req, route)
	}))
}

// Handle registers a standard HTTP handler behind the global middleware.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	h := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}

	r.mux.Handle(pattern, h)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Shutdown closes every live connection and waits for their components
// to terminate.
func (r *Router) Shutdown(ctx context.Context) error {
	if err := r.sockets.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renderLive serves the initial HTML or upgrades to WebSocket.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if isWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}

	ctx := req.Context()
	component := route.Component()
	params := extractParams(req)
	session := extractSession(req)
	ctx = core.BuildContext(ctx, nil, session)

	if err := component.Mount(ctx, params, session); err != nil {
		r.errorHandler(w, req, err)
		return
	}
	// The static render has no connection to keep state for.
	defer component.Terminate(ctx, core.TerminateNormal)

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderTo(ctx, component, buf); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if route.Layout == nil {
		w.Write(buf.Bytes())
		return
	}
	if err := route.Layout(ctx, w, buf.Bytes()); err != nil {
		r.logger.Error("layout render failed", logging.String("path", route.Path), logging.Err(err))
	}
}

// handleWebSocket upgrades the request and starts the connection's
// message loop.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if r.sockets.IsShutdown() {
		r.metrics.ConnectionsRejected.Inc("shutdown")
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	codec := r.codecs.Resolve(req.URL.Query().Get("vsn"))
	socketID := newSocketID()
	clientIP := limits.GetClientIP(req)
	session := extractSession(req)
	logger := r.logger.With(
		logging.String("socket_id", socketID),
		logging.String("request_id", session.GetString(core.SessionRequestID)),
		logging.String("codec", codec.Name()),
	)

	if r.connLimiter != nil && !r.connLimiter.Acquire(clientIP) {
		r.metrics.ConnectionsRejected.Inc("per_ip")
		logger.Warn("rejecting connection", logging.String("client_ip", clientIP), logging.Err(limits.ErrTooManyConnections))
		http.Error(w, limits.ErrTooManyConnections.Error(), http.StatusTooManyRequests)
		return
	}
	release := func() {
		if r.connLimiter != nil {
			r.connLimiter.Release(clientIP)
		}
	}

	component := route.Component()
	params := extractParams(req)

	lvSession, err := r.sessions.Create(socketID, component, params, session)
	if err != nil {
		release()
		r.metrics.ConnectionsRejected.Inc("capacity")
		logger.Warn("rejecting connection", logging.Err(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	lvSession.RemoteIP = clientIP

	ws := transport.NewWebSocketTransport(r.transportConfig,
		transport.WithCodec(codec),
		transport.WithSecurity(r.wsConfig),
		transport.WithLogger(logger),
	)
	if err := ws.Upgrade(w, req); err != nil {
		release()
		r.sessions.Remove(lvSession.ID)
		r.metrics.ConnectionsRejected.Inc("upgrade")
		logger.Error("websocket upgrade failed", logging.Err(err))
		return
	}

	socket := core.NewSocket(socketID, newTransportAdapter(ws, lvSession.JoinRef))
	lvSession.Socket = socket
	lvSession.Transport = ws
	lvSession.Codec = codec
	r.sockets.Add(socket)
	r.metrics.ConnectionsTotal.Inc()
	r.metrics.ConnectionsActive.Inc()

	// The connection outlives the request, so its context must not derive
	// from req.Context().
	ctx := core.BuildContext(context.Background(), socket, session)
	ctx = logging.ContextWithLogger(ctx, logger)

	logger.Info("live connection opened", logging.String("path", route.Path))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.messageLoop(ctx, lvSession)
	}()
}

// messageLoop processes every message of one connection in order. It owns
// the component: Mount, HandleEvent, Render and Terminate all run here.
func (r *Router) messageLoop(ctx context.Context, session *LiveViewSession) {
	logger := logging.L(ctx)
	defer r.handleDisconnect(ctx, session)

	for msg := range session.Transport.Receive() {
		switch msg.Type {
		case protocol.MsgHeartbeat:
			r.sendReply(session, msg, nil)

		case protocol.MsgJoin:
			r.handleJoin(ctx, session, msg)

		case protocol.MsgLeave:
			logger.Info("live connection left")
			r.sendReply(session, msg, nil)
			return

		default:
			if !session.IsMounted() {
				r.sendError(session, msg, ErrNotJoined)
				continue
			}

			if r.eventLimiter != nil && !r.eventLimiter.Allow(session.ID) {
				r.metrics.EventsLimited.Inc()
				r.sendError(session, msg, limits.ErrRateLimitExceeded)
				continue
			}

			logger.Debug("dispatching event", logging.String("event", msg.Event))
			r.metrics.EventsTotal.Inc(msg.Event)
			payload := msg.Payload
			if payload == nil {
				payload = make(map[string]any)
			}
			if err := session.Component.HandleEvent(ctx, msg.Event, payload); err != nil {
				r.metrics.EventErrors.Inc(msg.Event)
				logger.Debug("event rejected", logging.String("event", msg.Event), logging.Err(err))
				r.sendError(session, msg, err)
				continue
			}
			r.renderAndSendDiff(ctx, session)
		}
	}
}

// handleJoin mounts the component on first join and replies with the full
// render.
func (r *Router) handleJoin(ctx context.Context, session *LiveViewSession, msg *protocol.Message) {
	logger := logging.L(ctx)

	if msg.JoinRef != "" {
		session.SetJoinRef(msg.JoinRef)
	} else {
		session.SetJoinRef(msg.Ref)
	}

	if !session.IsMounted() {
		if err := session.Component.Mount(ctx, session.Params, session.Session); err != nil {
			logger.Error("mount failed", logging.String("component", session.Component.Name()), logging.Err(err))
			r.sendError(session, msg, err)
			return
		}
		session.SetMounted(true)
		logger.Info("component mounted", logging.String("component", session.Component.Name()))
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderTo(ctx, session.Component, buf); err != nil {
		logger.Error("render failed", logging.Err(err))
		r.sendError(session, msg, err)
		return
	}

	r.metrics.RenderTotal.Inc()
	html := buf.String()
	session.SetSlotHashes(hashSlots(extractSlots(html)))

	r.sendReply(session, msg, map[string]any{
		"rendered": map[string]any{
			"s": []string{html},
		},
	})
}

// renderAndSendDiff re-renders the component and pushes the slots whose
// content changed since the last render.
func (r *Router) renderAndSendDiff(ctx context.Context, session *LiveViewSession) {
	logger := logging.L(ctx)

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := renderTo(ctx, session.Component, buf); err != nil {
		logger.Error("render failed", logging.Err(err))
		return
	}
	r.metrics.RenderTotal.Inc()

	payload := r.buildDiffPayload(session, buf.String())
	if payload.IsEmpty() {
		return
	}
	r.metrics.DiffBytes.Add(int64(payload.Size()))
	if err := session.Socket.SendDiff(payload); err != nil {
		logger.Error("send diff failed", logging.Err(err))
	}
}

// buildDiffPayload compares slot hashes with the previous render.
func (r *Router) buildDiffPayload(session *LiveViewSession, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.NextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	textSlots, htmlSlots := extractSlots(html)
	if len(textSlots) == 0 && len(htmlSlots) == 0 {
		payload.Full = html
		return payload
	}

	prev := session.SlotHashes()
	next := hashSlots(textSlots, htmlSlots)

	for id, content := range textSlots {
		if prev[id] != next[id] {
			payload.Slots[id] = content
		}
	}
	for id, content := range htmlSlots {
		if prev[id] != next[id] {
			payload.HTMLSlots[id] = content
		}
	}

	session.SetSlotHashes(next)
	return payload
}

// handleDisconnect terminates the component and releases the connection.
func (r *Router) handleDisconnect(ctx context.Context, session *LiveViewSession) {
	session.closeOnce.Do(func() {
		reason := core.TerminateNormal
		if r.sockets.IsShutdown() {
			reason = core.TerminateShutdown
		}

		if session.IsMounted() {
			if err := session.Component.Terminate(ctx, reason); err != nil {
				logging.L(ctx).Error("terminate failed", logging.Err(err))
			}
		}

		r.sessions.Remove(session.ID)
		r.sockets.Remove(session.SocketID)
		session.Socket.Close()

		if r.eventLimiter != nil {
			r.eventLimiter.Forget(session.ID)
		}
		if r.connLimiter != nil {
			r.connLimiter.Release(session.RemoteIP)
		}
		r.metrics.ConnectionsActive.Dec()

		logging.L(ctx).Info("live connection closed",
			logging.String("reason", reason.String()),
			logging.Duration("duration", time.Since(session.Socket.ConnectedAt())),
		)
	})
}

func (r *Router) sendReply(session *LiveViewSession, msg *protocol.Message, response map[string]any) {
	if response == nil {
		response = map[string]any{}
	}
	reply := protocol.OkReply(msg.Ref, msg.Topic, response)
	reply.JoinRef = msg.JoinRef
	if err := session.Transport.Send(reply); err != nil {
		r.logger.Debug("send reply failed", logging.String("socket_id", session.SocketID), logging.Err(err))
	}
}

func (r *Router) sendError(session *LiveViewSession, msg *protocol.Message, cause error) {
	reply := protocol.ErrorReply(msg.Ref, msg.Topic, cause.Error())
	reply.JoinRef = msg.JoinRef
	if err := session.Transport.Send(reply); err != nil {
		r.logger.Debug("send error reply failed", logging.String("socket_id", session.SocketID), logging.Err(err))
	}
}

func renderTo(ctx context.Context, component core.Component, w io.Writer) error {
	renderer := component.Render(ctx)
	if renderer == nil {
		return ErrNilRenderer
	}
	if err := renderer.Render(ctx, w); err != nil {
		return fmt.Errorf("render %s: %w", component.Name(), err)
	}
	return nil
}

// extractSession carries the request id set by the RequestID middleware
// into the component session.
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	if id := GetRequestID(req.Context()); id != "" {
		session[core.SessionRequestID] = id
	}
	return session
}

// extractParams extracts query parameters.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithLayout wraps the initial HTTP render.
func WithLayout(layout Layout) RouteOption {
	return func(r *LiveRoute) {
		r.Layout = layout
	}
}
