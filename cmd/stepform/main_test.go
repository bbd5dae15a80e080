package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/gabrielmiguelok/stepform/internal/config"
	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/logging"
	"github.com/gabrielmiguelok/stepform/pkg/stepform"
)

func newTestServer(t *testing.T) (*app, *httptest.Server) {
	t.Helper()
	a := newApp(config.Default(), logging.NopLogger{})
	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)
	return a, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return resp, string(body)
}

func TestApp_Routes(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", `<script src="/_live/stepform.js" defer></script>`},
		{"/health", http.StatusOK, "application/json", `"status":"healthy"`},
		{"/livez", http.StatusOK, "application/json", `"status"`},
		{"/readyz", http.StatusOK, "application/json", `"draining"`},
		{"/metrics", http.StatusOK, "text/plain", "stepform_connections_active"},
		{"/_live/stepform.js", http.StatusOK, "javascript", "lv:stepform"},
		{"/nope", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if tt.status == http.StatusOK && resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("secure headers missing")
			}
		})
	}
}

func TestApp_InitialPage(t *testing.T) {
	_, srv := newTestServer(t)

	_, body := get(t, srv.URL+"/")
	for _, want := range []string{
		`<html lang="it">`,
		"<title>Registrazione</title>",
		`data-layout="desktop"`,
		`data-slot="step-name"`,
		"Completa i tre passaggi",
		"Avanti",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var tuple []any
	if err := json.Unmarshal(data, &tuple); err != nil || len(tuple) != 5 {
		t.Fatalf("bad frame %s: %v", data, err)
	}
	event, _ := tuple[3].(string)
	payload, _ := tuple[4].(map[string]any)
	return event, payload
}

func writeFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, ref, event string, payload map[string]any) {
	t.Helper()
	data, _ := json.Marshal([]any{"1", ref, "lv:stepform", event, payload})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func TestApp_LiveFlow(t *testing.T) {
	a, srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/?vsn=phoenix&vw=390", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	writeFrame(t, ctx, conn, "1", "phx_join", map[string]any{})
	event, payload := readFrame(t, ctx, conn)
	if event != "phx_reply" || payload["status"] != "ok" {
		t.Fatalf("join reply = %s %v", event, payload)
	}
	rendered := payload["response"].(map[string]any)["rendered"].(map[string]any)["s"].([]any)[0].(string)
	if !strings.Contains(rendered, `data-layout="mobile"`) {
		t.Errorf("join render is not mobile: %q", rendered)
	}

	writeFrame(t, ctx, conn, "2", "next", map[string]any{"value": "Mario"})

	event, payload = readFrame(t, ctx, conn)
	if event != "layout" {
		t.Fatalf("first push = %s, want layout", event)
	}
	if payload["transform"] != "translateX(-100%)" {
		t.Errorf("transform = %v", payload["transform"])
	}

	event, payload = readFrame(t, ctx, conn)
	if event != "diff" {
		t.Fatalf("second push = %s, want diff", event)
	}
	html, _ := payload["h"].(map[string]any)
	if _, ok := html["step-name"]; !ok {
		t.Errorf("name panel not patched: %v", html)
	}
	if _, ok := html["step-password"]; ok {
		t.Errorf("unchanged password panel resent")
	}

	if got := a.router.Metrics().EventsTotal.Values()["next"]; got != 1 {
		t.Errorf("next events = %d, want 1", got)
	}
}

func TestRenderError_HidesCause(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(logging.WithOutput(&buf))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logging.ContextWithLogger(req.Context(), logger))
	rec := httptest.NewRecorder()

	renderError(rec, req, errors.New("mount: secret detail"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret detail") {
		t.Errorf("body leaks the error: %q", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "secret detail") {
		t.Errorf("error not logged: %q", buf.String())
	}
}

func TestSubmitLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	hook := submitLogger(logging.NewSlogLogger(logging.WithOutput(&buf)))
	ctx := core.WithSession(context.Background(), core.Session{core.SessionRequestID: "req-42"})

	hook(ctx, stepform.Ack{Data: stepform.FormData{Name: "Mario", Email: "mario@example.com", Password: "hunter2"}})

	out := buf.String()
	for _, want := range []string{"request_id=req-42", "name=Mario", "email=mario@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password logged")
	}
}
