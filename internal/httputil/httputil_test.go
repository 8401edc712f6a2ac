package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"steps": 3})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["steps"] != 3 {
		t.Errorf("body = %v", body)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no session") }, http.StatusNotFound, "no session"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.msg {
				t.Errorf("error = %q, want %q", body["error"], tt.msg)
			}
		})
	}
}

func TestWriteJSONOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONOK(w, []int{1})
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[1]" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestStartEventStream(t *testing.T) {
	w := httptest.NewRecorder()
	flusher, ok := StartEventStream(w, "connected")
	if !ok || flusher == nil {
		t.Fatal("recorder supports flushing")
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Body.String(); got != ": connected\n\n" {
		t.Errorf("body = %q", got)
	}
}

type plainWriter struct{ http.ResponseWriter }

func TestStartEventStreamUnsupported(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, ok := StartEventStream(plainWriter{rec}, "x"); ok {
		t.Fatal("expected streaming to be unsupported")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetBody(t *testing.T) {
	m := NewMockHTTPClient().
		AddResponse(http.StatusOK, "0,0,0,9.8\n").
		AddResponse(http.StatusNotFound, `{"error":"Session not found"}`).
		AddErrorResponse(errors.New("connection refused"))

	ctx := context.Background()
	body, err := GetBody(ctx, m, "http://stepd/api/sessions/a/samples")
	if err != nil || string(body) != "0,0,0,9.8\n" {
		t.Errorf("GetBody() = %q, %v", body, err)
	}

	_, err = GetBody(ctx, m, "http://stepd/api/sessions/b/samples")
	if err == nil || !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "Session not found") {
		t.Errorf("GetBody() error = %v, want 404 with body", err)
	}

	_, err = GetBody(ctx, m, "http://stepd/api/sessions/c/samples")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("GetBody() error = %v", err)
	}

	if m.RequestCount() != 3 {
		t.Errorf("RequestCount() = %d, want 3", m.RequestCount())
	}
	if got := m.Requests[0].URL.Path; got != "/api/sessions/a/samples" {
		t.Errorf("first request path = %q", got)
	}
}

func TestStandardClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := GetBody(context.Background(), NewStandardClient(nil), srv.URL)
	if err != nil || string(body) != "ok" {
		t.Errorf("GetBody() = %q, %v", body, err)
	}
}
