package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestForwardSetsHeaders(t *testing.T) {
	var got http.Header
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		fmt.Fprint(w, `{}`)
	}))
	defer up.Close()

	s := NewService(newTestConfig(up.URL))
	resp, err := s.Forward(context.Background(), map[string]interface{}{"model": "gpt-4o"}, false)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	resp.Body.Close()

	if auth := got.Get("Authorization"); auth != "Bearer ghp_testtoken1234567890" {
		t.Errorf("Authorization = %q", auth)
	}
	if ct := got.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if ua := got.Get("User-Agent"); !strings.HasPrefix(ua, "github-models-proxy/") {
		t.Errorf("User-Agent = %q", ua)
	}
	if got.Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID")
	}
	if accept := got.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q for buffered call", accept)
	}
}

func TestForwardStreamAccept(t *testing.T) {
	var accept string
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer up.Close()

	s := NewService(newTestConfig(up.URL))
	resp, err := s.Forward(context.Background(), map[string]interface{}{}, true)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	resp.Body.Close()

	if accept != "text/event-stream" {
		t.Errorf("Accept = %q for streaming call", accept)
	}
}

func TestForwardHonorsContext(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer up.Close()

	s := NewService(newTestConfig(up.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Forward(ctx, map[string]interface{}{}, false); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestSubmitTestPrompt(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v, want the default", body["model"])
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`)
	}))
	defer up.Close()

	s := NewService(newTestConfig(up.URL))
	got, err := s.SubmitTestPrompt(context.Background(), "ping")
	if err != nil {
		t.Fatalf("SubmitTestPrompt failed: %v", err)
	}
	if got != "pong" {
		t.Errorf("response = %q, want pong", got)
	}
}

func TestSubmitTestPromptUpstreamError(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad credentials"}}`)
	}))
	defer up.Close()

	s := NewService(newTestConfig(up.URL))
	if _, err := s.SubmitTestPrompt(context.Background(), "ping"); err == nil {
		t.Error("expected error for upstream 401")
	}
}
