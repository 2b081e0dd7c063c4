package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchMatchesEvents(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"block"}},
	})

	d.Dispatch(Event{Decision: "block", Tool: "exec", Target: "rm -rf /"})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Config{
		{URL: srv.URL, Format: "generic", Events: []string{"block"}},
	})

	d.Dispatch(Event{Decision: "allow", Tool: "http", Target: "https://example.com"})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	srv1 := httptest.NewServer(handler)
	defer srv1.Close()
	srv2 := httptest.NewServer(handler)
	defer srv2.Close()

	d := NewDispatcher([]Config{
		{URL: srv1.URL, Format: "generic", Events: []string{"block"}},
		{URL: srv2.URL, Format: "slack", Events: []string{"block", "require_approval"}},
	})

	d.Dispatch(Event{Decision: "block", Tool: "write", Target: "/etc/passwd"})
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", called.Load())
	}
}

func TestNewDispatcherEmpty(t *testing.T) {
	if d := NewDispatcher(nil); d != nil {
		t.Errorf("expected nil dispatcher for empty configs, got %v", d)
	}
}

func TestSendCustomHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := Config{URL: srv.URL, Format: "generic", Headers: map[string]string{"Authorization": "Bearer tok"}}
	if err := Send(cfg, Event{Decision: "block"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected Authorization header, got %q", gotAuth)
	}
}

func TestSendRejectedOn4xx(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := Send(Config{URL: srv.URL, Format: "generic"}, Event{Decision: "block"})
	if err == nil {
		t.Fatal("expected error for 4xx response")
	}
	if called.Load() != 1 {
		t.Errorf("expected no retries on 4xx, got %d calls", called.Load())
	}
}

func TestFormatSlackPayload(t *testing.T) {
	body, err := FormatPayload("slack", Event{Decision: "block", AgentID: "agent-1", Tool: "exec", Target: "rm", Reason: "tool exec is blocked"})
	if err != nil {
		t.Fatalf("FormatPayload failed: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("invalid JSON payload: %v", err)
	}
	if _, ok := payload["blocks"]; !ok {
		t.Error("expected slack payload to contain blocks")
	}
}

func TestFormatGenericRoundTrip(t *testing.T) {
	body, err := FormatPayload("generic", Event{Decision: "require_approval", AgentID: "a", Tool: "http", Target: "https://x", DryRun: true})
	if err != nil {
		t.Fatalf("FormatPayload failed: %v", err)
	}
	var out Event
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid JSON payload: %v", err)
	}
	if out.Decision != "require_approval" || !out.DryRun {
		t.Errorf("unexpected round-trip result: %+v", out)
	}
}
