package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewIntentValid(t *testing.T) {
	in, err := NewIntent("agent-1", ToolExec, "git status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.AgentID != "agent-1" || in.Tool != ToolExec || in.Target != "git status" {
		t.Errorf("unexpected intent: %+v", in)
	}
	if in.Metadata.Timestamp.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

func TestNewIntentTrimsFields(t *testing.T) {
	in, err := NewIntent("  agent-1  ", ToolHTTP, "  https://example.com  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.AgentID != "agent-1" {
		t.Errorf("expected trimmed agent id, got %q", in.AgentID)
	}
	if in.Target != "https://example.com" {
		t.Errorf("expected trimmed target, got %q", in.Target)
	}
}

func TestNewIntentEmptyAgentID(t *testing.T) {
	_, err := NewIntent("   ", ToolExec, "ls")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "agent_id" {
		t.Errorf("expected agent_id field, got %q", verr.Field)
	}
}

func TestNewIntentEmptyTarget(t *testing.T) {
	_, err := NewIntent("agent-1", ToolExec, " \t ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "target" {
		t.Errorf("expected target field, got %q", verr.Field)
	}
}

func TestNewIntentUnknownTool(t *testing.T) {
	_, err := NewIntent("agent-1", Tool("teleport"), "somewhere")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "tool" {
		t.Errorf("expected tool field, got %q", verr.Field)
	}
}

func TestNewIntentOptions(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in, err := NewIntent("agent-1", ToolWrite, "/tmp/out.txt",
		WithPayload([]byte("data")),
		WithSession("sess-9"),
		WithReason("writing results"),
		WithTimestamp(ts),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Metadata.SessionID != "sess-9" {
		t.Errorf("expected session sess-9, got %q", in.Metadata.SessionID)
	}
	if in.Metadata.Reason != "writing results" {
		t.Errorf("expected reason, got %q", in.Metadata.Reason)
	}
	if !in.Metadata.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %v, got %v", ts, in.Metadata.Timestamp)
	}
	if in.Payload == nil {
		t.Error("expected payload to be set")
	}
}

func TestKnownTool(t *testing.T) {
	for _, tool := range []Tool{ToolExec, ToolBrowser, ToolHTTP, ToolWrite} {
		if !KnownTool(tool) {
			t.Errorf("expected %q to be known", tool)
		}
	}
	if KnownTool(Tool("rm")) {
		t.Error("expected rm to be unknown")
	}
}
