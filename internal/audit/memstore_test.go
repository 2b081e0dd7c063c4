package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/toolgate/internal/model"
)

func storedEntry(id, agentID string, tool model.Tool, d model.Decision, ts time.Time) StoredLogEntry {
	return StoredLogEntry{
		ID: id,
		LogEntry: LogEntry{
			Timestamp: ts,
			Level:     LevelFor(d.Effect),
			AgentID:   agentID,
			Tool:      tool,
			Target:    "target",
			Decision:  d,
		},
	}
}

var baseTS = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryFIFOEviction(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%d", i), "agent-a", model.ToolExec, model.Allow(), baseTS))
	}

	entries, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", len(entries))
	}
	if entries[0].ID != "id-2" {
		t.Errorf("expected oldest surviving entry id-2, got %s", entries[0].ID)
	}
}

func TestMemoryFilterFields(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	s.Write(ctx, storedEntry("1", "agent-a", model.ToolExec, model.Block("no"), baseTS))
	s.Write(ctx, storedEntry("2", "agent-b", model.ToolHTTP, model.Allow(), baseTS.Add(time.Minute)))
	s.Write(ctx, storedEntry("3", "agent-a", model.ToolHTTP, model.Allow(), baseTS.Add(2*time.Minute)))

	byAgent, _ := s.Query(ctx, Filter{AgentID: "agent-a"})
	if len(byAgent) != 2 {
		t.Errorf("expected 2 entries for agent-a, got %d", len(byAgent))
	}

	byTool, _ := s.Query(ctx, Filter{Tool: model.ToolHTTP})
	if len(byTool) != 2 {
		t.Errorf("expected 2 http entries, got %d", len(byTool))
	}

	byEffect, _ := s.Query(ctx, Filter{Effect: model.EffectBlock})
	if len(byEffect) != 1 || byEffect[0].ID != "1" {
		t.Errorf("expected the single blocked entry, got %+v", byEffect)
	}
}

func TestMemoryTimeRangeInclusive(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ts := baseTS.Add(time.Duration(i) * time.Minute)
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%d", i), "agent-a", model.ToolExec, model.Allow(), ts))
	}

	entries, _ := s.Query(ctx, Filter{From: baseTS, To: baseTS.Add(time.Minute)})
	if len(entries) != 2 {
		t.Errorf("expected 2 entries in inclusive range, got %d", len(entries))
	}

	exact, _ := s.Query(ctx, Filter{From: baseTS.Add(time.Minute), To: baseTS.Add(time.Minute)})
	if len(exact) != 1 {
		t.Errorf("expected boundary timestamps included, got %d", len(exact))
	}
}

func TestMemoryPagination(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%d", i), "agent-a", model.ToolExec, model.Allow(), baseTS))
	}

	page, _ := s.Query(ctx, Filter{Limit: 4, Offset: 8})
	if len(page) != 2 {
		t.Errorf("expected 2 entries on the last page, got %d", len(page))
	}
	if len(page) > 0 && page[0].ID != "id-8" {
		t.Errorf("expected page to start at id-8, got %s", page[0].ID)
	}

	past, _ := s.Query(ctx, Filter{Offset: 50})
	if len(past) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(past))
	}
}

func TestMemoryNegativeOffsetMeansFirstPage(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%d", i), "agent-a", model.ToolExec, model.Allow(), baseTS))
	}

	// Filters arrive straight from CLI flags and MCP callers; a negative
	// offset must not panic the query path.
	entries, err := s.Query(ctx, Filter{Offset: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
	if len(entries) > 0 && entries[0].ID != "id-0" {
		t.Errorf("expected first page to start at id-0, got %s", entries[0].ID)
	}
}

func TestMemoryCountIgnoresPagination(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%d", i), "agent-a", model.ToolExec, model.Allow(), baseTS))
	}

	n, err := s.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 150 {
		t.Errorf("expected count 150, got %d", n)
	}

	// Query without an explicit limit pages at the default.
	entries, _ := s.Query(ctx, Filter{})
	if len(entries) != DefaultLimit {
		t.Errorf("expected default page of %d, got %d", DefaultLimit, len(entries))
	}
}
