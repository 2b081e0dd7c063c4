package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/toolgate/internal/model"
)

func openTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLReadAfterWrite(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()

	entry := storedEntry("id-1", "agent-a", model.ToolHTTP, model.Block("bad host"), baseTS)
	entry.Duration = 7 * time.Millisecond
	entry.DryRun = true
	if err := s.Write(ctx, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.ID != "id-1" || got.AgentID != "agent-a" || got.Tool != model.ToolHTTP {
		t.Errorf("unexpected entry: %+v", got)
	}
	if !got.Decision.IsBlocked() || got.Decision.Reason != "bad host" {
		t.Errorf("expected decision to round-trip, got %+v", got.Decision)
	}
	if got.Duration != 7*time.Millisecond {
		t.Errorf("expected duration to round-trip, got %s", got.Duration)
	}
	if !got.DryRun {
		t.Error("expected dry_run to round-trip")
	}
	if !got.Timestamp.Equal(baseTS) {
		t.Errorf("expected timestamp %v, got %v", baseTS, got.Timestamp)
	}
}

func TestSQLFilterFields(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()

	s.Write(ctx, storedEntry("1", "agent-a", model.ToolExec, model.Block("no"), baseTS))
	s.Write(ctx, storedEntry("2", "agent-b", model.ToolHTTP, model.Allow(), baseTS.Add(time.Minute)))
	s.Write(ctx, storedEntry("3", "agent-a", model.ToolHTTP, model.Allow(), baseTS.Add(2*time.Minute)))

	byAgent, err := s.Query(ctx, Filter{AgentID: "agent-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byAgent) != 2 {
		t.Errorf("expected 2 entries for agent-a, got %d", len(byAgent))
	}

	byEffect, _ := s.Query(ctx, Filter{Effect: model.EffectBlock})
	if len(byEffect) != 1 || byEffect[0].ID != "1" {
		t.Errorf("expected the single blocked entry, got %+v", byEffect)
	}

	inRange, _ := s.Query(ctx, Filter{From: baseTS.Add(time.Minute), To: baseTS.Add(time.Minute)})
	if len(inRange) != 1 || inRange[0].ID != "2" {
		t.Errorf("expected inclusive boundary match, got %+v", inRange)
	}
}

func TestSQLCountAndPagination(t *testing.T) {
	s := openTestSQLStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ts := baseTS.Add(time.Duration(i) * time.Second)
		s.Write(ctx, storedEntry(fmt.Sprintf("id-%02d", i), "agent-a", model.ToolExec, model.Allow(), ts))
	}

	n, err := s.Count(ctx, Filter{Offset: 8, Limit: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 10 {
		t.Errorf("expected count to ignore pagination, got %d", n)
	}

	page, err := s.Query(ctx, Filter{Offset: 8, Limit: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries on the last page, got %d", len(page))
	}
	if page[0].ID != "id-08" {
		t.Errorf("expected page ordered by timestamp, got %s first", page[0].ID)
	}

	// A negative offset from an untrusted caller means the first page.
	first, err := s.Query(ctx, Filter{Offset: -1, Limit: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 4 || first[0].ID != "id-00" {
		t.Errorf("expected first page for negative offset, got %+v", first)
	}
}
