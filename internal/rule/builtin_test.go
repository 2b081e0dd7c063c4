package rule

import (
	"testing"

	"github.com/ppiankov/toolgate/internal/model"
)

func testIntent(t *testing.T, tool model.Tool, target string) *model.Intent {
	t.Helper()
	in, err := model.NewIntent("agent-1", tool, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return in
}

func TestBlockToolMatching(t *testing.T) {
	r := BlockTool(model.ToolExec, "shell disabled")

	d, decided, err := r.Evaluate(testIntent(t, model.ToolExec, "rm -rf /tmp/x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decided || !d.IsBlocked() || d.Reason != "shell disabled" {
		t.Errorf("expected block with reason, got %+v decided=%v", d, decided)
	}

	_, decided, _ = r.Evaluate(testIntent(t, model.ToolHTTP, "https://example.com"))
	if decided {
		t.Error("expected pass-through for other tools")
	}
}

func TestBlockToolDefaultReason(t *testing.T) {
	r := BlockTool(model.ToolWrite, "")
	d, _, _ := r.Evaluate(testIntent(t, model.ToolWrite, "/etc/passwd"))
	if d.Reason == "" {
		t.Error("expected a generated reason when none is given")
	}
}

func TestAllowTool(t *testing.T) {
	r := AllowTool(model.ToolHTTP)

	d, decided, _ := r.Evaluate(testIntent(t, model.ToolHTTP, "https://example.com"))
	if !decided || !d.IsAllowed() {
		t.Errorf("expected allow, got %+v decided=%v", d, decided)
	}

	_, decided, _ = r.Evaluate(testIntent(t, model.ToolExec, "ls"))
	if decided {
		t.Error("expected pass-through for other tools")
	}
}

func TestRequireApprovalForTool(t *testing.T) {
	r := RequireApprovalForTool(model.ToolWrite, "writes need review")
	d, decided, _ := r.Evaluate(testIntent(t, model.ToolWrite, "/data/out"))
	if !decided || !d.RequiresApproval() || d.Reason != "writes need review" {
		t.Errorf("expected require_approval, got %+v", d)
	}
}

func TestBlockTargetsContainment(t *testing.T) {
	r := BlockTargets("prod-db")

	d, decided, _ := r.Evaluate(testIntent(t, model.ToolExec, "ssh PROD-DB-3"))
	if !decided || !d.IsBlocked() {
		t.Errorf("expected case-insensitive containment block, got %+v", d)
	}

	_, decided, _ = r.Evaluate(testIntent(t, model.ToolExec, "ssh staging-db"))
	if decided {
		t.Error("expected pass-through for non-matching target")
	}
}

func TestBlockTargetsGlob(t *testing.T) {
	r := BlockTargets("https://*.internal/*")

	d, decided, _ := r.Evaluate(testIntent(t, model.ToolHTTP, "https://billing.internal/export"))
	if !decided || !d.IsBlocked() {
		t.Errorf("expected glob block, got %+v decided=%v", d, decided)
	}

	_, decided, _ = r.Evaluate(testIntent(t, model.ToolHTTP, "https://example.com/ok"))
	if decided {
		t.Error("expected pass-through for non-matching URL")
	}
}

func TestAllowAll(t *testing.T) {
	r := AllowAll()
	for _, tool := range []model.Tool{model.ToolExec, model.ToolBrowser, model.ToolHTTP, model.ToolWrite} {
		d, decided, err := r.Evaluate(testIntent(t, tool, "anything"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decided || !d.IsAllowed() {
			t.Errorf("%s: expected allow, got %+v", tool, d)
		}
	}
}
