package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/toolgate/internal/audit"
	"github.com/ppiankov/toolgate/internal/model"
)

// CheckInput defines parameters for the toolgate_check tool.
type CheckInput struct {
	AgentID string `json:"agent_id,omitempty" jsonschema:"identity of the requesting agent, defaults to the server's agent id"`
	Tool    string `json:"tool" jsonschema:"tool category (exec/browser/http/write)"`
	Target  string `json:"target" jsonschema:"command, URL, or path the action touches"`
	Reason  string `json:"reason,omitempty" jsonschema:"why the agent wants to perform the action"`
	Session string `json:"session,omitempty" jsonschema:"session correlation id"`
}

// CheckOutput contains the policy decision.
type CheckOutput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// AuditInput defines parameters for the toolgate_audit tool.
type AuditInput struct {
	AgentID  string `json:"agent_id,omitempty" jsonschema:"filter by agent id"`
	Tool     string `json:"tool,omitempty" jsonschema:"filter by tool category"`
	Decision string `json:"decision,omitempty" jsonschema:"filter by decision effect (allow/block/require_approval)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"page size, default 100"`
	Offset   int    `json:"offset,omitempty" jsonschema:"page offset"`
}

// AuditRecord is one persisted decision in toolgate_audit output.
type AuditRecord struct {
	ID       string `json:"id"`
	TS       string `json:"ts"`
	AgentID  string `json:"agent_id"`
	Tool     string `json:"tool"`
	Target   string `json:"target"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// AuditOutput contains matching audit records and the unpaginated total.
type AuditOutput struct {
	Entries []AuditRecord `json:"entries"`
	Total   int           `json:"total"`
}

// IntentFromCheck maps the MCP tool-call shape onto a canonical intent.
// Pure data mapping; validation errors surface to the caller unchanged.
func IntentFromCheck(input CheckInput, defaultAgentID string) (*model.Intent, error) {
	agentID := input.AgentID
	if agentID == "" {
		agentID = defaultAgentID
	}
	var opts []model.IntentOption
	if input.Reason != "" {
		opts = append(opts, model.WithReason(input.Reason))
	}
	if input.Session != "" {
		opts = append(opts, model.WithSession(input.Session))
	}
	return model.NewIntent(agentID, model.Tool(input.Tool), input.Target, opts...)
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	in, err := IntentFromCheck(input, s.cfg.AgentID)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, CheckOutput{}, err
	}

	d := s.runtime().Gate.Evaluate(in)
	out := CheckOutput{
		Decision: string(d.Effect),
		Reason:   d.Reason,
	}
	return nil, out, nil
}

func (s *Server) handleAudit(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	f := audit.Filter{
		AgentID: input.AgentID,
		Tool:    model.Tool(input.Tool),
		Effect:  model.Effect(input.Decision),
		Limit:   input.Limit,
		Offset:  input.Offset,
	}

	rt := s.runtime()
	entries, err := rt.Logger.Query(ctx, f)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, AuditOutput{}, fmt.Errorf("audit query: %w", err)
	}
	total, err := rt.Logger.Count(ctx, f)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, AuditOutput{}, fmt.Errorf("audit count: %w", err)
	}

	out := AuditOutput{Total: total, Entries: make([]AuditRecord, len(entries))}
	for i, e := range entries {
		out.Entries[i] = AuditRecord{
			ID:       e.ID,
			TS:       e.Timestamp.Format(time.RFC3339Nano),
			AgentID:  e.AgentID,
			Tool:     string(e.Tool),
			Target:   e.Target,
			Decision: string(e.Decision.Effect),
			Reason:   e.Decision.Reason,
			DryRun:   e.DryRun,
		}
	}
	return nil, out, nil
}
