package model

import (
	"fmt"
	"strings"
	"time"
)

// Tool identifies the category of action an agent wants to perform.
type Tool string

const (
	ToolExec    Tool = "exec"
	ToolBrowser Tool = "browser"
	ToolHTTP    Tool = "http"
	ToolWrite   Tool = "write"
)

// KnownTool reports whether t is one of the supported tool categories.
func KnownTool(t Tool) bool {
	switch t {
	case ToolExec, ToolBrowser, ToolHTTP, ToolWrite:
		return true
	}
	return false
}

// Metadata is optional context attached to an intent at construction.
type Metadata struct {
	Timestamp time.Time `json:"timestamp,omitzero"`
	SessionID string    `json:"session_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Intent describes one proposed action submitted for authorization.
// Build via NewIntent; the gate treats an Intent as immutable.
type Intent struct {
	AgentID  string   `json:"agent_id"`
	Tool     Tool     `json:"tool"`
	Target   string   `json:"target"`
	Payload  any      `json:"payload,omitempty"`
	Metadata Metadata `json:"metadata,omitzero"`
}

// ValidationError reports which intent field failed construction.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intent: invalid %s", e.Field)
}

// NewIntent validates and constructs an Intent.
// AgentID and Target are trimmed and must be non-empty; Tool must be one
// of the known categories. Violations are construction-time failures,
// never deferred to evaluation.
func NewIntent(agentID string, tool Tool, target string, opts ...IntentOption) (*Intent, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, &ValidationError{Field: "agent_id"}
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, &ValidationError{Field: "target"}
	}
	if !KnownTool(tool) {
		return nil, &ValidationError{Field: "tool"}
	}

	in := &Intent{
		AgentID: agentID,
		Tool:    tool,
		Target:  target,
	}
	for _, o := range opts {
		o(in)
	}
	if in.Metadata.Timestamp.IsZero() {
		in.Metadata.Timestamp = time.Now().UTC()
	}
	return in, nil
}

// IntentOption configures optional intent fields at construction.
type IntentOption func(*Intent)

// WithPayload attaches opaque tool-specific data. The gate never
// inspects it.
func WithPayload(payload any) IntentOption {
	return func(in *Intent) { in.Payload = payload }
}

// WithSession sets the session correlation id.
func WithSession(sessionID string) IntentOption {
	return func(in *Intent) { in.Metadata.SessionID = sessionID }
}

// WithReason records the agent's stated reason for the action.
func WithReason(reason string) IntentOption {
	return func(in *Intent) { in.Metadata.Reason = reason }
}

// WithTimestamp overrides the creation timestamp.
func WithTimestamp(ts time.Time) IntentOption {
	return func(in *Intent) { in.Metadata.Timestamp = ts }
}
