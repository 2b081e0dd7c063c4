package toolgate

import (
	"fmt"

	"github.com/ppiankov/toolgate/internal/model"
)

// Decision is the authorization outcome.
type Decision string

const (
	Allow           Decision = Decision(model.EffectAllow)
	Block           Decision = Decision(model.EffectBlock)
	RequireApproval Decision = Decision(model.EffectRequireApproval)
)

// Action describes what a tool intends to do.
type Action struct {
	Tool    string // tool category: "exec", "browser", "http", "write"
	Target  string // command, URL, or path
	Payload any    // opaque tool-specific data, never inspected
	Reason  string // optional: why the agent wants this
	Session string // optional: session correlation id
}

// Result is an evaluation outcome.
type Result struct {
	Decision Decision
	Reason   string
}

// Allowed returns true if the decision permits the action.
func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// BlockedError is returned when the gate blocks an action or requires
// approval for it.
type BlockedError struct {
	Action   Action
	Decision Decision
	Reason   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("toolgate blocked (%s): %s", e.Decision, e.Reason)
}

// toIntent maps an SDK Action to a canonical intent. Validation errors
// surface to the caller.
func toIntent(a Action, agentID string) (*model.Intent, error) {
	var opts []model.IntentOption
	if a.Payload != nil {
		opts = append(opts, model.WithPayload(a.Payload))
	}
	if a.Reason != "" {
		opts = append(opts, model.WithReason(a.Reason))
	}
	if a.Session != "" {
		opts = append(opts, model.WithSession(a.Session))
	}
	return model.NewIntent(agentID, model.Tool(a.Tool), a.Target, opts...)
}

// toResult maps an internal decision to an SDK Result.
func toResult(d model.Decision) Result {
	return Result{
		Decision: Decision(d.Effect),
		Reason:   d.Reason,
	}
}
