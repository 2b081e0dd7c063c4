package model

// Effect is the enforcement outcome of an evaluation.
type Effect string

const (
	EffectAllow           Effect = "allow"
	EffectBlock           Effect = "block"
	EffectRequireApproval Effect = "require_approval"
)

// Decision is the gate's verdict for one intent. Exactly one is produced
// per evaluation. Block decisions always carry a reason; approval
// decisions may.
type Decision struct {
	Effect Effect `json:"effect"`
	Reason string `json:"reason,omitempty"`
}

// Allow constructs an allow decision.
func Allow() Decision {
	return Decision{Effect: EffectAllow}
}

// Block constructs a block decision. A block without justification is a
// contract violation; an empty reason yields an invalid decision that
// the gate refuses (fails closed).
func Block(reason string) Decision {
	return Decision{Effect: EffectBlock, Reason: reason}
}

// RequireApproval constructs a decision deferring to a human. The reason
// is optional.
func RequireApproval(reason string) Decision {
	return Decision{Effect: EffectRequireApproval, Reason: reason}
}

// IsAllowed reports whether d permits the action.
func (d Decision) IsAllowed() bool {
	return d.Effect == EffectAllow
}

// IsBlocked reports whether d denies the action.
func (d Decision) IsBlocked() bool {
	return d.Effect == EffectBlock
}

// RequiresApproval reports whether d defers to a human.
func (d Decision) RequiresApproval() bool {
	return d.Effect == EffectRequireApproval
}

// Valid reports whether d is a well-formed member of the closed decision
// set. An unknown effect, or a block with no reason, is invalid and must
// never escape the gate.
func (d Decision) Valid() bool {
	switch d.Effect {
	case EffectAllow, EffectRequireApproval:
		return true
	case EffectBlock:
		return d.Reason != ""
	}
	return false
}
