package rule

import (
	"context"

	"github.com/ppiankov/toolgate/internal/model"
)

// Rule is a single policy check over an intent.
//
// Evaluate returns (decision, true) when the rule reaches a verdict and
// (zero, false) to pass through — the rule has no opinion and evaluation
// continues with the next rule. A non-nil error is a rule failure; the
// gate converts it into a block (fail-closed). Rules must not mutate the
// intent. Private state belongs inside the rule value, not in shared
// globals.
type Rule interface {
	Name() string
	Evaluate(in *model.Intent) (model.Decision, bool, error)
}

// AsyncRule is a policy check that may suspend (network lookups,
// out-of-process checks). The gate awaits each async rule in declaration
// order; it never derives deadlines from ctx — callers needing timeouts
// wrap evaluation externally.
type AsyncRule interface {
	Name() string
	Evaluate(ctx context.Context, in *model.Intent) (model.Decision, bool, error)
}

// Func adapts a plain function to a named Rule.
type Func struct {
	RuleName string
	Fn       func(in *model.Intent) (model.Decision, bool, error)
}

func (f Func) Name() string { return f.RuleName }

func (f Func) Evaluate(in *model.Intent) (model.Decision, bool, error) {
	return f.Fn(in)
}

// AsyncFunc adapts a plain function to a named AsyncRule.
type AsyncFunc struct {
	RuleName string
	Fn       func(ctx context.Context, in *model.Intent) (model.Decision, bool, error)
}

func (f AsyncFunc) Name() string { return f.RuleName }

func (f AsyncFunc) Evaluate(ctx context.Context, in *model.Intent) (model.Decision, bool, error) {
	return f.Fn(ctx, in)
}
