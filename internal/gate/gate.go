// Package gate evaluates intents against an ordered rule chain and
// renders exactly one decision per call. Rules run in declaration order;
// the first verdict wins. A rule failure of any kind blocks the action
// (fail-closed). Evaluation never panics past the gate boundary and a
// caller always receives a well-formed decision.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/toolgate/internal/audit"
	"github.com/ppiankov/toolgate/internal/model"
	"github.com/ppiankov/toolgate/internal/rule"
)

// LogFunc receives the audit entry for one evaluation. Invoked
// synchronously on every evaluate call regardless of outcome; failures
// are contained by the gate.
type LogFunc func(audit.LogEntry)

// Gate owns an ordered rule chain and a default decision for its
// lifetime. The audit logger is injected and shared; rate-limiter window
// state belongs to the rule that carries it.
type Gate struct {
	rules      []rule.Rule
	defaultDec model.Decision
	dryRun     bool
	log        LogFunc
}

// Option configures a Gate at creation time.
type Option func(*Gate)

// WithDefault overrides the decision applied when every rule passes
// through. The gate ships failing toward caution: require approval, not
// allow.
func WithDefault(d model.Decision) Option {
	return func(g *Gate) { g.defaultDec = d }
}

// WithDryRun computes and logs real decisions but always returns allow.
// Observation without enforcement.
func WithDryRun(enabled bool) Option {
	return func(g *Gate) { g.dryRun = enabled }
}

// WithLogger sets the audit callback.
func WithLogger(fn LogFunc) Option {
	return func(g *Gate) { g.log = fn }
}

// New creates a Gate over the given rule chain.
func New(rules []rule.Rule, opts ...Option) *Gate {
	g := &Gate{
		rules:      rules,
		defaultDec: model.RequireApproval("no rules matched"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Evaluate runs the synchronous rule chain and returns the verdict.
func (g *Gate) Evaluate(in *model.Intent) model.Decision {
	start := time.Now()
	decision := g.runChain(in)
	return g.finish(in, decision, start)
}

// EvaluateAsync composes the synchronous chain with ordered async rules.
// Async rules run only if the synchronous chain allowed the intent; each
// is awaited before the next, so side effects stay ordered and the first
// verdict short-circuits the rest. One audit entry is emitted at the
// end, covering the total elapsed time.
func (g *Gate) EvaluateAsync(ctx context.Context, in *model.Intent, asyncRules []rule.AsyncRule) model.Decision {
	start := time.Now()

	decision := g.runChain(in)
	if !decision.IsAllowed() || len(asyncRules) == 0 {
		return g.finish(in, decision, start)
	}

	for _, r := range asyncRules {
		d, decided, err := runAsyncRule(ctx, r, in)
		if err != nil {
			return g.finish(in, model.Block(fmt.Sprintf("rule %s failed: %v", r.Name(), err)), start)
		}
		if decided {
			return g.finish(in, d, start)
		}
	}

	return g.finish(in, g.defaultDec, start)
}

// runChain walks the synchronous rules in declaration order. The first
// decisive rule wins; a failing rule blocks immediately with the
// underlying error in the reason.
func (g *Gate) runChain(in *model.Intent) model.Decision {
	for _, r := range g.rules {
		d, decided, err := runRule(r, in)
		if err != nil {
			return model.Block(fmt.Sprintf("rule %s failed: %v", r.Name(), err))
		}
		if decided {
			return d
		}
	}
	return g.defaultDec
}

// finish logs the real decision and applies dry-run to the returned one.
func (g *Gate) finish(in *model.Intent, decision model.Decision, start time.Time) model.Decision {
	g.emit(audit.NewLogEntry(in, decision, time.Since(start), g.dryRun))
	if g.dryRun {
		return model.Allow()
	}
	return decision
}

// emit invokes the logger inside a failure boundary. A logging failure
// must never alter or escape an evaluation.
func (g *Gate) emit(entry audit.LogEntry) {
	if g.log == nil {
		return
	}
	defer func() { _ = recover() }()
	g.log(entry)
}

// runRule is the fail-closed boundary around one synchronous rule: a
// panic becomes an error, and a decision outside the closed set is
// treated as a rule failure.
func runRule(r rule.Rule, in *model.Intent) (d model.Decision, decided bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d, decided, err = model.Decision{}, false, fmt.Errorf("panic: %v", rec)
		}
	}()
	d, decided, err = r.Evaluate(in)
	if err == nil && decided && !d.Valid() {
		return model.Decision{}, false, fmt.Errorf("invalid decision %q", d.Effect)
	}
	return d, decided, err
}

// runAsyncRule is the same boundary for async rules.
func runAsyncRule(ctx context.Context, r rule.AsyncRule, in *model.Intent) (d model.Decision, decided bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d, decided, err = model.Decision{}, false, fmt.Errorf("panic: %v", rec)
		}
	}()
	d, decided, err = r.Evaluate(ctx, in)
	if err == nil && decided && !d.Valid() {
		return model.Decision{}, false, fmt.Errorf("invalid decision %q", d.Effect)
	}
	return d, decided, err
}
