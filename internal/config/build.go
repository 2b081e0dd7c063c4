package config

import (
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/toolgate/internal/alert"
	"github.com/ppiankov/toolgate/internal/audit"
	"github.com/ppiankov/toolgate/internal/gate"
	"github.com/ppiankov/toolgate/internal/model"
	"github.com/ppiankov/toolgate/internal/ratelimit"
	"github.com/ppiankov/toolgate/internal/rule"
)

// Runtime is a gate wired to its audit logger, built from one Config.
type Runtime struct {
	Gate   *gate.Gate
	Logger *audit.Logger

	closer io.Closer
}

// Close releases the audit backend, if it holds resources.
func (r *Runtime) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Build compiles a config into a running gate. All validation happens
// here, at construction time: a bad rule spec or limiter parameter never
// reaches evaluation.
func Build(cfg *Config, opts ...BuildOption) (*Runtime, error) {
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	rules, err := buildRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	def, err := defaultDecision(cfg)
	if err != nil {
		return nil, err
	}

	store, closer, err := openStore(cfg.Audit)
	if err != nil {
		return nil, err
	}

	var logOpts []audit.LoggerOption
	if bo.tee != nil {
		logOpts = append(logOpts, audit.WithTee(bo.tee))
	}
	if bo.onError != nil {
		logOpts = append(logOpts, audit.WithOnError(bo.onError))
	}
	logger := audit.NewLogger(store, logOpts...)
	dispatcher := alert.NewDispatcher(cfg.Alerts)

	g := gate.New(rules,
		gate.WithDefault(def),
		gate.WithDryRun(cfg.DryRun),
		gate.WithLogger(func(e audit.LogEntry) {
			logger.Log(e)
			if dispatcher != nil {
				dispatcher.Dispatch(alertEvent(e))
			}
		}),
	)

	return &Runtime{Gate: g, Logger: logger, closer: closer}, nil
}

// NewGate compiles just the rule chain and default decision from a
// config, without audit or alert wiring. Dry-run mode is ignored so the
// caller sees the real decision. The scenario runner uses it to get a
// side-effect-free gate per test case.
func NewGate(cfg *Config) (*gate.Gate, error) {
	rules, err := buildRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	def, err := defaultDecision(cfg)
	if err != nil {
		return nil, err
	}
	return gate.New(rules, gate.WithDefault(def)), nil
}

// BuildOption adjusts runtime wiring that is not part of the policy
// file.
type BuildOption func(*buildOptions)

type buildOptions struct {
	tee     io.Writer
	onError func(error)
}

// WithTee mirrors raw audit entries to w.
func WithTee(w io.Writer) BuildOption {
	return func(b *buildOptions) { b.tee = w }
}

// WithOnError receives audit storage failures.
func WithOnError(fn func(error)) BuildOption {
	return func(b *buildOptions) { b.onError = fn }
}

func alertEvent(e audit.LogEntry) alert.Event {
	return alert.Event{
		Timestamp: e.Timestamp.Format(time.RFC3339),
		AgentID:   e.AgentID,
		Tool:      string(e.Tool),
		Target:    e.Target,
		Decision:  string(e.Decision.Effect),
		Reason:    e.Decision.Reason,
		DryRun:    e.DryRun,
	}
}

func buildRules(specs []RuleSpec) ([]rule.Rule, error) {
	rules := make([]rule.Rule, 0, len(specs))
	for i, s := range specs {
		r, err := buildRule(s)
		if err != nil {
			return nil, fmt.Errorf("config: rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func buildRule(s RuleSpec) (rule.Rule, error) {
	switch s.Type {
	case "block_tool":
		tool, err := parseTool(s.Tool)
		if err != nil {
			return nil, err
		}
		return rule.BlockTool(tool, s.Reason), nil

	case "allow_tool":
		tool, err := parseTool(s.Tool)
		if err != nil {
			return nil, err
		}
		return rule.AllowTool(tool), nil

	case "require_approval":
		tool, err := parseTool(s.Tool)
		if err != nil {
			return nil, err
		}
		return rule.RequireApprovalForTool(tool, s.Reason), nil

	case "block_targets":
		if len(s.Patterns) == 0 {
			return nil, fmt.Errorf("block_targets needs at least one pattern")
		}
		return rule.BlockTargets(s.Patterns...), nil

	case "rate_limit":
		window, err := time.ParseDuration(s.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid window %q: %w", s.Window, err)
		}
		return ratelimit.New(s.MaxCalls, window, s.PerAgent)

	case "allow_all":
		return rule.AllowAll(), nil
	}
	return nil, fmt.Errorf("unknown rule type %q", s.Type)
}

func parseTool(s string) (model.Tool, error) {
	tool := model.Tool(s)
	if !model.KnownTool(tool) {
		return "", fmt.Errorf("unknown tool %q", s)
	}
	return tool, nil
}

func defaultDecision(cfg *Config) (model.Decision, error) {
	reason := cfg.DefaultReason
	switch cfg.Default {
	case "allow":
		return model.Allow(), nil
	case "block":
		if reason == "" {
			reason = "blocked by default policy"
		}
		return model.Block(reason), nil
	case "require_approval":
		if reason == "" {
			reason = "no rules matched"
		}
		return model.RequireApproval(reason), nil
	}
	return model.Decision{}, fmt.Errorf("config: unknown default decision %q", cfg.Default)
}

func openStore(a AuditConfig) (audit.Store, io.Closer, error) {
	switch a.Backend {
	case "", "memory":
		return audit.NewMemoryStore(a.Capacity), nil, nil

	case "file":
		if a.Path == "" {
			return nil, nil, fmt.Errorf("config: audit backend file needs a path")
		}
		fs, err := audit.OpenFileStore(a.Path, a.MaxBytes)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil

	case "sqlite":
		if a.Path == "" {
			return nil, nil, fmt.Errorf("config: audit backend sqlite needs a path")
		}
		ss, err := audit.OpenSQLStore(a.Path)
		if err != nil {
			return nil, nil, err
		}
		return ss, ss, nil
	}
	return nil, nil, fmt.Errorf("config: unknown audit backend %q", a.Backend)
}
