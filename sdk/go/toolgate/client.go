package toolgate

import (
	"context"
	"fmt"

	"github.com/ppiankov/toolgate/internal/audit"
	"github.com/ppiankov/toolgate/internal/config"
)

// Client holds the gate and audit pipeline for in-process enforcement.
// Safe for concurrent tool calls.
type Client struct {
	cfg clientConfig
	rt  *config.Runtime
}

// New creates a Client with the given options. The policy file is loaded
// once; missing file means the default policy.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{agentID: "sdk"}
	for _, o := range opts {
		o(&cfg)
	}

	policyCfg, err := config.Load(cfg.policyPath)
	if err != nil {
		return nil, fmt.Errorf("toolgate: load policy: %w", err)
	}
	rt, err := config.Build(policyCfg)
	if err != nil {
		return nil, fmt.Errorf("toolgate: build gate: %w", err)
	}

	return &Client{cfg: cfg, rt: rt}, nil
}

// Check evaluates the action without executing anything. The evaluation
// is audited like any other.
func (c *Client) Check(action Action) (Result, error) {
	in, err := toIntent(action, c.cfg.agentID)
	if err != nil {
		return Result{}, err
	}
	return toResult(c.rt.Gate.Evaluate(in)), nil
}

// Record is one persisted decision as returned by History.
type Record struct {
	ID       string
	AgentID  string
	Tool     string
	Target   string
	Decision Decision
	Reason   string
	DryRun   bool
}

// History returns up to limit recent decisions recorded by this client,
// oldest first. limit <= 0 means the store's default page size.
func (c *Client) History(ctx context.Context, limit int) ([]Record, error) {
	entries, err := c.rt.Logger.Query(ctx, audit.Filter{Limit: limit})
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{
			ID:       e.ID,
			AgentID:  e.AgentID,
			Tool:     string(e.Tool),
			Target:   e.Target,
			Decision: Decision(e.Decision.Effect),
			Reason:   e.Decision.Reason,
			DryRun:   e.DryRun,
		}
	}
	return records, nil
}

// Close releases the audit backend.
func (c *Client) Close() error {
	return c.rt.Close()
}
