// Package mcp exposes the gate over the Model Context Protocol. It is a
// framework adapter: it maps the MCP tool-call shape onto canonical
// intents and reports decisions, it never executes the proposed action.
package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/toolgate/internal/config"
)

// Config holds MCP server configuration.
type Config struct {
	PolicyPath string
	AgentID    string // identity assumed when the caller omits agent_id
}

// Server wraps the MCP SDK server around a gate runtime built from the
// policy file. Reload swaps the runtime atomically, so in-flight
// handlers keep the runtime they started with.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       Config

	mu sync.RWMutex
	rt *config.Runtime
}

// New creates an MCP server with the policy loaded and tools registered.
func New(cfg Config) (*Server, error) {
	rt, err := loadRuntime(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, rt: rt}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "toolgate",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the audit backend.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.Close()
}

// Reload rebuilds the runtime from the policy file and swaps it in.
// Called by the hot-reloader on file change; the old audit backend is
// closed after the swap.
func (s *Server) Reload() error {
	rt, err := loadRuntime(s.cfg.PolicyPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.rt
	s.rt = rt
	s.mu.Unlock()

	return old.Close()
}

func (s *Server) runtime() *config.Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt
}

func loadRuntime(policyPath string) (*config.Runtime, error) {
	cfg, err := config.Load(policyPath)
	if err != nil {
		return nil, fmt.Errorf("mcp: load policy: %w", err)
	}
	rt, err := config.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("mcp: build gate: %w", err)
	}
	return rt, nil
}

// registerTools adds the toolgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_check",
		Description: "Check whether an action would be allowed by toolgate policy without executing it. Returns allow, block, or require_approval with a reason.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toolgate_audit",
		Description: "Query persisted toolgate decisions. Filter by agent, tool category, or decision effect.",
	}, s.handleAudit)
}
