package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/toolgate/internal/config"
	"github.com/ppiankov/toolgate/internal/mcp"
	"github.com/ppiankov/toolgate/internal/server"
)

var (
	mcpPolicy string
	mcpAgent  string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to policy YAML (default ~/.toolgate/policy.yaml)")
	mcpCmd.Flags().StringVar(&mcpAgent, "agent", "mcp", "Agent identity assumed when a caller omits agent_id")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the gate over MCP on stdio",
	Long: "Starts an MCP server exposing toolgate_check and toolgate_audit.\n" +
		"The policy file is hot-reloaded on change.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	s, err := mcp.New(mcp.Config{
		PolicyPath: mcpPolicy,
		AgentID:    mcpAgent,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchPath := mcpPolicy
	if watchPath == "" {
		watchPath = config.DefaultPath()
	}
	if reloader, err := server.NewReloader(s, []string{watchPath}); err != nil {
		fmt.Fprintf(os.Stderr, "hot-reload disabled: %v\n", err)
	} else {
		go reloader.Run(ctx)
	}

	return s.Run(ctx)
}
