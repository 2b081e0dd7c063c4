package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/toolgate/internal/audit"
	"github.com/ppiankov/toolgate/internal/config"
	"github.com/ppiankov/toolgate/internal/model"
)

var (
	auditPolicy   string
	auditAgent    string
	auditTool     string
	auditDecision string
	auditFrom     string
	auditTo       string
	auditLimit    int
	auditOffset   int
	auditFormat   string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditCountCmd)

	auditCmd.PersistentFlags().StringVar(&auditPolicy, "policy", "", "Path to policy YAML (default ~/.toolgate/policy.yaml)")
	auditCmd.PersistentFlags().StringVar(&auditAgent, "agent", "", "Filter by agent id")
	auditCmd.PersistentFlags().StringVar(&auditTool, "tool", "", "Filter by tool category")
	auditCmd.PersistentFlags().StringVar(&auditDecision, "decision", "", "Filter by decision effect (allow|block|require_approval)")
	auditCmd.PersistentFlags().StringVar(&auditFrom, "from", "", "Inclusive lower bound, RFC3339")
	auditCmd.PersistentFlags().StringVar(&auditTo, "to", "", "Inclusive upper bound, RFC3339")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 0, "Page size (default 100)")
	auditListCmd.Flags().IntVar(&auditOffset, "offset", 0, "Page offset")
	auditListCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query persisted decisions",
	Long:  "Commands for inspecting the audit backend configured in the policy file.",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries matching the filters",
	RunE:  runAuditList,
}

var auditCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count audit entries matching the filters",
	RunE:  runAuditCount,
}

func auditFilter() (audit.Filter, error) {
	f := audit.Filter{
		AgentID: auditAgent,
		Tool:    model.Tool(auditTool),
		Effect:  model.Effect(auditDecision),
		Limit:   auditLimit,
		Offset:  auditOffset,
	}
	if auditFrom != "" {
		t, err := time.Parse(time.RFC3339, auditFrom)
		if err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
		f.From = t
	}
	if auditTo != "" {
		t, err := time.Parse(time.RFC3339, auditTo)
		if err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		f.To = t
	}
	return f, nil
}

func openAudit() (*config.Runtime, error) {
	cfg, err := config.Load(auditPolicy)
	if err != nil {
		return nil, err
	}
	return config.Build(cfg)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	f, err := auditFilter()
	if err != nil {
		return err
	}
	rt, err := openAudit()
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.Logger.Query(context.Background(), f)
	if err != nil {
		return err
	}

	if auditFormat == "json" {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-5s %-16s %-7s %-16s %s",
			e.Timestamp.Format(time.RFC3339), e.Level, e.AgentID, e.Tool,
			e.Decision.Effect, e.Target)
		if e.Decision.Reason != "" {
			line += "  # " + e.Decision.Reason
		}
		fmt.Println(line)
	}
	return nil
}

func runAuditCount(cmd *cobra.Command, args []string) error {
	f, err := auditFilter()
	if err != nil {
		return err
	}
	rt, err := openAudit()
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.Logger.Count(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}
