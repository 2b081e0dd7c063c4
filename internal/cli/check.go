package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/toolgate/internal/config"
	"github.com/ppiankov/toolgate/internal/model"
)

var (
	checkAgent  string
	checkTool   string
	checkTarget string
	checkReason string
	checkPolicy string
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkAgent, "agent", "cli", "Agent identity to evaluate as")
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Tool category (exec|browser|http|write)")
	checkCmd.Flags().StringVar(&checkTarget, "target", "", "Command, URL, or path the action touches")
	checkCmd.Flags().StringVar(&checkReason, "reason", "", "Stated reason for the action")
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Path to policy YAML (default ~/.toolgate/policy.yaml)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("tool")
	checkCmd.MarkFlagRequired("target")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one intent against the policy",
	Long: "Builds an intent from the flags, runs it through the gate, and prints\n" +
		"the decision. The evaluation is recorded in the configured audit\n" +
		"backend like any other.\n\n" +
		"Exit code 0 for allow, 2 for block, 3 for require_approval.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var opts []model.IntentOption
	if checkReason != "" {
		opts = append(opts, model.WithReason(checkReason))
	}
	in, err := model.NewIntent(checkAgent, model.Tool(checkTool), checkTarget, opts...)
	if err != nil {
		return err
	}

	cfg, err := config.Load(checkPolicy)
	if err != nil {
		return err
	}
	rt, err := config.Build(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	d := rt.Gate.Evaluate(in)

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		if d.Reason != "" {
			fmt.Printf("%s: %s\n", d.Effect, d.Reason)
		} else {
			fmt.Println(d.Effect)
		}
	}

	switch {
	case d.IsBlocked():
		os.Exit(2)
	case d.RequiresApproval():
		os.Exit(3)
	}
	return nil
}
