package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/toolgate/internal/config"
	"github.com/ppiankov/toolgate/internal/model"
)

// Run evaluates all cases in a scenario against the given policy.
// Each case gets a fresh gate, so stateful rules (rate limits) do not
// carry over between cases.
func Run(s *Scenario, cfg *config.Config) (*RunResult, error) {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		g, err := config.NewGate(cfg)
		if err != nil {
			return nil, fmt.Errorf("build gate: %w", err)
		}

		cr := CaseResult{
			Index:    i + 1,
			Tool:     c.Action.Tool,
			Target:   c.Action.Target,
			Expected: strings.ToLower(c.Expect),
		}

		agent := c.Agent
		if agent == "" {
			agent = fmt.Sprintf("scenario-%d", i+1)
		}

		var opts []model.IntentOption
		if c.Reason != "" {
			opts = append(opts, model.WithReason(c.Reason))
		}

		in, err := model.NewIntent(agent, model.Tool(c.Action.Tool), c.Action.Target, opts...)
		if err != nil {
			cr.Actual = "invalid"
			cr.Reason = err.Error()
		} else {
			d := g.Evaluate(in)
			cr.Actual = string(d.Effect)
			cr.Reason = d.Reason
		}

		if cr.Actual == cr.Expected {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}

		result.Cases = append(result.Cases, cr)
	}

	return result, nil
}

// LoadAndRun loads a scenario YAML file, loads the policy, and runs.
func LoadAndRun(path, policyPath string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	cfg, err := config.Load(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	result, err := Run(&s, cfg)
	if err != nil {
		return nil, err
	}
	result.File = path

	return result, nil
}
