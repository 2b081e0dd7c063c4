package rule

import (
	"fmt"
	"path"
	"strings"

	"github.com/ppiankov/toolgate/internal/model"
)

// BlockTool blocks every intent for the given tool category.
func BlockTool(tool model.Tool, reason string) Rule {
	if reason == "" {
		reason = fmt.Sprintf("tool %q is not permitted", tool)
	}
	return Func{
		RuleName: fmt.Sprintf("block_tool.%s", tool),
		Fn: func(in *model.Intent) (model.Decision, bool, error) {
			if in.Tool == tool {
				return model.Block(reason), true, nil
			}
			return model.Decision{}, false, nil
		},
	}
}

// AllowTool allows every intent for the given tool category.
func AllowTool(tool model.Tool) Rule {
	return Func{
		RuleName: fmt.Sprintf("allow_tool.%s", tool),
		Fn: func(in *model.Intent) (model.Decision, bool, error) {
			if in.Tool == tool {
				return model.Allow(), true, nil
			}
			return model.Decision{}, false, nil
		},
	}
}

// RequireApprovalForTool routes every intent for the given tool category
// to a human.
func RequireApprovalForTool(tool model.Tool, reason string) Rule {
	return Func{
		RuleName: fmt.Sprintf("require_approval.%s", tool),
		Fn: func(in *model.Intent) (model.Decision, bool, error) {
			if in.Tool == tool {
				return model.RequireApproval(reason), true, nil
			}
			return model.Decision{}, false, nil
		},
	}
}

// BlockTargets blocks intents whose target matches any of the given
// glob patterns (case-insensitive). A pattern with no glob metacharacters
// matches by containment, so "prod-db" blocks "ssh prod-db-3".
func BlockTargets(patterns ...string) Rule {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return Func{
		RuleName: "block_targets",
		Fn: func(in *model.Intent) (model.Decision, bool, error) {
			target := strings.ToLower(in.Target)
			for _, p := range lowered {
				if matchTarget(p, target) {
					return model.Block(fmt.Sprintf("target matches blocked pattern %q", p)), true, nil
				}
			}
			return model.Decision{}, false, nil
		},
	}
}

// AllowAll allows every intent. Place last to turn the gate's default
// from require-approval into allow for anything earlier rules let
// through.
func AllowAll() Rule {
	return Func{
		RuleName: "allow_all",
		Fn: func(in *model.Intent) (model.Decision, bool, error) {
			return model.Allow(), true, nil
		},
	}
}

func matchTarget(pattern, target string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return strings.Contains(target, pattern)
	}
	if ok, err := path.Match(pattern, target); err == nil && ok {
		return true
	}
	return false
}
