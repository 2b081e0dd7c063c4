// Package toolgate provides in-process authorization for Go agent
// frameworks. It wraps tool functions, evaluates the ordered rule chain
// configured in the policy file, and returns allow, block, or
// require-approval before the tool runs. Every evaluation is recorded
// in the configured audit backend.
//
// Usage:
//
//	tg, err := toolgate.New(toolgate.WithAgentID("research-bot"))
//	wrapped := tg.Wrap(myTool)
//	result, err := wrapped(ctx, toolgate.Action{
//	    Tool:   "exec",
//	    Target: "git status",
//	})
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/toolgate/sdk/go/toolgate.
package toolgate
