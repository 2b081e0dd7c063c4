package toolgate

import (
	"context"
)

// ToolFunc is the function signature that Wrap guards. The caller
// provides an Action describing the intended operation.
type ToolFunc func(ctx context.Context, action Action) (any, error)

// Wrap returns a new ToolFunc that evaluates the gate before calling
// fn. A block or require-approval decision returns a *BlockedError
// without calling fn; approval follow-up is the caller's responsibility.
func (c *Client) Wrap(fn ToolFunc) ToolFunc {
	return func(ctx context.Context, action Action) (any, error) {
		result, err := c.Check(action)
		if err != nil {
			return nil, err
		}
		if !result.Allowed() {
			return nil, &BlockedError{
				Action:   action,
				Decision: result.Decision,
				Reason:   result.Reason,
			}
		}
		return fn(ctx, action)
	}
}
