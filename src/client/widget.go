package client

import (
	"context"

	"finance-link-server/src/link"
)

// SandboxWidget stands in for the hosted linking UI against a sandbox
// server: it ignores the link token and returns a freshly minted public token.
func (c *Client) SandboxWidget(institutionID string) link.Widget {
	return link.WidgetFunc(func(ctx context.Context, linkToken string) link.WidgetResult {
		token, err := c.SandboxPublicToken(ctx, institutionID)
		if err != nil {
			return link.WidgetResult{Err: err}
		}
		return link.WidgetResult{
			PublicToken: token,
			Metadata:    map[string]any{"institution_id": institutionID, "link_token": linkToken},
		}
	})
}
