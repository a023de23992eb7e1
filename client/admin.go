package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ourcity/ourcity-cli/transport"
)

// Promote handles PUT /admin/users/{username}/promote-to-admin.
func (c *Client) Promote(ctx context.Context, username string, creds transport.Credentials) Outcome[struct{}] {
	path := fmt.Sprintf("/admin/users/%s/promote-to-admin", url.PathEscape(username))
	resp, err := c.send(ctx, http.MethodPut, path, nil, creds)
	if err != nil {
		return sendFailure[struct{}](err)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return succeed(struct{}{}, fmt.Sprintf("Successfully promoted %s to admin", username))
	case http.StatusUnauthorized:
		return fail[struct{}](ErrAuth, msgNoSession)
	case http.StatusForbidden:
		return fail[struct{}](ErrPermission, "You do not have permission to promote users")
	case http.StatusNotFound:
		return fail[struct{}](ErrNotFound, "User not found")
	default:
		return unexpectedStatus[struct{}](resp.StatusCode, "Request failed")
	}
}
