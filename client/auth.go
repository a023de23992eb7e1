package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ourcity/ourcity-cli/transport"
)

// Login handles POST /authentication/login. On success the payload holds
// the credential set issued by the server.
func (c *Client) Login(ctx context.Context, username, password string) Outcome[LoginResult] {
	resp, err := c.send(ctx, http.MethodPost, "/authentication/login", LoginRequest{
		Username: username,
		Password: password,
	}, nil)
	if err != nil {
		return sendFailure[LoginResult](err)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return succeed(LoginResult{
			Username:    username,
			Credentials: transport.CredentialsFromCookies(resp.Cookies),
		}, fmt.Sprintf("Successfully logged in as %s", username))
	case http.StatusUnauthorized:
		return fail[LoginResult](ErrAuth, "Invalid credentials")
	default:
		return unexpectedStatus[LoginResult](resp.StatusCode, "Login failed")
	}
}

// Logout handles POST /authentication/logout.
func (c *Client) Logout(ctx context.Context, creds transport.Credentials) Outcome[struct{}] {
	resp, err := c.send(ctx, http.MethodPost, "/authentication/logout", nil, creds)
	if err != nil {
		return sendFailure[struct{}](err)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return succeed(struct{}{}, "Successfully logged out")
	case http.StatusUnauthorized:
		return fail[struct{}](ErrAuth, msgNoSession)
	default:
		return unexpectedStatus[struct{}](resp.StatusCode, "Logout failed")
	}
}

// Whoami handles GET /authentication/me.
func (c *Client) Whoami(ctx context.Context, creds transport.Credentials) Outcome[User] {
	resp, err := c.send(ctx, http.MethodGet, "/authentication/me", nil, creds)
	if err != nil {
		return sendFailure[User](err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		user, err := decode[User](resp)
		if err != nil {
			return fail[User](err, errorOccurred(err))
		}
		return succeed(user, "User information retrieved successfully")
	case http.StatusUnauthorized:
		return fail[User](ErrAuth, msgNoSession)
	default:
		return unexpectedStatus[User](resp.StatusCode, "Request failed")
	}
}
