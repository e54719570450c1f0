// sqadmin/backend/identity.go
package backend

import (
	"context"
	"net/http"

	"sqadmin/models"
)

// LoginResult is the identity service's answer to a successful credential
// check.
type LoginResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	return call[LoginResult](ctx, c, "login", http.MethodPost, "/api/identity/login",
		loginRequest{Username: username, Password: password})
}

// CurrentUser resolves the profile behind the current token. A failure here
// is the one signal that a token has gone stale.
func (c *Client) CurrentUser(ctx context.Context) (models.Profile, error) {
	return call[models.Profile](ctx, c, "current_user", http.MethodGet, "/api/identity/me", nil)
}
